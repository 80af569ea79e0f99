package cmd

import (
	"fmt"

	"github.com/hyperledger-labs/yui-remote-signer/config"
	"github.com/hyperledger-labs/yui-remote-signer/signers/vault"
	"github.com/spf13/cobra"
)

func VaultCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "manage the vault transit signer configuration",
	}

	cmd.AddCommand(
		configureCmd(ctx),
	)

	return cmd
}

func configureCmd(ctx *config.Context) *cobra.Command {
	const (
		flagAddr           = "addr"
		flagToken          = "token"
		flagKeyName        = "key-name"
		flagTimeout        = "timeout"
		flagRetryAttempts  = "retry-attempts"
		flagRetryInterval  = "retry-interval"
		flagMaxMessageSize = "max-message-size"
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "register the vault transit signer in the config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := vault.SignerConfig{
				Type: vault.TypeName,
			}
			var err error
			if c.Addr, err = cmd.Flags().GetString(flagAddr); err != nil {
				return err
			}
			if c.Token, err = cmd.Flags().GetString(flagToken); err != nil {
				return err
			}
			if c.KeyName, err = cmd.Flags().GetString(flagKeyName); err != nil {
				return err
			}
			if c.Timeout, err = cmd.Flags().GetString(flagTimeout); err != nil {
				return err
			}
			if c.RetryAttempts, err = cmd.Flags().GetUint(flagRetryAttempts); err != nil {
				return err
			}
			if c.RetryInterval, err = cmd.Flags().GetString(flagRetryInterval); err != nil {
				return err
			}
			if c.MaxMessageSize, err = cmd.Flags().GetInt(flagMaxMessageSize); err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			if err := ctx.Config.SetSigner(&c); err != nil {
				return err
			}
			fmt.Printf("configured the %s signer\n", vault.TypeName)
			return nil
		},
	}

	cmd.Flags().String(flagAddr, "", "address of the vault server")
	cmd.Flags().String(flagToken, "", "token used to authenticate against the vault server")
	cmd.Flags().String(flagKeyName, "", "name of the transit key used for signing")
	cmd.Flags().String(flagTimeout, "", "timeout of a vault request (e.g. 10s)")
	cmd.Flags().Uint(flagRetryAttempts, 0, "maximum number of attempts per vault request")
	cmd.Flags().String(flagRetryInterval, "", "delay between retried vault requests (e.g. 400ms)")
	cmd.Flags().Int(flagMaxMessageSize, 0, "reject messages larger than this size (0 disables the check)")
	for _, name := range []string{flagAddr, flagToken, flagKeyName} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}
