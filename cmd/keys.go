package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	cosmosed25519 "github.com/cosmos/cosmos-sdk/crypto/keys/ed25519"
	"github.com/cosmos/cosmos-sdk/types/bech32/legacybech32"
	"github.com/hyperledger-labs/yui-remote-signer/config"
	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/coreutil"
	"github.com/hyperledger-labs/yui-remote-signer/signers/vault"
	"github.com/spf13/cobra"
)

func keysCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "manage signing keys",
		RunE:  noCommand,
	}

	cmd.AddCommand(
		showKeysCmd(ctx),
		wrappingKeyCmd(ctx),
		exportKeyCmd(ctx),
	)

	return cmd
}

// Command for printing the consensus public key of the configured signer
func showKeysCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s"},
		Short:   "Prints the consensus public key of the configured signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := ctx.Config.BuildSigner(cmd.Context())
			if err != nil {
				return err
			}
			pubKey, err := core.ConsensusPubKey(cmd.Context(), signer)
			if err != nil {
				return err
			}
			bech32PubKey, err := legacybech32.MarshalPubKey(legacybech32.ConsPK, &cosmosed25519.PubKey{Key: pubKey.Bytes()})
			if err != nil {
				return err
			}

			if ok, err := cmd.Flags().GetBool(flagJSON); err != nil {
				return err
			} else if ok {
				out, err := json.Marshal(map[string]string{
					"address":        pubKey.Address().String(),
					"pub_key_base64": base64.StdEncoding.EncodeToString(pubKey.Bytes()),
					"pub_key_bech32": bech32PubKey,
				})
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			fmt.Printf("address: %s\n", pubKey.Address().String())
			fmt.Printf("pub_key(base64): %s\n", base64.StdEncoding.EncodeToString(pubKey.Bytes()))
			fmt.Printf("pub_key(bech32): %s\n", bech32PubKey)
			return nil
		},
	}
	return jsonFlag(cmd)
}

// Command for printing the wrapping key of the vault transit backend
func wrappingKeyCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrapping-key",
		Short: "Prints the key used to wrap key material imported into the vault transit backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := vaultClient(ctx, cmd)
			if err != nil {
				return err
			}
			wrappingKey, err := client.WrappingKey(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(wrappingKey)
			return nil
		},
	}
	return cmd
}

// Command for printing key material exported from the vault transit backend
func exportKeyCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [key-type] [key-name]",
		Short: "Prints the latest version of the exported key material",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := vaultClient(ctx, cmd)
			if err != nil {
				return err
			}
			material, err := client.ExportKey(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(material)
			return nil
		},
	}
	return cmd
}

func vaultClient(ctx *config.Context, cmd *cobra.Command) (*vault.SigningClient, error) {
	signer, err := ctx.Config.BuildSigner(cmd.Context())
	if err != nil {
		return nil, err
	}
	vaultSigner, err := coreutil.UnwrapSigner[vault.Signer](signer)
	if err != nil {
		return nil, err
	}
	return vaultSigner.Client, nil
}
