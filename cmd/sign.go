package cmd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/hyperledger-labs/yui-remote-signer/config"
	"github.com/spf13/cobra"
)

// Command for one-shot signing without running the service
func signCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [message]",
		Short: "Signs the given message and prints the signature",
		Long:  "Signs the message given as an argument, or read from the file passed with --file (\"-\" reads from stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd, args)
			if err != nil {
				return err
			}
			signer, err := ctx.Config.BuildSigner(cmd.Context())
			if err != nil {
				return err
			}
			signature, err := signer.Sign(cmd.Context(), message)
			if err != nil {
				return err
			}

			if ok, err := cmd.Flags().GetBool(flagHex); err != nil {
				return err
			} else if ok {
				fmt.Println(hex.EncodeToString(signature))
				return nil
			}
			fmt.Println(base64.StdEncoding.EncodeToString(signature))
			return nil
		},
	}
	return hexFlag(fileFlag(cmd))
}

func readMessage(cmd *cobra.Command, args []string) ([]byte, error) {
	file, err := cmd.Flags().GetString(flagFile)
	if err != nil {
		return nil, err
	}
	switch {
	case len(args) == 1 && file != "":
		return nil, fmt.Errorf("a message argument and --file cannot be used together")
	case len(args) == 1:
		return []byte(args[0]), nil
	case file == "-":
		return io.ReadAll(cmd.InOrStdin())
	case file != "":
		return os.ReadFile(file)
	default:
		return nil, fmt.Errorf("a message argument or --file is required")
	}
}
