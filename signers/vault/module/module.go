package module

import (
	"github.com/hyperledger-labs/yui-remote-signer/config"
	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/signers/vault"
	"github.com/hyperledger-labs/yui-remote-signer/signers/vault/cmd"
	"github.com/spf13/cobra"
)

type Module struct{}

var _ config.ModuleI = (*Module)(nil)

// Name returns the name of the module
func (Module) Name() string {
	return "signers.vault"
}

// RegisterSigners registers the signer configs the module provides.
func (Module) RegisterSigners(registry *core.SignerRegistry) {
	registry.Register(vault.TypeName, func() core.SignerConfig {
		return &vault.SignerConfig{}
	})
}

// GetCmd returns the command
func (Module) GetCmd(ctx *config.Context) *cobra.Command {
	return cmd.VaultCmd(ctx)
}
