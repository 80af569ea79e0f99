package config

import (
	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/spf13/cobra"
)

// ModuleI defines an interface of Module
type ModuleI interface {
	// Name returns the name of the module
	Name() string

	// RegisterSigners registers the signer configs the module provides.
	RegisterSigners(registry *core.SignerRegistry)

	// GetCmd returns the command
	GetCmd(ctx *Context) *cobra.Command
}
