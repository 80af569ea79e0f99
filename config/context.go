package config

import "github.com/hyperledger-labs/yui-remote-signer/core"

type Context struct {
	Modules  []ModuleI
	Registry *core.SignerRegistry
	Config   *Config
}
