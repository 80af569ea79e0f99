package main

import (
	"log"

	"github.com/hyperledger-labs/yui-remote-signer/cmd"
	memory "github.com/hyperledger-labs/yui-remote-signer/signers/memory/module"
	vault "github.com/hyperledger-labs/yui-remote-signer/signers/vault/module"
)

func main() {
	if err := cmd.Execute(
		vault.Module{},
		memory.Module{},
	); err != nil {
		log.Fatal(err)
	}
}
