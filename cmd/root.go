package cmd

import (
	"os"
	"path/filepath"

	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/hyperledger-labs/yui-remote-signer/config"
	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/internal/telemetry"
	"github.com/hyperledger-labs/yui-remote-signer/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configPath = "config/config.yaml"

var (
	homePath    string
	debug       bool
	defaultHome = filepath.Join(os.Getenv("HOME"), ".ysigner")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ysigner",
	Short: "This application signs consensus data with keys held by remote custody backends",
}

func init() {
	cobra.EnableCommandSorting = false

	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVar(&homePath, flags.FlagHome, defaultHome, "set home directory")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug output")
	if err := viper.BindPFlag(flags.FlagHome, rootCmd.PersistentFlags().Lookup(flags.FlagHome)); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(err)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(modules ...config.ModuleI) error {
	registry := core.NewSignerRegistry()
	for _, module := range modules {
		module.RegisterSigners(registry)
	}
	ctx := &config.Context{
		Modules:  modules,
		Registry: registry,
		Config:   &config.Config{},
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// reads `homeDir/config/config.yaml` into `ctx.Config` before each command
		if err := initConfig(ctx, cmd); err != nil {
			return err
		}
		if err := initLogger(ctx); err != nil {
			return err
		}
		return telemetry.InitializeMetrics()
	}

	rootCmd.AddCommand(
		configCmd(ctx),
		modulesCmd(ctx),
		keysCmd(ctx),
		signCmd(ctx),
		serviceCmd(ctx),
	)
	for _, module := range modules {
		if cmd := module.GetCmd(ctx); cmd != nil {
			rootCmd.AddCommand(cmd)
		}
	}

	return rootCmd.Execute()
}

func noCommand(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

func initLogger(ctx *config.Context) error {
	c := ctx.Config.Global.LoggerConfig
	level := c.Level
	if debug {
		level = "DEBUG"
	}
	return log.InitLogger(level, c.Format, c.Output, false)
}
