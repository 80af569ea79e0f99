package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperledger-labs/yui-remote-signer/config"
	"github.com/hyperledger-labs/yui-remote-signer/internal/telemetry"
	"github.com/hyperledger-labs/yui-remote-signer/log"
	"github.com/hyperledger-labs/yui-remote-signer/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serviceCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Signing Service Commands",
		Long:  "Commands to manage the signing service",
	}
	cmd.AddCommand(
		startCmd(ctx),
	)
	return cmd
}

func startCmd(ctx *config.Context) *cobra.Command {
	const (
		flagListenAddr      = "listen-addr"
		flagPrometheusAddr  = "prometheus-addr"
		flagEnableTelemetry = "enable-telemetry"
	)
	const (
		defaultListenAddr     = "localhost:8260"
		defaultPrometheusAddr = "localhost:2223"
	)

	cmd := &cobra.Command{
		Use: "start",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if viper.GetBool(flagEnableTelemetry) {
				c := ctx.Config.Global.LoggerConfig
				if err := log.InitLogger(c.Level, c.Format, c.Output, true); err != nil {
					return err
				}
				shutdown, err := telemetry.SetupOTelSDK(runCtx)
				if err != nil {
					return fmt.Errorf("failed to initialize the telemetry SDK: %v", err)
				}
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						log.GetLogger().Error("failed to shutdown the telemetry SDK", err)
					}
				}()
			} else if err := telemetry.SetupPrometheusMetrics(viper.GetString(flagPrometheusAddr)); err != nil {
				return fmt.Errorf("failed to initialize the metrics subsystem with prometheus exporter: %v", err)
			}

			timeout, err := ctx.Config.Global.GetTimeout()
			if err != nil {
				return fmt.Errorf("did you remember to run 'ysigner config init'? error:%w", err)
			}
			signer, err := ctx.Config.BuildSigner(runCtx)
			if err != nil {
				return err
			}
			return server.StartService(runCtx, signer, viper.GetString(flagListenAddr), timeout)
		},
	}
	cmd.Flags().String(flagListenAddr, defaultListenAddr, "host address to which the signing service listens")
	cmd.Flags().String(flagPrometheusAddr, defaultPrometheusAddr, "host address to which the prometheus exporter listens")
	cmd.Flags().Bool(flagEnableTelemetry, false, "export telemetry with the exporters configured via OTEL_* environment variables")
	bindFlags(cmd.Flags())
	return cmd
}
