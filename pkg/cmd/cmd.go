// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/log"
	"github.com/yeisme/certvault/pkg/tracing"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "certvault",
		Short:         "Generate named PDF certificates and serve them over HTTP",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			if debug {
				configs.GetConfig().Server.Debug = true
			}

			log.Init()

			// 容器内按 cgroup 配额设置 GOMAXPROCS
			l := log.Logger()
			if _, err := maxprocs.Set(maxprocs.Logger(func(f string, a ...any) { l.Debug().Msgf(f, a...) })); err != nil {
				l.Warn().Err(err).Msg("failed to set GOMAXPROCS")
			}

			return tracing.InitTracer(configs.GetConfig().Tracing)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return tracing.ShutdownTracer(context.Background())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	registerGenerateCommands()
	registerServeCommands()
	registerTemplateCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
}

// Execute runs the root command. SIGINT/SIGTERM 取消命令的 context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		return err
	}

	return nil
}
