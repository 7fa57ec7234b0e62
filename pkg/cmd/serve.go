package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/certvault/pkg/app"
	"github.com/yeisme/certvault/pkg/configs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the certificate query server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		a, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		return a.Run(cmd.Context())
	},
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
