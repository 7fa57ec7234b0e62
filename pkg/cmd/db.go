package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/storage"
	"github.com/yeisme/certvault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Document store related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all supported document store types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			fmt.Fprintln(cmd.OutOrStdout(), " - "+string(configs.MongoDB))

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+string(dbType))
			}
		},
	}

	// 连接配置的文档存储并统计记录数.
	dbPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "connect to the configured document store and count records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.DB.ConnectTimeout)*time.Second)
			defer cancel()

			store, err := storage.NewCertificateStore(ctx, &cfg.DB, false)
			if err != nil {
				return err
			}
			defer store.Close()

			certs, err := store.FindAllCertificates(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s ok, %d certificates\n", cfg.DB.RedactedURI(), len(certs))

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd, dbPingCmd)
}
