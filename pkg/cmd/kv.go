package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/service"
	kv "github.com/yeisme/certvault/pkg/internal/storage/kv"
)

var (
	cacheCmd = &cobra.Command{
		Use:     "cache",
		Short:   "query cache related commands",
		Aliases: []string{"kv"},
	}

	cacheListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered cache backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered cache types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	// 删除缓存的证书列表，下一次查询直接读存储.
	cacheFlushCmd = &cobra.Command{
		Use:   "flush",
		Short: "drop the cached certificate list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()
			if !cfg.Cache.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "cache disabled, nothing to flush")

				return nil
			}

			store, err := kv.NewFromConfig(cmd.Context(), &cfg.Cache)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), service.AllCertificatesKey); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "flushed %s (%s)\n", service.AllCertificatesKey, cfg.Cache.Type)

			return nil
		},
	}
)

// registerKVCommands 注册缓存相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cacheFlushCmd)
}
