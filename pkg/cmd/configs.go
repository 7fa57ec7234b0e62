package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yeisme/certvault/pkg/configs"
)

const redacted = "******"

var debugOutput string

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			used := ""
			if v := configs.GetViper(); v != nil {
				used = v.ConfigFileUsed()
			}

			if used == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and environment only)")

				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), used)
		},
	}

	// 以 JSON 打印合并后的配置，凭据打码.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				if v := configs.GetViper(); v != nil {
					v.Debug()
				}
			}

			var (
				b   []byte
				err error
			)

			switch debugOutput {
			case "yaml", "yml":
				// 使用 viper 的键名而不是 Go 字段名
				settings := map[string]any{}
				if v := configs.GetViper(); v != nil {
					settings = v.AllSettings()
				}

				b, err = yaml.Marshal(redactSettings(settings, configs.GetConfig()))
			default:
				b, err = json.MarshalIndent(redact(*configs.GetConfig()), "", "  ")
			}

			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))

			return nil
		},
	}

	// 分别按 generate 与 serve 的要求校验配置.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "check the config for generate and serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			genErr := cfg.ValidateGenerate()
			serveErr := cfg.ValidateServe()

			report := func(name string, err error) {
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s FAIL\n%v\n", name, err)

					return
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%-8s ok\n", name)
			}

			report("generate", genErr)
			report("serve", serveErr)

			if genErr != nil || serveErr != nil {
				return fmt.Errorf("config is not valid")
			}

			return nil
		},
	}
)

func redact(c configs.AppConfig) configs.AppConfig {
	c.DB.URI = c.DB.RedactedURI()

	if c.Files.S3.SecretAccessKey != "" {
		c.Files.S3.SecretAccessKey = redacted
	}

	if c.Cache.Redis.Password != "" {
		c.Cache.Redis.Password = redacted
	}

	return c
}

// redactSettings 在 viper 的原始配置树中替换凭据.
func redactSettings(settings map[string]any, cfg *configs.AppConfig) map[string]any {
	replace := func(value any, keys ...string) {
		m := settings

		for _, k := range keys[:len(keys)-1] {
			next, ok := m[k].(map[string]any)
			if !ok {
				return
			}

			m = next
		}

		last := keys[len(keys)-1]
		if s, ok := m[last].(string); ok && s != "" {
			m[last] = value
		}
	}

	replace(cfg.DB.RedactedURI(), "db", "uri")
	replace(redacted, "files", "s3", "secret_access_key")
	replace(redacted, "cache", "redis", "password")

	return settings
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	debugCmd.Flags().StringVarP(&debugOutput, "output", "o", "json", "output format: json or yaml")

	configCmd.AddCommand(pathCmd, debugCmd, validateCmd)

	rootCmd.AddCommand(configCmd)
}
