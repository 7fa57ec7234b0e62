package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/render"
	"github.com/yeisme/certvault/pkg/internal/service"
	"github.com/yeisme/certvault/pkg/internal/storage"
	"github.com/yeisme/certvault/pkg/log"
)

var (
	namesFile    string
	templatePath string

	generateCmd = &cobra.Command{
		Use:     "generate [name...]",
		Short:   "render one certificate per name and record it in the store",
		Aliases: []string{"gen"},
		Long: `为每个名字渲染一张证书 PDF，写入文件存储，并按名字 upsert 记录.
名单优先级：命令行参数 > --names-file > 配置中的 generator.names.
任意一个名字失败即中止整个批次并返回非零退出码，已完成的名字不回滚.`,
		RunE: runGenerate,
	}
)

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := configs.GetConfig()
	l := log.Logger()

	if templatePath != "" {
		cfg.Generator.TemplatePath = templatePath
	}

	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	file := namesFile
	if file == "" {
		file = cfg.Generator.NamesFile
	}

	names, err := service.ResolveNames(args, file, cfg.Generator.Names)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	mgr, err := storage.New(ctx, cfg, storage.WithoutCache())
	if err != nil {
		return err
	}

	defer func() {
		if cerr := mgr.Close(); cerr != nil {
			l.Error().Err(cerr).Msg("close storage failed")
		}
	}()

	// 空名单也完成一次连接与关闭
	if len(names) == 0 {
		l.Warn().Msg("no names to generate")

		return nil
	}

	tpl, err := os.ReadFile(cfg.Generator.TemplatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	renderer, err := render.NewRenderer(tpl, render.Options{
		FontSize: cfg.Generator.FontSize,
		NameY:    cfg.Generator.NameY,
	})
	if err != nil {
		return fmt.Errorf("load template %s: %w", cfg.Generator.TemplatePath, err)
	}

	l.Info().
		Int("names", len(names)).
		Str("template", cfg.Generator.TemplatePath).
		Float64("page_width", renderer.PageWidth()).
		Msg("generating certificates")

	report, err := service.NewGenerator(mgr.Store, mgr.Files, renderer, cfg.Generator.PublicPrefix).Run(ctx, names)

	event := l.Info()
	if err != nil {
		event = l.Error().Err(err)
	}

	event.
		Int("generated", len(report.Entries)).
		Int("total", report.Total).
		Dur("duration", report.Duration).
		Msg("generation finished")

	if err != nil {
		return errors.New("generation aborted")
	}

	return nil
}

// registerGenerateCommands 注册 generate 命令.
func registerGenerateCommands() {
	generateCmd.Flags().StringVarP(&namesFile, "names-file", "f", "", "file with one name per line")
	generateCmd.Flags().StringVarP(&templatePath, "template", "t", "", "template PDF (overrides generator.template_path)")

	rootCmd.AddCommand(generateCmd)
}
