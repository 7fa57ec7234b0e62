package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/render"
)

var (
	templateOut    string
	templateWidth  float64
	templateHeight float64
	templateForce  bool
	templateFile   string

	templateCmd = &cobra.Command{
		Use:   "template",
		Short: "template PDF helpers",
	}

	// 生成一页空白模板，便于本地试跑.
	templateInitCmd = &cobra.Command{
		Use:   "init",
		Short: "write a blank single-page template PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := templateOut
			if out == "" {
				out = configs.GetConfig().Generator.TemplatePath
			}

			if _, err := os.Stat(out); err == nil && !templateForce {
				return fmt.Errorf("%s already exists (use --force to overwrite)", out)
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}

			if err := os.WriteFile(out, render.BlankTemplate(templateWidth, templateHeight), 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%gx%g pt)\n", out, templateWidth, templateHeight)

			return nil
		},
	}

	// 打印模板尺寸与姓名的默认位置.
	templateInspectCmd = &cobra.Command{
		Use:   "inspect [name]",
		Short: "print page size and the placement of a name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig().Generator

			path := templateFile
			if path == "" {
				path = cfg.TemplatePath
			}

			tpl, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			r, err := render.NewRenderer(tpl, render.Options{FontSize: cfg.FontSize, NameY: cfg.NameY})
			if err != nil {
				return err
			}

			name := "Ahmad Fauzi"
			if len(args) == 1 {
				name = args[0]
			}

			p := r.Layout(name)
			fmt.Fprintf(cmd.OutOrStdout(), "page: %gx%g pt\n", p.PageWidth, p.PageHeight)
			fmt.Fprintf(cmd.OutOrStdout(), "name: %q width=%.2f x=%.2f y=%.2f size=%d\n", name, p.TextWidth, p.X, p.Y, p.FontSize)

			return nil
		},
	}
)

// registerTemplateCommands 注册模板相关命令.
func registerTemplateCommands() {
	templateInitCmd.Flags().StringVarP(&templateOut, "out", "o", "", "output path (default generator.template_path)")
	templateInitCmd.Flags().Float64Var(&templateWidth, "width", render.A4LandscapeWidth, "page width in points")
	templateInitCmd.Flags().Float64Var(&templateHeight, "height", render.A4LandscapeHeight, "page height in points")
	templateInitCmd.Flags().BoolVar(&templateForce, "force", false, "overwrite an existing file")

	templateInspectCmd.Flags().StringVarP(&templateFile, "file", "f", "", "template path (default generator.template_path)")

	templateCmd.AddCommand(templateInitCmd, templateInspectCmd)
	rootCmd.AddCommand(templateCmd)
}
