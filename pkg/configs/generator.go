package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultTemplatePath = "template/template.pdf" // 模板 PDF 路径
	DefaultFontSize     = 40                      // 姓名字号（磅）
	DefaultNameY        = 280.0                   // 姓名基线距页面底部的距离
	DefaultPublicPrefix = "/certificates"         // 证书对外访问路径前缀
)

// GeneratorConfig 批量生成器配置.
type GeneratorConfig struct {
	TemplatePath string   `mapstructure:"template_path" rule:"required"`
	Names        []string `mapstructure:"names"`      // 参与者名单，按顺序处理
	NamesFile    string   `mapstructure:"names_file"` // 可选：一行一个名字的名单文件
	FontSize     int      `mapstructure:"font_size"     rule:"gt=0"`
	NameY        float64  `mapstructure:"name_y"        rule:"gte=0"`
	PublicPrefix string   `mapstructure:"public_prefix" rule:"required,startswith=/"`
}

// setDefaults 设置生成器配置的默认值.
func (c *GeneratorConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("generator.template_path", DefaultTemplatePath)
	v.SetDefault("generator.names", []string{})
	v.SetDefault("generator.names_file", "")
	v.SetDefault("generator.font_size", DefaultFontSize)
	v.SetDefault("generator.name_y", DefaultNameY)
	v.SetDefault("generator.public_prefix", DefaultPublicPrefix)
}
