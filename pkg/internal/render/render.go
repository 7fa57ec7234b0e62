// Package render 把参与者姓名盖印到证书模板 PDF 的第一页上.
//
// 坐标系原点在页面左下角. 姓名水平居中：X = (页面宽度 - 文本宽度) / 2，
// Y 为基线距页面底部的固定偏移. 文本宽度使用 Helvetica-Bold 的字体度量计算.
// PDF 的读取、字体嵌入与写出由 pdfcpu 完成.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/certvault/pkg/tracing"
)

const (
	// DefaultFontName 姓名使用的核心字体，无需随 PDF 附带字体文件.
	DefaultFontName = "Helvetica-Bold"
	// DefaultFontSize 默认字号.
	DefaultFontSize = 40
	// DefaultNameY 默认距页面底部的偏移.
	DefaultNameY = 280.0
)

var (
	// ErrNoPages 模板中没有任何页面.
	ErrNoPages = errors.New("template has no pages")
	// ErrUnsupportedName 姓名包含无法原样盖印的字符.
	ErrUnsupportedName = errors.New("unsupported name")
)

func init() {
	// 不读写用户目录下的 pdfcpu 配置
	api.DisableConfigDir()
}

// Options 渲染参数，零值字段使用默认值.
type Options struct {
	FontName string
	FontSize int
	NameY    float64
}

func (o Options) withDefaults() Options {
	if o.FontName == "" {
		o.FontName = DefaultFontName
	}

	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}

	if o.NameY == 0 {
		o.NameY = DefaultNameY
	}

	return o
}

// Placement 描述姓名在第一页上的绘制位置.
type Placement struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   int     `json:"font_size"`
	TextWidth  float64 `json:"text_width"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
}

// Renderer 持有模板字节，每次渲染都从这份字节重新加载，渲染之间不共享可变状态.
type Renderer struct {
	template   []byte
	opts       Options
	pageWidth  float64
	pageHeight float64
}

// NewRenderer 校验模板至少有一页并记录第一页尺寸.
func NewRenderer(template []byte, opts Options) (*Renderer, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("load template: %w", ErrNoPages)
	}

	dims, err := api.PageDims(bytes.NewReader(template), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	if len(dims) == 0 {
		return nil, fmt.Errorf("load template: %w", ErrNoPages)
	}

	return &Renderer{
		template:   template,
		opts:       opts.withDefaults(),
		pageWidth:  dims[0].Width,
		pageHeight: dims[0].Height,
	}, nil
}

// PageWidth 返回模板第一页宽度.
func (r *Renderer) PageWidth() float64 { return r.pageWidth }

// CenterX 返回宽度为 textWidth 的文本在宽度为 pageWidth 的页面上水平居中时的起点.
func CenterX(pageWidth, textWidth float64) float64 {
	return (pageWidth - textWidth) / 2
}

// TextWidth 返回 text 在给定字体和字号下的宽度.
func TextWidth(text, fontName string, fontSize int) float64 {
	return font.TextWidth(text, fontName, fontSize)
}

// CheckName 检查 name 能否原样盖印.
// pdfcpu 把 stamp 文本当作模板：% 开头的序列会被替换或吞掉，\n 与换行会拆成多行，
// 这些字符无法转义，只能拒绝.
func CheckName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrUnsupportedName)
	}

	if strings.ContainsRune(name, '%') {
		return fmt.Errorf("%w: %q contains '%%'", ErrUnsupportedName, name)
	}

	if strings.Contains(name, `\n`) {
		return fmt.Errorf("%w: %q contains a \\n sequence", ErrUnsupportedName, name)
	}

	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q contains control characters", ErrUnsupportedName, name)
	}

	return nil
}

// BaselinePad 返回 pdfcpu 在 stamp 框底边与文字基线之间留出的距离（字体下降值向上取整）.
func BaselinePad(fontName string, fontSize int) float64 {
	return math.Ceil(font.Descent(fontName, fontSize))
}

// Layout 计算 name 的绘制位置，Y 为基线.
func (r *Renderer) Layout(name string) Placement {
	w := TextWidth(name, r.opts.FontName, r.opts.FontSize)

	return Placement{
		X:          CenterX(r.pageWidth, w),
		Y:          r.opts.NameY,
		FontSize:   r.opts.FontSize,
		TextWidth:  w,
		PageWidth:  r.pageWidth,
		PageHeight: r.pageHeight,
	}
}

// Render 从模板的新副本生成一份盖印了 name 的 PDF.
func (r *Renderer) Render(ctx context.Context, name string) ([]byte, Placement, error) {
	_, span := tracing.StartSpan(ctx, "render.certificate", trace.WithAttributes(
		attribute.String("certificate.name", name),
	))

	out, p, err := r.render(name)
	tracing.EndSpan(span, err)

	return out, p, err
}

func (r *Renderer) render(name string) ([]byte, Placement, error) {
	p := r.Layout(name)

	if err := CheckName(name); err != nil {
		return nil, p, err
	}

	wm, err := api.TextWatermark(name, r.describe(p), true, false, types.POINTS)
	if err != nil {
		return nil, p, fmt.Errorf("build stamp for %q: %w", name, err)
	}

	var out bytes.Buffer

	// 每次都包装一个新的 Reader，pdfcpu 在自己的上下文中解析模板
	if err := api.AddWatermarks(bytes.NewReader(r.template), &out, []string{"1"}, wm, model.NewDefaultConfiguration()); err != nil {
		return nil, p, fmt.Errorf("stamp %q: %w", name, err)
	}

	return out.Bytes(), p, nil
}

// describe 生成 pdfcpu 的 stamp 描述：左下角锚点 + 绝对偏移，字号不随页面缩放，不旋转，纯黑.
// 偏移定位的是 stamp 框底边，减去 BaselinePad 后基线落在 p.Y.
func (r *Renderer) describe(p Placement) string {
	return fmt.Sprintf(
		"fontname:%s, points:%d, position:bl, offset:%s %s, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1",
		r.opts.FontName, p.FontSize, coord(p.X), coord(p.Y-BaselinePad(r.opts.FontName, p.FontSize)),
	)
}

func coord(v float64) string {
	return fmt.Sprintf("%.2f", math.Round(v*100)/100)
}
