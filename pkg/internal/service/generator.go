package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/certvault/pkg/internal/model"
	"github.com/yeisme/certvault/pkg/internal/render"
	"github.com/yeisme/certvault/pkg/internal/slug"
	"github.com/yeisme/certvault/pkg/internal/storage"
	nlog "github.com/yeisme/certvault/pkg/log"
	"github.com/yeisme/certvault/pkg/metrics"
	"github.com/yeisme/certvault/pkg/tracing"
)

// Renderer 把姓名盖印到模板上，*render.Renderer 实现该接口.
type Renderer interface {
	Render(ctx context.Context, name string) ([]byte, render.Placement, error)
}

// Entry 一个已完成的名字.
type Entry struct {
	Name      string             `json:"name"`
	File      string             `json:"file"`
	FilePath  string             `json:"filePath"`
	Size      int                `json:"size"`
	Placement render.Placement   `json:"placement"`
	Record    *model.Certificate `json:"record,omitempty"`
}

// Report 一次批量生成的结果；失败时只包含失败前已完成的条目.
type Report struct {
	Total    int           `json:"total"`
	Entries  []Entry       `json:"entries"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Generator 顺序地为每个名字渲染、写文件、upsert 记录.
type Generator struct {
	store        storage.CertificateStore
	files        storage.FileStore
	renderer     Renderer
	publicPrefix string
	logger       *zerolog.Logger
}

// NewGenerator 创建生成器，publicPrefix 为证书对外路径前缀，例如 /certificates.
func NewGenerator(store storage.CertificateStore, files storage.FileStore, renderer Renderer, publicPrefix string) *Generator {
	return &Generator{
		store:        store,
		files:        files,
		renderer:     renderer,
		publicPrefix: publicPrefix,
		logger:       nlog.Logger(),
	}
}

// WithLogger 替换日志输出.
func (g *Generator) WithLogger(logger *zerolog.Logger) *Generator {
	g.logger = logger

	return g
}

// Run 按顺序处理 names. 第一个错误即中止整个批次，已处理的名字保持持久化，不回滚.
// 空列表直接返回空报告.
func (g *Generator) Run(ctx context.Context, names []string) (*Report, error) {
	report := &Report{Total: len(names), Entries: make([]Entry, 0, len(names)), Started: time.Now()}

	defer func() { report.Duration = time.Since(report.Started) }()

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("generation interrupted before %q: %w", name, err)
		}

		entry, err := g.generateOne(ctx, name)
		if err != nil {
			return report, fmt.Errorf("certificate %d/%d %q: %w", i+1, len(names), name, err)
		}

		report.Entries = append(report.Entries, entry)
		metrics.CertificatesGenerated.Inc()

		g.logger.Info().
			Int("index", i+1).
			Int("total", len(names)).
			Str("name", name).
			Str("file_path", entry.FilePath).
			Float64("x", entry.Placement.X).
			Msg("certificate generated")
	}

	return report, nil
}

func (g *Generator) generateOne(ctx context.Context, name string) (entry Entry, err error) {
	ctx, span := tracing.StartSpan(ctx, "certificates.generate", trace.WithAttributes(
		attribute.String("certificate.name", name),
	))
	defer func() { tracing.EndSpan(span, err) }()

	file := slug.FileName(name)
	entry = Entry{Name: name, File: file, FilePath: slug.PublicPath(g.publicPrefix, file)}

	data, placement, err := g.renderer.Render(ctx, name)
	if err != nil {
		return entry, fmt.Errorf("render: %w", err)
	}

	entry.Placement = placement
	entry.Size = len(data)

	if err := g.files.Put(ctx, file, data); err != nil {
		return entry, fmt.Errorf("write %s: %w", file, err)
	}

	stop := metrics.StoreTimer("upsert")
	record, err := g.store.UpsertCertificate(ctx, name, entry.FilePath)
	stop()

	if err != nil {
		return entry, fmt.Errorf("upsert: %w", err)
	}

	entry.Record = record

	return entry, nil
}
