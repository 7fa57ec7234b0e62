package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/model"
	"github.com/yeisme/certvault/pkg/internal/render"
	"github.com/yeisme/certvault/pkg/internal/storage/db"
	"github.com/yeisme/certvault/pkg/internal/storage/local"
)

// memStore 内存版证书存储，按 name upsert.
type memStore struct {
	mu       sync.Mutex
	records  []model.Certificate
	findErr  error
	findHits int
}

func (m *memStore) UpsertCertificate(_ context.Context, name, filePath string) (*model.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].Name == name {
			m.records[i].FilePath = filePath
			c := m.records[i]

			return &c, nil
		}
	}

	c := model.Certificate{ID: model.NewID(time.Now()), Name: name, FilePath: filePath}
	m.records = append(m.records, c)

	return &c, nil
}

func (m *memStore) FindAllCertificates(context.Context) ([]model.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findHits++

	if m.findErr != nil {
		return nil, m.findErr
	}

	return append([]model.Certificate(nil), m.records...), nil
}

func (m *memStore) HealthCheck(context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

func newSQLiteStore(t *testing.T) *db.Client {
	t.Helper()

	c, err := db.New(context.Background(), &configs.DBConfig{
		Type:           configs.SQLite,
		URI:            "file:" + filepath.Join(t.TempDir(), "certvault.db"),
		Collection:     configs.DefaultCollection,
		ConnectTimeout: 5,
	}, db.Options{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func newDir(t *testing.T) (*local.Dir, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "certificates")

	d, err := local.New(&configs.LocalConfig{Dir: root})
	if err != nil {
		t.Fatalf("local dir: %v", err)
	}

	return d, root
}

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()

	r, err := render.NewRenderer(render.BlankTemplate(render.A4LandscapeWidth, render.A4LandscapeHeight), render.Options{})
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	return r
}

func pdfFiles(t *testing.T, root string) []string {
	t.Helper()

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}

	var out []string

	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".pdf") {
			out = append(out, e.Name())
		}
	}

	return out
}

// failingRenderer 在指定名字上失败.
type failingRenderer struct {
	inner  *render.Renderer
	failOn string
}

func (f failingRenderer) Render(ctx context.Context, name string) ([]byte, render.Placement, error) {
	if name == f.failOn {
		return nil, render.Placement{}, errors.New("boom")
	}

	return f.inner.Render(ctx, name)
}
