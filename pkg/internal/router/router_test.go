package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/model"
	"github.com/yeisme/certvault/pkg/internal/router"
	"github.com/yeisme/certvault/pkg/internal/storage"
	"github.com/yeisme/certvault/pkg/internal/storage/local"
	"github.com/yeisme/certvault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	records []model.Certificate
	err     error
}

func (f *fakeStore) UpsertCertificate(context.Context, string, string) (*model.Certificate, error) {
	return nil, errors.New("read only")
}

func (f *fakeStore) FindAllCertificates(context.Context) ([]model.Certificate, error) {
	return f.records, f.err
}

func (f *fakeStore) HealthCheck(context.Context) error { return f.err }
func (f *fakeStore) Close() error                      { return nil }

func newEngine(t *testing.T, store *fakeStore) (*gin.Engine, string) {
	t.Helper()

	public := t.TempDir()
	if err := os.WriteFile(filepath.Join(public, "index.html"), []byte("<html>certvault</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(public, "js"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(public, "js", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := local.New(&configs.LocalConfig{Dir: filepath.Join(public, "certificates")})
	if err != nil {
		t.Fatal(err)
	}

	if err := files.Put(context.Background(), "sertifikat-ahmad-fauzi.pdf", []byte("%PDF-1.7 test")); err != nil {
		t.Fatal(err)
	}

	cfg := &configs.AppConfig{}
	cfg.Server.PublicDir = public
	cfg.Generator.PublicPrefix = "/certificates"

	mgr := &storage.Manager{Store: store, Files: files}

	r := gin.New()
	r.Use(middleware.StorageMiddleware(mgr))
	router.Register(r, cfg)

	return r, public
}

func do(r http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAllCertificatesEmpty(t *testing.T) {
	r, _ := newEngine(t, &fakeStore{})

	w := do(r, http.MethodGet, "/all-certificates", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["message"] == "" {
		t.Fatalf("expected message body, got %q", w.Body.String())
	}
}

func TestAllCertificates(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{records: []model.Certificate{
		{ID: "1", Name: "Ahmad Fauzi", FilePath: "/certificates/sertifikat-ahmad-fauzi.pdf", CreatedAt: now, UpdatedAt: now},
		{ID: "2", Name: "Siti Nurhaliza", FilePath: "/certificates/sertifikat-siti-nurhaliza.pdf", CreatedAt: now, UpdatedAt: now},
	}}
	r, _ := newEngine(t, store)

	w := do(r, http.MethodGet, "/all-certificates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	for _, rec := range got {
		if rec["name"] == nil || rec["filePath"] == nil {
			t.Fatalf("record missing name/filePath: %v", rec)
		}
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	w = do(r, http.MethodGet, "/all-certificates", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
}

func TestAllCertificatesQueryError(t *testing.T) {
	r, _ := newEngine(t, &fakeStore{err: errors.New("connection refused")})

	w := do(r, http.MethodGet, "/all-certificates", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	// 固定信息，不泄露底层错误
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("error detail leaked: %s", w.Body.String())
	}
}

func TestLandingAndStatic(t *testing.T) {
	r, _ := newEngine(t, &fakeStore{})

	w := do(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "certvault") {
		t.Fatalf("landing page: %d %q", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/js/app.js", nil)
	if w.Code != http.StatusOK || w.Body.String() != "console.log(1)" {
		t.Fatalf("static asset: %d %q", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Fatalf("unexpected content type %q", ct)
	}

	for _, p := range []string{"/missing.css", "/js/", "/../etc/passwd"} {
		if w := do(r, http.MethodGet, p, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, w.Code)
		}
	}

	if w := do(r, http.MethodPost, "/js/app.js", nil); w.Code != http.StatusNotFound {
		t.Fatalf("POST static: expected 404, got %d", w.Code)
	}
}

func TestCertificateFile(t *testing.T) {
	r, _ := newEngine(t, &fakeStore{})

	w := do(r, http.MethodGet, "/certificates/sertifikat-ahmad-fauzi.pdf", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}

	if w.Body.String() != "%PDF-1.7 test" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}

	for _, p := range []string{"/certificates/sertifikat-nobody.pdf", "/certificates/notes.txt", "/certificates/Sertifikat-A.pdf"} {
		if w := do(r, http.MethodGet, p, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	r, _ := newEngine(t, &fakeStore{})

	for _, p := range []string{"/api/v1/health/db", "/api/v1/health/files"} {
		if w := do(r, http.MethodGet, p, nil); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, w.Code)
		}
	}

	r, _ = newEngine(t, &fakeStore{err: errors.New("down")})

	if w := do(r, http.MethodGet, "/api/v1/health/db", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
