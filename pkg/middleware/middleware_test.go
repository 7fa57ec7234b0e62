package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/goleak"

	"github.com/yeisme/certvault/pkg/configs"
	ctxPkg "github.com/yeisme/certvault/pkg/context"
	"github.com/yeisme/certvault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, middleware.GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(middleware.RequestIDHeader)
	if id == "" || w.Body.String() != id {
		t.Fatalf("expected generated id, header=%q body=%q", id, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated id, got %q", got)
	}
}

func TestRequestIDOnContextLogger(t *testing.T) {
	var buf bytes.Buffer

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		l := ctxPkg.Logger(c.Request.Context()).Output(&buf)
		l.Info().Msg("handled")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-42"`)) {
		t.Fatalf("request id missing from log line: %s", buf.String())
	}
}

func TestRateLimitGlobal(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2, Key: "global"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: false}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
}

func TestRateLimitPerHeaderAndExempt(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{
		Enabled: true, RPS: 1, Burst: 1, Key: "header:X-Client", Exempt: []string{"/api/v1/health"},
	}))
	r.GET("/all-certificates", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/health/db", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path, client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Client", client)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w
	}

	if w := get("/all-certificates", "a"); w.Code != http.StatusOK {
		t.Fatalf("first request for a: %d", w.Code)
	}

	w := get("/all-certificates", "a")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second request for a: %d retry-after=%q", w.Code, w.Header().Get("Retry-After"))
	}

	// 不同客户端各自计数
	if w := get("/all-certificates", "b"); w.Code != http.StatusOK {
		t.Fatalf("first request for b: %d", w.Code)
	}

	for i := 0; i < 3; i++ {
		if w := get("/api/v1/health/db", "a"); w.Code != http.StatusOK {
			t.Fatalf("exempt path limited: %d", w.Code)
		}
	}
}
