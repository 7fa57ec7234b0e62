// Package service 实现证书的批量生成与查询业务逻辑，不处理 HTTP 细节.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/certvault/pkg/cache"
	"github.com/yeisme/certvault/pkg/configs"
	ctxPkg "github.com/yeisme/certvault/pkg/context"
	"github.com/yeisme/certvault/pkg/internal/model"
	"github.com/yeisme/certvault/pkg/internal/storage"
	"github.com/yeisme/certvault/pkg/metrics"
	"github.com/yeisme/certvault/pkg/tracing"
)

// AllCertificatesKey 查询缓存中全部证书列表的键.
const AllCertificatesKey = "certificates:all"

// ErrStoreUnavailable 存储未初始化或熔断器打开.
var ErrStoreUnavailable = errors.New("certificate store unavailable")

// queryBreaker 进程级熔断器，跨请求保留状态；nil 表示未启用.
var queryBreaker atomic.Pointer[gobreaker.CircuitBreaker]

// SetupBreaker 按配置创建查询熔断器. 熔断只让失败更快返回，不做重试.
func SetupBreaker(cfg configs.CircuitBreakerConfig) {
	if !cfg.Enabled {
		queryBreaker.Store(nil)

		return
	}

	queryBreaker.Store(gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "certificate-store",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
	}))
}

// CertificateService 证书查询服务.
type CertificateService struct {
	store storage.CertificateStore
	cache *cache.Cache
	ttl   time.Duration
}

// NewCertificateService 从 context 获取依赖实例.
func NewCertificateService(c context.Context) *CertificateService {
	svc := &CertificateService{}

	if mgr := ctxPkg.GetManager(c); mgr != nil {
		svc.store = mgr.Store
		svc.cache = mgr.Cache
		svc.ttl = mgr.CacheTTL
	}

	return svc
}

// NewCertificateServiceWith 直接指定依赖，cache 可为 nil.
func NewCertificateServiceWith(store storage.CertificateStore, c *cache.Cache, ttl time.Duration) *CertificateService {
	return &CertificateService{store: store, cache: c, ttl: ttl}
}

// ListCertificates 返回全部证书记录，不过滤不排序. 单次尝试.
func (s *CertificateService) ListCertificates(ctx context.Context) ([]model.Certificate, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}

	ctx, span := tracing.StartSpan(ctx, "certificates.find_all")

	find := func(ctx context.Context) ([]model.Certificate, error) {
		defer metrics.StoreTimer("find_all")()

		cb := queryBreaker.Load()
		if cb == nil {
			return s.store.FindAllCertificates(ctx)
		}

		v, err := cb.Execute(func() (any, error) {
			return s.store.FindAllCertificates(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		certs, _ := v.([]model.Certificate)

		return certs, err
	}

	var (
		certs []model.Certificate
		err   error
	)

	if s.cache != nil {
		certs, err = cache.GetOrSet(ctx, s.cache, AllCertificatesKey, find, s.ttl)
	} else {
		certs, err = find(ctx)
	}

	tracing.EndSpan(span, err)

	return certs, err
}
