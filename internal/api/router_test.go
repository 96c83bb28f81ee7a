package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/middleware"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockTradingService{results: []models.TradingResult{sampleResult()}}
	r := NewRouter(NewHandler(svc), RouterConfig{})

	for _, path := range []string{
		"/api/v1/trading/last_trading_dates",
		"/api/v1/trading/dynamics",
		"/api/v1/trading/trading_results",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected X-Request-ID header to be set", path)
		}
		if w.Header().Get(middleware.CacheStatusHeader) != "" {
			t.Fatalf("%s: cache header set without a cache", path)
		}
	}
}

func TestNewRouter_CachesTradingRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &memStore{data: map[string][]byte{}}
	svc := &mockTradingService{dates: []time.Time{time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}}
	calls := 0
	counting := &countingService{mockTradingService: svc, calls: &calls}

	r := NewRouter(NewHandler(counting), RouterConfig{
		Cache:       store,
		CachePrefix: "spimex-cache:",
		CacheTTL:    func(time.Time) (time.Duration, error) { return time.Minute, nil },
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/trading/last_trading_dates?limit=2", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status %d", w.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single service call, got %d", calls)
	}
	if _, ok := store.data["spimex-cache:GET:/api/v1/trading/last_trading_dates?limit=2"]; !ok {
		t.Fatalf("expected cache entry, have %v", store.data)
	}

	// health and swagger routes stay outside the cache group
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Header().Get(middleware.CacheStatusHeader) != "" {
		t.Fatalf("swagger should not be cached")
	}
}

func TestNewRouter_RateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&mockTradingService{}), RouterConfig{RateLimit: 0.001, RateBurst: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/trading/last_trading_dates", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

type countingService struct {
	*mockTradingService
	calls *int
}

func (c *countingService) LastTradingDates(ctx context.Context, offset, limit int) ([]time.Time, error) {
	*c.calls++
	return c.mockTradingService.LastTradingDates(ctx, offset, limit)
}
