package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/cache"
	"github.com/guttosm/spimexpulse/internal/logger"
)

// CacheStatusHeader reports HIT or MISS on cached routes.
const CacheStatusHeader = "X-Cache"

// TTLFunc computes the expiry for a response stored at now.
type TTLFunc func(now time.Time) (time.Duration, error)

// ResponseCache serves GET responses from store and stores 2xx bodies on a miss.
//
// Behavior:
//   - Key: <prefix>GET:<route>?<raw query>.
//   - Non-GET requests and a nil store pass straight through.
//   - Store failures are logged and bypassed; the request is never failed.
//   - Only 2xx responses with a body are stored, with ttl(time.Now()).
func ResponseCache(store cache.Store, prefix string, ttl TTLFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(prefix, c)
		ctx := c.Request.Context()

		cached, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.L().Warn().Str("key", key).Err(err).Msg("cache get failed, bypassing")
		}
		if ok {
			c.Header(CacheStatusHeader, "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}
		c.Header(CacheStatusHeader, "MISS")

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status < 200 || recorder.status > 299 || recorder.body.Len() == 0 {
			return
		}
		expiry, err := ttl(time.Now())
		if err != nil {
			logger.L().Warn().Str("key", key).Err(err).Msg("cache ttl failed, not storing")
			return
		}
		if err := store.Set(ctx, key, recorder.body.Bytes(), expiry); err != nil {
			logger.L().Warn().Str("key", key).Err(err).Msg("cache set failed")
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

func cacheKey(prefix string, c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return fmt.Sprintf("%s%s:%s?%s", prefix, c.Request.Method, route, c.Request.URL.RawQuery)
}
