package ingestion

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/guttosm/spimexpulse/internal/logger"
)

const (
	defaultMaxConns  = 15
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "spimexpulse/1.0"
)

// FetcherOptions configures the HTTP fetcher.
type FetcherOptions struct {
	MaxConns  int           // ceiling on requests in flight, shared by pages and documents
	Timeout   time.Duration // per request, body read included
	UserAgent string
	RateLimit float64 // requests per second; 0 disables throttling
}

// Fetcher issues single-shot GET requests (no retry) for listing pages and
// bulletin documents. All requests share one connection ceiling.
type Fetcher struct {
	client    *http.Client
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher creates a Fetcher; zero options fall back to defaults.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.MaxConns <= 0 {
		opts.MaxConns = defaultMaxConns
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = opts.MaxConns
	transport.MaxIdleConnsPerHost = opts.MaxConns

	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		sem:       semaphore.NewWeighted(int64(opts.MaxConns)),
		limiter:   limiter,
		userAgent: opts.UserAgent,
	}
}

// FetchPage downloads a listing page and returns it decoded to UTF-8.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string, query url.Values) (string, error) {
	body, contentType, err := f.get(ctx, rawURL, query)
	if err != nil {
		return "", err
	}
	return decodeText(body, contentType), nil
}

// FetchDocument downloads a binary bulletin.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := f.get(ctx, rawURL, nil)
	return body, err
}

func (f *Fetcher) get(ctx context.Context, rawURL string, query url.Values) ([]byte, string, error) {
	target := rawURL
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		target = rawURL + sep + query.Encode()
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}
	defer f.sem.Release(1)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, "", &FetchError{URL: target, Err: fmt.Errorf("rate limiter wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	logger.L().Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")
	return body, resp.Header.Get("Content-Type"), nil
}

// decodeText converts body to UTF-8 using the charset from contentType.
// Unknown charsets are passed through untouched.
func decodeText(body []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}
	cs := strings.ToLower(strings.TrimSpace(params["charset"]))
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return string(body)
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		logger.L().Warn().Str("charset", cs).Msg("unsupported charset, using raw body")
		return string(body)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		logger.L().Warn().Str("charset", cs).Err(err).Msg("charset decode failed, using raw body")
		return string(body)
	}
	return string(out)
}
