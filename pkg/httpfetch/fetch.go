// Package httpfetch implements the harvester's content-negotiated
// fetcher: a GET with retry/backoff, JSON/HTML content negotiation,
// and JSONP unwrapping.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/watchdna/storeharvester/pkg/cache"
	"github.com/watchdna/storeharvester/pkg/herrors"
	"github.com/watchdna/storeharvester/pkg/monitoring"
	"github.com/watchdna/storeharvester/pkg/tracing"
)

const cacheType = "fetch_response"

// Payload is the result of a fetch: either decoded JSON or raw text,
// never both.
type Payload struct {
	JSON        interface{}
	Text        string
	IsJSON      bool
	ContentType string
}

// retryableStatus are the status codes the fetcher retries, in
// addition to transport errors.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var apiLikeHints = []string{"/api/", "stores.", "store.", "locator"}

// Fetcher performs content-negotiated GETs with retry/backoff, one
// rate limiter per host, and an optional short-lived response cache
// to avoid re-fetching a URL the classifier already probed.
type Fetcher struct {
	Client     *http.Client
	UserAgent  string
	Timeout    time.Duration
	Logger     *slog.Logger
	respCache  *cache.TTLCache
	limitersMu map[string]*rate.Limiter
}

// New creates a Fetcher with the harvester's defaults: 120s timeout,
// a connection-pooling client, and a 30-second response cache.
func New(userAgent string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		Client: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		UserAgent:  userAgent,
		Timeout:    120 * time.Second,
		Logger:     logger,
		respCache:  cache.NewTTLCache(30*time.Second, 10*time.Second, 256),
		limitersMu: make(map[string]*rate.Limiter),
	}
}

// Close stops the fetcher's background cache cleanup goroutine.
func (f *Fetcher) Close() { f.respCache.Stop() }

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	if l, ok := f.limitersMu[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(4), 4)
	f.limitersMu[host] = l
	return l
}

// Fetch performs a content-negotiated GET against rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) (Payload, error) {
	if cached, ok := f.respCache.Get(rawURL); ok {
		f.Logger.Debug("fetch cache hit", "url", rawURL)
		monitoring.CacheHits.WithLabelValues(cacheType).Inc()
		return cached.(Payload), nil
	}
	monitoring.CacheMisses.WithLabelValues(cacheType).Inc()

	u, err := url.Parse(rawURL)
	if err != nil {
		return Payload{}, herrors.New(herrors.ErrInvalidInput, "invalid URL").WithGuidance(err.Error())
	}

	wantJSON := looksAPILike(rawURL)
	payload, err := f.fetchOnce(ctx, rawURL, headers, wantJSON, u.Host)
	if err != nil {
		return Payload{}, err
	}

	// If we asked for JSON-like content but the server handed us HTML,
	// re-issue with an explicit Accept header once.
	if wantJSON && !payload.IsJSON && looksLikeHTML(payload.Text) {
		retryHeaders := map[string]string{"Accept": "application/json"}
		for k, v := range headers {
			retryHeaders[k] = v
		}
		if p2, err2 := f.fetchOnce(ctx, rawURL, retryHeaders, true, u.Host); err2 == nil && p2.IsJSON {
			payload = p2
		}
	}

	f.respCache.Set(rawURL, payload)
	return payload, nil
}

func looksAPILike(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, hint := range apiLikeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(strings.ToLower(trimmed), "<!doctype") ||
		strings.HasPrefix(strings.ToLower(trimmed), "<html")
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, headers map[string]string, wantJSON bool, host string) (Payload, error) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("http.fetch %s", host),
		trace.WithAttributes(
			attribute.String(tracing.AttrHTTPMethod, http.MethodGet),
			attribute.String(tracing.AttrHTTPURL, rawURL),
			attribute.String(tracing.AttrHTTPHost, host),
		),
	)
	defer span.End()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2.0
	b.MaxInterval = 8 * time.Second
	b.RandomizationFactor = 0

	attempt := 0
	resp, err := backoff.Retry(ctx, func() (*http.Response, error) {
		if attempt > 0 {
			monitoring.RecordFetchRetry(host)
		}
		attempt++

		if err := f.limiterFor(host).Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", f.UserAgent)
		if wantJSON {
			req.Header.Set("Accept", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.Client.Do(req)
		if err != nil {
			f.Logger.Debug("fetch transport error", "url", rawURL, "error", err)
			return nil, err
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			svcErr := herrors.ServiceError(tracing.ServiceFetcher, resp.StatusCode, fmt.Errorf("%s", string(body)))
			if !retryableStatus[resp.StatusCode] {
				return nil, backoff.Permanent(svcErr)
			}
			return nil, svcErr
		}
		return resp, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(4))

	if err != nil {
		tracing.RecordError(ctx, err)
		span.SetStatus(codes.Error, "fetch failed")
		return Payload{}, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))
	span.SetStatus(codes.Ok, "")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Payload{}, herrors.Wrap(herrors.ErrNetworkError, "reading response body", err)
	}

	return decodeBody(body, resp.Header.Get("Content-Type")), nil
}

func decodeBody(body []byte, contentType string) Payload {
	text := string(body)

	if unwrapped, ok := unwrapJSONP(text); ok {
		text = unwrapped
	}

	if v, ok := decodeJSON(text); ok {
		return Payload{JSON: v, IsJSON: true, ContentType: contentType}
	}

	return Payload{Text: text, IsJSON: false, ContentType: contentType}
}
