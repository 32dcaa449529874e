package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys used on harvest spans.
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPURL        = "http.url"
	AttrHTTPHost       = "http.host"

	AttrServiceName      = "harvest.service.name"
	AttrServiceOperation = "harvest.service.operation"

	AttrCacheType = "harvest.cache.type"
	AttrCacheHit  = "harvest.cache.hit"
	AttrCacheKey  = "harvest.cache.key"

	AttrRateLimitService = "harvest.ratelimit.service"
	AttrRateLimitWaitMs  = "harvest.ratelimit.wait_ms"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values recorded on spans.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Service names used consistently across spans and metrics.
const (
	ServiceFetcher  = "fetcher"
	ServiceGeocoder = "geocoder"
)

// Cache types used consistently across spans and metrics.
const (
	CacheTypeGeocode = "geocode"
	CacheTypeFetch   = "fetch"
)

// CacheAttributes returns attributes for a cache lookup.
func CacheAttributes(cacheType string, hit bool, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheType, cacheType),
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	}
}

// ErrorAttributes returns attributes describing err.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
