// Package harvest implements the harvest orchestrator (C9): the single
// entry point that turns a brand's store-locator URL into canonical
// records by driving every other component in sequence.
package harvest

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/watchdna/storeharvester/pkg/canonical"
	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/config"
	"github.com/watchdna/storeharvester/pkg/executor"
	"github.com/watchdna/storeharvester/pkg/fieldmap"
	"github.com/watchdna/storeharvester/pkg/geocode"
	"github.com/watchdna/storeharvester/pkg/herrors"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/monitoring"
	"github.com/watchdna/storeharvester/pkg/normalize"
	"github.com/watchdna/storeharvester/pkg/optimizer"
	"github.com/watchdna/storeharvester/pkg/rawtree"
	"github.com/watchdna/storeharvester/pkg/tracing"
)

// Config is everything a single harvest needs beyond the shared
// Fetcher/Geocoder: the seed endpoint and whatever the brand config
// knows about it up front.
type Config struct {
	BrandID      string
	URL          string
	DataPath     string
	Region       string            // viewport executor only; "" -> world
	Countries    []string          // country executor override; nil -> WatchIndustryCountries
	CountryIDMap map[string]string // country executor ISO->back-end-ID map
	Headers      map[string]string

	// ForcePattern skips auto-classification and drives the executor
	// selection directly; "" lets the classifier decide.
	ForcePattern classify.Pattern

	// FieldMap, when supplied, overrides auto-inference per canonical
	// field; a field absent here still falls back to inference.
	FieldMap map[string]config.FieldSpec
}

// Result is everything one Harvest call produces.
type Result struct {
	Records  []canonical.Record
	Excluded []canonical.Excluded
	Stats    executor.Stats
	Profile  classify.Profile
}

// Harvester owns the shared Fetcher and Geocoder adapters for one
// run (or one long-lived process serving many runs) and drives the
// 6-step pipeline: probe, classify, optimize (radius only), execute,
// infer field map, normalize.
type Harvester struct {
	Fetcher  *httpfetch.Fetcher
	Geocoder geocode.Adapter
	Logger   *slog.Logger
}

// New creates a Harvester. geocoder may be nil (treated as
// geocode.None{}).
func New(fetcher *httpfetch.Fetcher, geocoder geocode.Adapter, logger *slog.Logger) *Harvester {
	if geocoder == nil {
		geocoder = geocode.None{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{Fetcher: fetcher, Geocoder: geocoder, Logger: logger}
}

// Harvest runs the full pipeline against cfg.URL.
func (h *Harvester) Harvest(ctx context.Context, cfg Config) (Result, error) {
	ctx, span := tracing.StartSpan(ctx, "harvest.run",
		trace.WithAttributes(attribute.String("harvest.brand", cfg.BrandID)))
	defer span.End()
	start := time.Now()

	payload, err := h.Fetcher.Fetch(ctx, cfg.URL, cfg.Headers)
	if err != nil {
		tracing.RecordError(ctx, err)
		monitoring.RecordError("harvest", string(herrors.CodeFor(err)))
		return Result{}, err
	}

	sample := sampleFromPayload(payload, cfg.DataPath)
	profile := classify.Classify(cfg.URL, sample)
	if cfg.ForcePattern != "" {
		profile.Pattern = cfg.ForcePattern
	}
	tracing.AddEvent(ctx, "classified", trace.WithAttributes(attribute.String("pattern", string(profile.Pattern))))

	targetURL := cfg.URL
	if profile.Pattern == classify.Radius {
		latKey, lngKey, radiusKey := radiusKeys(profile.ObservedParams)
		result, err := optimizer.Optimize(ctx, h.Fetcher, cfg.URL, cfg.DataPath, latKey, lngKey, radiusKey, h.Logger)
		if err != nil {
			tracing.RecordError(ctx, err)
			monitoring.RecordError("harvest", string(herrors.CodeFor(err)))
			return Result{}, err
		}
		if result.Verified {
			targetURL = result.OptimizedURL
		}
		h.Logger.Info("radius optimized",
			"brand", cfg.BrandID, "radius_used", result.RadiusUsed,
			"center", result.CenterUsed, "verified", result.Verified,
			"tested_variants", result.TestedVariants)
	}

	exec := executor.For(profile, h.Logger)
	switch e := exec.(type) {
	case *executor.Viewport:
		e.Region = cfg.Region
	case *executor.CountryExecutor:
		e.Countries = cfg.Countries
		e.CountryIDMap = cfg.CountryIDMap
	}

	raw, stats, err := exec.Execute(ctx, h.Fetcher, targetURL, cfg.DataPath, profile)
	if err != nil {
		tracing.RecordError(ctx, err)
		monitoring.RecordError("harvest", string(herrors.CodeFor(err)))
		return Result{}, err
	}

	monitoring.PagesWalked.WithLabelValues(cfg.BrandID, string(profile.Pattern)).Add(float64(stats.PagesWalked))
	monitoring.CellsVisited.WithLabelValues(cfg.BrandID).Add(float64(stats.CellsVisited))
	monitoring.DedupRejected.WithLabelValues(cfg.BrandID).Add(float64(stats.DedupRejected))

	sampleSize := len(raw)
	if sampleSize > 3 {
		sampleSize = 3
	}
	fm := fieldmap.Infer(raw[:sampleSize])

	baseURL := baseOf(cfg.URL)
	normalizer := normalize.New(cfg.BrandID, baseURL, h.Geocoder, h.Logger)
	normalizer.Explicit = cfg.FieldMap

	var records []canonical.Record
	var excluded []canonical.Excluded
	for _, r := range raw {
		rec, exc := normalizer.Normalize(ctx, r, fm)
		if exc != nil {
			excluded = append(excluded, *exc)
			monitoring.RecordExclusion(cfg.BrandID, exc.Reason)
			continue
		}
		records = append(records, rec)
	}

	tracing.AddEvent(ctx, "harvest_complete", trace.WithAttributes(
		attribute.Int("records", len(records)), attribute.Int("excluded", len(excluded))))
	monitoring.RecordHarvest(cfg.BrandID, string(profile.Pattern), time.Since(start), len(records), len(excluded))

	return Result{
		Records:  records,
		Excluded: excluded,
		Stats:    stats,
		Profile:  profile,
	}, nil
}

func radiusKeys(observed map[string]string) (lat, lng, radius string) {
	lat, lng, radius = "lat", "lng", "radius"
	for k := range observed {
		switch k {
		case "latitude":
			lat = k
		case "longitude":
			lng = k
		case "distance", "r":
			radius = k
		}
	}
	return
}

func sampleFromPayload(payload httpfetch.Payload, dataPath string) *classify.Sample {
	if !payload.IsJSON {
		return nil
	}
	s := &classify.Sample{}
	records := executor.ExtractRecords(payload, dataPath)
	s.ReturnedCount = len(records)

	root := rawtree.New(payload.JSON)
	for _, k := range []string{"total", "totalCount", "count", "total_count"} {
		if v, ok := root.Leaf(k); ok {
			if n, err := strconv.Atoi(v); err == nil {
				s.DeclaredTotal = n
				break
			}
		}
	}
	for _, k := range []string{"hasMore", "has_more", "more"} {
		if v, ok := root.Leaf(k); ok {
			s.HasMore = v == "true" || v == "1"
			break
		}
	}
	for _, k := range []string{"next", "nextUrl", "next_url"} {
		if _, ok := root.Leaf(k); ok {
			s.HasNext = true
			break
		}
	}
	for _, k := range []string{"nextPageToken", "next_page_token", "pageToken", "cursor"} {
		if v, ok := root.Leaf(k); ok && v != "" {
			s.HasPageToken = true
			break
		}
	}
	return s
}

func baseOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.Path, u.RawQuery, u.Fragment = "", "", ""
	return u.String()
}
