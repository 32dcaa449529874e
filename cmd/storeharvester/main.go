// Command storeharvester fetches a brand's store-locator endpoint and
// writes a canonical, deduplicated CSV of its physical locations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/clean"
	"github.com/watchdna/storeharvester/pkg/config"
	"github.com/watchdna/storeharvester/pkg/csvio"
	"github.com/watchdna/storeharvester/pkg/geocode"
	"github.com/watchdna/storeharvester/pkg/harvest"
	"github.com/watchdna/storeharvester/pkg/herrors"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/monitoring"
	"github.com/watchdna/storeharvester/pkg/tracing"
	ver "github.com/watchdna/storeharvester/pkg/version"
)

const userAgent = "storeharvester/1.0 (+https://github.com/watchdna/storeharvester)"

func main() {
	var (
		targetURL       string
		outPath         string
		region          string
		pattern         string
		brandConfig     string
		brandID         string
		countryRef      string
		geocodeFallback bool
		validate        bool
		debug           bool
		metricsAddr     string
		showVersion     bool
	)

	flag.StringVar(&targetURL, "url", "", "store-locator URL to harvest")
	flag.StringVar(&outPath, "out", "stores.csv", "output CSV path")
	flag.StringVar(&region, "region", "", "viewport executor region preset (default world)")
	flag.StringVar(&pattern, "pattern", "", "force an interaction pattern instead of auto-classifying")
	flag.StringVar(&brandConfig, "brand-config", "", "path to a brand-configuration JSON file")
	flag.StringVar(&brandID, "brand", "", "brand id to look up within -brand-config")
	flag.StringVar(&countryRef, "country-ref", "", "path to a country reference JSON file")
	flag.BoolVar(&geocodeFallback, "geocode", false, "fall back to Nominatim when a record has no coordinates")
	flag.BoolVar(&validate, "validate", false, "validate every emitted record's coordinate pair before writing")
	flag.BoolVar(&debug, "debug", false, "enable debug logging and recording tracing")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on; empty disables it")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		info := ver.Get()
		fmt.Printf("storeharvester %s (commit %s, built %s, %s)\n", info.Version, info.Commit, info.BuildDate, info.GoVersion)
		return
	}

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if debug {
		shutdown := tracing.InitTracing()
		defer func() { _ = shutdown(context.Background()) }()
	}

	cfg, err := buildConfig(targetURL, region, pattern, brandConfig, brandID)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if countryRef != "" && len(cfg.Countries) == 0 {
		ref, err := config.LoadCountryReference(countryRef)
		if err != nil {
			logger.Error("configuration error", "error", err)
			os.Exit(1)
		}
		if codes := ref.CodesForRegion(region); codes != nil {
			cfg.Countries = codes
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 30 * time.Second}
		go func() {
			logger.Info("starting metrics server", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	fetcher := httpfetch.New(userAgent, logger)
	defer fetcher.Close()

	var geocoder geocode.Adapter = geocode.None{}
	if geocodeFallback {
		geocoder = geocode.NewNominatim(fetcher, logger)
	}

	h := harvest.New(fetcher, geocoder, logger)

	logger.Info("starting harvest", "url", cfg.URL, "brand", cfg.BrandID, "region", cfg.Region)
	result, err := h.Harvest(ctx, cfg)
	if err != nil {
		logger.Error("harvest failed", "error", err)
		os.Exit(1)
	}

	if err := writeOutput(outPath, cfg.BrandID, result, validate, logger); err != nil {
		logger.Error("writing output", "error", err)
		os.Exit(1)
	}

	logger.Info("harvest complete",
		"records", len(result.Records), "excluded", len(result.Excluded),
		"pattern", result.Profile.Pattern, "pages_walked", result.Stats.PagesWalked,
		"cells_visited", result.Stats.CellsVisited, "dedup_rejected", result.Stats.DedupRejected)

	if len(result.Excluded) > 0 {
		logger.Info("---- excluded records ----")
		for _, exc := range result.Excluded {
			addr := exc.Address
			if addr == "" {
				addr = "unavailable"
			}
			logger.Info("excluded", "name", exc.Name, "address", addr, "reason", exc.Reason)
		}
		logger.Info("---- end excluded records ----")
	}
}

// buildConfig resolves the CLI flags and an optional brand-config
// file into one harvest.Config. A configuration error here is fatal
// before any HTTP call is made.
func buildConfig(targetURL, region, pattern, brandConfigPath, brandID string) (harvest.Config, error) {
	cfg := harvest.Config{URL: targetURL, Region: region, BrandID: brandID, ForcePattern: classify.Pattern(pattern)}

	if brandConfigPath == "" {
		if cfg.URL == "" {
			return harvest.Config{}, herrors.New(herrors.ErrConfiguration, "-url is required when -brand-config is not set").
				WithSuggestions("pass -url <store-locator url>", "or pass -brand-config <path> -brand <id>")
		}
		if cfg.BrandID == "" {
			cfg.BrandID = "adhoc"
		}
		return cfg, nil
	}

	brands, err := config.LoadBrands(brandConfigPath)
	if err != nil {
		return harvest.Config{}, herrors.Wrap(herrors.ErrConfiguration, "loading brand config", err)
	}
	entry, ok := brands[brandID]
	if !ok {
		return harvest.Config{}, herrors.New(herrors.ErrConfiguration, fmt.Sprintf("brand %q not found in %s", brandID, brandConfigPath)).
			WithSuggestions("check -brand against the keys in -brand-config")
	}

	cfg.URL = entry.URL
	if targetURL != "" {
		cfg.URL = targetURL
	}
	if cfg.URL == "" {
		return harvest.Config{}, herrors.New(herrors.ErrConfiguration, fmt.Sprintf("brand %q has no url and -url was not set", brandID)).
			WithSuggestions("add a url to the brand entry, or pass -url to override it")
	}
	cfg.DataPath = entry.DataPath
	cfg.Headers = entry.Headers
	cfg.Countries = entry.Countries
	cfg.CountryIDMap = entry.CountryIDs
	cfg.FieldMap = entry.FieldMap
	if cfg.ForcePattern == "" && entry.Type != "" {
		cfg.ForcePattern = classify.Pattern(entry.Type)
	}
	return cfg, nil
}

// writeOutput writes result's records to path as CSV. When validate
// is set, any record whose coordinate pair fails clean.ValidCoordPair
// is dropped from the file and logged rather than written -- this is
// a final safety net, not expected to trigger given the normalizer
// already excludes records with missing coordinates.
func writeOutput(path, brandID string, result harvest.Result, validate bool, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csvio.NewWriter(f)
	for _, rec := range result.Records {
		if validate && !clean.ValidCoordPair(rec["Latitude"], rec["Longitude"]) {
			logger.Warn("dropping record with invalid coordinate pair at validate time",
				"name", rec["Name"], "lat", rec["Latitude"], "lng", rec["Longitude"])
			monitoring.RecordExclusion(brandID, "invalid coordinate pair at validate")
			continue
		}
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return nil
}
