// Package optimizer implements the radius optimizer (C8): a two-phase
// protocol that locks a working (center, pagination) configuration at
// a fixed probe radius, then sweeps the radius ladder keeping whichever
// value returns the most stores.
package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/watchdna/storeharvester/pkg/executor"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
)

// probeRadius is the fixed radius used while locking a configuration
// in phase 1, before the phase-2 sweep begins.
const probeRadius = 2000

// radiusLadder is swept, in order, during phase 2, keeping whichever
// value returns the most stores.
var radiusLadder = []int{500, 1000, 2000, 5000, 10000, 25000}

// centerStrategy is one (lat, lng) a radius back end might expect a
// request centered on.
type centerStrategy struct {
	name     string
	lat, lng float64
}

// paginationCombo is one (limit param, offset param) pair a radius
// endpoint might use to bound its page size. A zero-value combo means
// "no pagination" — leave the URL's pagination params untouched.
type paginationCombo struct {
	limitKey, offsetKey string
	limitVal, offsetVal string
}

// buildCenterStrategies tries the target URL's own existing lat/lng
// first — a radius back end that filters on the coordinates actually
// supplied will only ever return data for its own center — and falls
// back to (0, 0) if the URL carries no parseable lat/lng.
func buildCenterStrategies(base *url.URL, latKey, lngKey string) []centerStrategy {
	strategies := make([]centerStrategy, 0, 2)
	q := base.Query()
	if lat, err := strconv.ParseFloat(q.Get(latKey), 64); err == nil {
		if lng, err := strconv.ParseFloat(q.Get(lngKey), 64); err == nil {
			strategies = append(strategies, centerStrategy{"as_given", lat, lng})
		}
	}
	strategies = append(strategies, centerStrategy{"null_island", 0, 0})
	return strategies
}

// buildPaginationCombos tries whichever pagination param the URL
// already carries first, then the generic (per|per_page|limit,
// offset, 50, 0) combos, then "no pagination", deduplicated in order.
func buildPaginationCombos(base *url.URL) []paginationCombo {
	q := base.Query()
	combos := make([]paginationCombo, 0, 4)
	switch {
	case q.Has("per"):
		combos = append(combos, paginationCombo{"per", "offset", "50", "0"})
	case q.Has("per_page"):
		combos = append(combos, paginationCombo{"per_page", "offset", "50", "0"})
	case q.Has("limit"):
		combos = append(combos, paginationCombo{"limit", "offset", "50", "0"})
	}
	combos = append(combos,
		paginationCombo{"per", "offset", "50", "0"},
		paginationCombo{"per_page", "offset", "50", "0"},
		paginationCombo{"limit", "offset", "50", "0"},
		paginationCombo{},
	)
	return dedupCombos(combos)
}

func dedupCombos(combos []paginationCombo) []paginationCombo {
	seen := map[paginationCombo]bool{}
	out := make([]paginationCombo, 0, len(combos))
	for _, c := range combos {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func applyCombo(q url.Values, combo paginationCombo) {
	if combo.limitKey == "" {
		return
	}
	q.Set(combo.limitKey, combo.limitVal)
	q.Set(combo.offsetKey, combo.offsetVal)
}

// Result is what a radius optimization run publishes.
type Result struct {
	OptimizedURL    string
	RadiusUsed      int
	CenterUsed      string
	TestedVariants  int
	BestStoreCount  int
	Verified        bool
}

// Optimize runs the two-phase protocol against targetURL, which must
// already carry the back end's lat/lng/radius parameter names (as
// produced by the classifier).
func Optimize(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL, dataPath string, latKey, lngKey, radiusKey string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(targetURL)
	if err != nil {
		return Result{}, err
	}

	tested := 0
	var lockedCenter string
	var lockedCombo paginationCombo
	var lockedLat, lockedLng float64
	locked := false

	centers := buildCenterStrategies(base, latKey, lngKey)
	combos := buildPaginationCombos(base)

	for _, center := range centers {
		for _, combo := range combos {
			tested++
			u := *base
			q := u.Query()
			q.Set(latKey, fmt.Sprintf("%.6f", center.lat))
			q.Set(lngKey, fmt.Sprintf("%.6f", center.lng))
			q.Set(radiusKey, fmt.Sprintf("%d", probeRadius))
			applyCombo(q, combo)
			u.RawQuery = q.Encode()

			payload, err := fetcher.Fetch(ctx, u.String(), nil)
			if err != nil {
				continue
			}
			count := countRecords(payload, dataPath)
			if count > 0 {
				lockedCenter, lockedCombo = center.name, combo
				lockedLat, lockedLng = center.lat, center.lng
				locked = true
				break
			}
		}
		if locked {
			break
		}
	}

	if !locked {
		logger.Warn("radius optimizer could not lock a configuration returning any stores",
			"url", targetURL, "tested_variants", tested)
		return Result{
			OptimizedURL:   targetURL,
			RadiusUsed:     probeRadius,
			TestedVariants: tested,
			Verified:       false,
		}, nil
	}

	bestRadius := probeRadius
	bestCount := 0
	for _, radius := range radiusLadder {
		tested++
		u := *base
		q := u.Query()
		q.Set(latKey, fmt.Sprintf("%.6f", lockedLat))
		q.Set(lngKey, fmt.Sprintf("%.6f", lockedLng))
		q.Set(radiusKey, fmt.Sprintf("%d", radius))
		applyCombo(q, lockedCombo)
		u.RawQuery = q.Encode()

		payload, err := fetcher.Fetch(ctx, u.String(), nil)
		if err != nil {
			continue
		}
		count := countRecords(payload, dataPath)
		if count > bestCount {
			bestCount = count
			bestRadius = radius
		}
	}

	u := *base
	q := u.Query()
	q.Set(latKey, fmt.Sprintf("%.6f", lockedLat))
	q.Set(lngKey, fmt.Sprintf("%.6f", lockedLng))
	q.Set(radiusKey, fmt.Sprintf("%d", bestRadius))
	applyCombo(q, lockedCombo)
	u.RawQuery = q.Encode()

	return Result{
		OptimizedURL:   u.String(),
		RadiusUsed:     bestRadius,
		CenterUsed:     lockedCenter,
		TestedVariants: tested,
		BestStoreCount: bestCount,
		Verified:       true,
	}, nil
}

func countRecords(payload httpfetch.Payload, dataPath string) int {
	return len(executor.ExtractRecords(payload, dataPath))
}
