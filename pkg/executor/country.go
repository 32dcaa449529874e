package executor

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// WatchIndustryCountries is the ISO 3166-1 alpha-2 list the country
// executor iterates by default: the set of countries a watch/jewelry
// retail locator plausibly has stores in. A brand config's own
// `countries` list, when present, overrides this.
var WatchIndustryCountries = []string{
	"US", "CA", "MX", "GB", "IE", "FR", "DE", "IT", "ES", "PT", "NL", "BE",
	"LU", "CH", "AT", "SE", "NO", "DK", "FI", "PL", "CZ", "HU", "GR", "RO",
	"BG", "HR", "SI", "SK", "EE", "LV", "LT", "RU", "TR", "UA", "IS",
	"JP", "CN", "KR", "HK", "TW", "SG", "MY", "TH", "VN", "PH", "ID", "IN",
	"PK", "BD", "LK", "AU", "NZ", "BR", "AR", "CL", "CO", "PE", "UY", "EC",
	"ZA", "EG", "MA", "NG", "KE", "AE", "SA", "QA", "KW", "BH", "OM", "IL",
	"JO", "LB", "CY", "MT",
}

const countryWorkers = 3
const countryPagesPerCountry = 200

// CountryExecutor implements C7.5: iterate a watch-industry country
// list (or a brand-supplied override), one call per ISO code,
// optionally mapped through an ID table for back ends that key
// countries by an internal numeric or slug ID rather than ISO code.
// When the classifier detects pagination parameters, each country is
// paginated until a short or empty page.
type CountryExecutor struct {
	Logger       *slog.Logger
	Countries    []string          // overrides WatchIndustryCountries when non-nil
	CountryIDMap map[string]string // ISO2 -> back-end-specific ID, optional
}

// Execute implements Executor.
func (c *CountryExecutor) Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return nil, Stats{}, err
	}

	countries := c.Countries
	if countries == nil {
		countries = WatchIndustryCountries
	}
	paramKey := countryParamKey(profile.ObservedParams)
	paginate := profile.PaginationStyle != classify.PaginationNone
	_, pageSize := paginationKeys(base, profile)

	var mu sync.Mutex
	dedup := NewDedup()
	var out []rawtree.Record
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countryWorkers)
	for _, iso := range countries {
		iso := iso
		g.Go(func() error {
			value := iso
			if c.CountryIDMap != nil {
				if mapped, ok := c.CountryIDMap[iso]; ok {
					value = mapped
				}
			}

			for page := 0; page < countryPagesPerCountry; page++ {
				u := *base
				q := u.Query()
				q.Set(paramKey, value)
				if paginate && page > 0 {
					q.Set("offset", strconv.Itoa(page*pageSize))
				}
				u.RawQuery = q.Encode()

				payload, err := fetcher.Fetch(gctx, u.String(), nil)
				if err != nil {
					return nil
				}
				records := ExtractRecords(payload, dataPath)

				mu.Lock()
				stats.PagesWalked++
				for _, rec := range records {
					if dedup.Accept(rec) {
						out = append(out, rec)
					} else {
						stats.DedupRejected++
					}
				}
				mu.Unlock()

				if !paginate || len(records) == 0 || len(records) < pageSize {
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return out, stats, nil
}

func countryParamKey(observed map[string]string) string {
	for _, k := range []string{"country", "countryCode", "country_code", "region"} {
		if _, ok := observed[k]; ok {
			return k
		}
	}
	return "country"
}
