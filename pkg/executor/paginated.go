package executor

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

const maxPaginatedPages = 1000
const paginatedBatchSize = 3

// Paginated implements C7.2. Offset- and page-style back ends can be
// probed speculatively in batches since the next URL doesn't depend
// on the previous response; token-style back ends must be walked one
// page at a time since the next call needs the previous page's token.
type Paginated struct {
	Logger *slog.Logger
}

// Execute implements Executor.
func (p *Paginated) Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	if profile.PaginationStyle == classify.PaginationToken {
		return p.executeTokenStyle(ctx, fetcher, targetURL, dataPath)
	}
	return p.executeCounterStyle(ctx, fetcher, targetURL, dataPath, profile)
}

func (p *Paginated) executeCounterStyle(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return nil, Stats{}, err
	}

	offsetKey, pageSize := paginationKeys(base, profile)

	var out []rawtree.Record
	dedup := NewDedup()
	var stats Stats

	for start := 0; start < maxPaginatedPages; start += paginatedBatchSize {
		type pageResult struct {
			idx     int
			records []rawtree.Record
			err     error
		}
		batchLen := paginatedBatchSize
		if start+batchLen > maxPaginatedPages {
			batchLen = maxPaginatedPages - start
		}
		results := make([]pageResult, batchLen)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(3)
		for i := 0; i < batchLen; i++ {
			i := i
			page := start + i
			g.Go(func() error {
				u := *base
				q := u.Query()
				q.Set(offsetKey, strconv.Itoa(page*pageSize))
				u.RawQuery = q.Encode()

				payload, ferr := fetcher.Fetch(gctx, u.String(), nil)
				if ferr != nil {
					results[i] = pageResult{idx: page, err: ferr}
					return nil // a single page's transient failure doesn't abort the walk
				}
				results[i] = pageResult{idx: page, records: ExtractRecords(payload, dataPath)}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, stats, err
		}

		stoppedEarly := false
		for i := 0; i < batchLen; i++ {
			r := results[i]
			if len(r.records) == 0 {
				stoppedEarly = true
				break
			}
			stats.PagesWalked++
			for _, rec := range r.records {
				if dedup.Accept(rec) {
					out = append(out, rec)
				} else {
					stats.DedupRejected++
				}
			}
		}
		if stoppedEarly {
			break
		}
	}

	return out, stats, nil
}

func (p *Paginated) executeTokenStyle(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string) ([]rawtree.Record, Stats, error) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return nil, Stats{}, err
	}

	var out []rawtree.Record
	dedup := NewDedup()
	var stats Stats
	token := ""

	for page := 0; page < maxPaginatedPages; page++ {
		u := *base
		if token != "" {
			q := u.Query()
			q.Set("pageToken", token)
			u.RawQuery = q.Encode()
		}

		payload, err := fetcher.Fetch(ctx, u.String(), nil)
		if err != nil {
			return out, stats, err
		}
		records := ExtractRecords(payload, dataPath)
		if len(records) == 0 {
			break
		}
		stats.PagesWalked++
		for _, rec := range records {
			if dedup.Accept(rec) {
				out = append(out, rec)
			} else {
				stats.DedupRejected++
			}
		}

		next := nextPageToken(payload)
		if next == "" || next == token {
			break
		}
		token = next
	}

	return out, stats, nil
}

// paginationKeys picks the query parameter this back end uses to
// advance pages and the effective page size to multiply against it,
// defaulting to an "offset" counter at 50 records/page when nothing
// in the observed URL says otherwise.
func paginationKeys(u *url.URL, profile classify.Profile) (key string, pageSize int) {
	q := u.Query()
	if _, ok := q["offset"]; ok {
		pageSize = 50
		if v, ok := q["limit"]; ok {
			if n, err := strconv.Atoi(v[0]); err == nil && n > 0 {
				pageSize = n
			}
		}
		return "offset", pageSize
	}
	if _, ok := q["page"]; ok {
		return "page", 1
	}
	if _, ok := q["skip"]; ok {
		return "skip", 50
	}
	return "offset", 50
}

func nextPageToken(payload httpfetch.Payload) string {
	root, ok := payload.JSON.(map[string]interface{})
	if !ok {
		return ""
	}
	for _, key := range []string{"nextPageToken", "next_page_token", "pageToken", "cursor"} {
		if v, ok := root[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
