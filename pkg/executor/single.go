package executor

import (
	"context"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// Single implements C7.1: one call, one extraction, done. Used for
// back ends that return every location in a single response.
type Single struct{}

// Execute implements Executor.
func (s *Single) Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	payload, err := fetcher.Fetch(ctx, targetURL, nil)
	if err != nil {
		return nil, Stats{}, err
	}

	records := ExtractRecords(payload, dataPath)
	dedup := NewDedup()
	out := make([]rawtree.Record, 0, len(records))
	stats := Stats{PagesWalked: 1}
	for _, r := range records {
		if dedup.Accept(r) {
			out = append(out, r)
		} else {
			stats.DedupRejected++
		}
	}
	return out, stats, nil
}
