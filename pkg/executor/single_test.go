package executor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
)

func TestSingleExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stores":[{"id":"1","name":"A"},{"id":"2","name":"B"},{"id":"1","name":"A duplicate"}]}`))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	s := &Single{}
	recs, stats, err := s.Execute(context.Background(), fetcher, srv.URL, "", classify.Profile{Pattern: classify.Single})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2 (one duplicate rejected)", len(recs))
	}
	if stats.DedupRejected != 1 {
		t.Errorf("DedupRejected = %d, want 1", stats.DedupRejected)
	}
	if stats.PagesWalked != 1 {
		t.Errorf("PagesWalked = %d, want 1", stats.PagesWalked)
	}
}

func TestForSelectsExecutorByPattern(t *testing.T) {
	tests := []struct {
		pattern classify.Pattern
		want    string
	}{
		{classify.Single, "*executor.Single"},
		{classify.Paginated, "*executor.Paginated"},
		{classify.Viewport, "*executor.Viewport"},
		{classify.Radius, "*executor.RadiusExecutor"},
		{classify.Country, "*executor.CountryExecutor"},
		{classify.HTMLEmbedded, "*executor.HTMLEmbedded"},
	}
	for _, tt := range tests {
		got := For(classify.Profile{Pattern: tt.pattern}, nil)
		if gotType := fmt.Sprintf("%T", got); gotType != tt.want {
			t.Errorf("For(%v) = %s, want %s", tt.pattern, gotType, tt.want)
		}
	}
}
