package executor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
)

func TestCountryExecutorExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"stores":[{"id":"%s-1","name":"A"}]}`, r.URL.Query().Get("country"))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	c := &CountryExecutor{Countries: []string{"US", "CA"}}
	recs, stats, err := c.Execute(context.Background(), fetcher, srv.URL+"/stores", "", classify.Profile{Pattern: classify.Country})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if stats.PagesWalked != 2 {
		t.Errorf("PagesWalked = %d, want 2", stats.PagesWalked)
	}
}

func TestCountryExecutorUsesCountryIDMap(t *testing.T) {
	var gotCountryParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCountryParam = r.URL.Query().Get("country")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stores":[]}`))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	c := &CountryExecutor{Countries: []string{"US"}, CountryIDMap: map[string]string{"US": "231"}}
	_, _, err := c.Execute(context.Background(), fetcher, srv.URL+"/stores", "", classify.Profile{Pattern: classify.Country})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotCountryParam != "231" {
		t.Errorf("country param = %q, want %q (mapped via CountryIDMap)", gotCountryParam, "231")
	}
}

func TestCountryExecutorPaginatesWithinEachCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		country := r.URL.Query().Get("country")
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")

		total := 120
		if country == "IT" {
			total = 40
		}
		remaining := total - offset
		if remaining <= 0 {
			w.Write([]byte(`{"stores":[]}`))
			return
		}
		n := 50
		if remaining < n {
			n = remaining
		}
		stores := make([]string, n)
		for i := range stores {
			stores[i] = fmt.Sprintf(`{"id":"%s-%d"}`, country, offset+i)
		}
		fmt.Fprintf(w, `{"stores":[%s]}`, strings.Join(stores, ","))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	c := &CountryExecutor{Countries: []string{"US", "IT"}}
	profile := classify.Profile{Pattern: classify.Country, PaginationStyle: classify.PaginationOffset, ObservedParams: map[string]string{"offset": "0"}}
	recs, _, err := c.Execute(context.Background(), fetcher, srv.URL+"/stores?offset=0", "", profile)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(recs) != 160 {
		t.Fatalf("len(recs) = %d, want 160 (120 US + 40 IT, deduplicated by source id)", len(recs))
	}
}

func TestCountryParamKeyHonorsObserved(t *testing.T) {
	if got := countryParamKey(map[string]string{"countryCode": "x"}); got != "countryCode" {
		t.Errorf("countryParamKey = %q, want %q", got, "countryCode")
	}
	if got := countryParamKey(map[string]string{}); got != "country" {
		t.Errorf("countryParamKey default = %q, want %q", got, "country")
	}
}
