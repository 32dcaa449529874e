package optimizer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/watchdna/storeharvester/pkg/httpfetch"
)

func radiusServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		radius, _ := strconv.Atoi(r.URL.Query().Get("radius"))
		count := radius / 500

		var stores []string
		for i := 0; i < count; i++ {
			stores = append(stores, fmt.Sprintf(`{"id":"%d"}`, i))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"stores":[%s]}`, strings.Join(stores, ","))
	}))
}

func TestOptimizeLocksCenterAndSweepsRadius(t *testing.T) {
	srv := radiusServer(t)
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	target := srv.URL + "/stores?lat=0&lng=0&radius=0"
	result, err := Optimize(context.Background(), fetcher, target, "", "lat", "lng", "radius", nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected Verified to be true")
	}
	if result.CenterUsed == "" {
		t.Error("expected a non-empty CenterUsed")
	}
	if result.RadiusUsed != 25000 {
		t.Errorf("RadiusUsed = %d, want 25000 (monotonically increasing server)", result.RadiusUsed)
	}
	if result.BestStoreCount != 50 {
		t.Errorf("BestStoreCount = %d, want 50", result.BestStoreCount)
	}

	u, err := url.Parse(result.OptimizedURL)
	if err != nil {
		t.Fatalf("parsing OptimizedURL: %v", err)
	}
	if got := u.Query().Get("radius"); got != "25000" {
		t.Errorf("OptimizedURL radius param = %q, want 25000", got)
	}
}

// TestOptimizeLocksOnTheURLsOwnCenter exercises a back end that only
// returns stores for the coordinates actually requested (as a real
// radius endpoint would) — it must reject null_island and lock onto
// the "as_given" center the target URL already carried.
func TestOptimizeLocksOnTheURLsOwnCenter(t *testing.T) {
	const wantLat, wantLng = "48.856600", "2.352200"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("lat") != wantLat || q.Get("lng") != wantLng {
			fmt.Fprint(w, `{"stores":[]}`)
			return
		}
		radius, _ := strconv.Atoi(q.Get("radius"))
		count := radius / 500
		var stores []string
		for i := 0; i < count; i++ {
			stores = append(stores, fmt.Sprintf(`{"id":"%d"}`, i))
		}
		fmt.Fprintf(w, `{"stores":[%s]}`, strings.Join(stores, ","))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	target := srv.URL + "/stores?lat=48.8566&lng=2.3522&radius=0"
	result, err := Optimize(context.Background(), fetcher, target, "", "lat", "lng", "radius", nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected Verified to be true: the optimizer must try the URL's own lat/lng, not only hardcoded cities")
	}
	if result.CenterUsed != "as_given" {
		t.Errorf("CenterUsed = %q, want %q", result.CenterUsed, "as_given")
	}
	if result.RadiusUsed != 25000 {
		t.Errorf("RadiusUsed = %d, want 25000", result.RadiusUsed)
	}

	u, err := url.Parse(result.OptimizedURL)
	if err != nil {
		t.Fatalf("parsing OptimizedURL: %v", err)
	}
	if got := u.Query().Get("lat"); got != wantLat {
		t.Errorf("OptimizedURL lat param = %q, want %q", got, wantLat)
	}
}

// TestOptimizeUsesPaginationComboAlreadyOnTheURL verifies that when
// the target URL already carries a "limit" parameter, the locked
// pagination combo pairs it with "offset" rather than trying the
// invented params an earlier revision of the optimizer made up.
func TestOptimizeUsesPaginationComboAlreadyOnTheURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("limit") != "50" || q.Get("offset") != "0" {
			fmt.Fprint(w, `{"stores":[]}`)
			return
		}
		radius, _ := strconv.Atoi(q.Get("radius"))
		count := radius / 500
		var stores []string
		for i := 0; i < count; i++ {
			stores = append(stores, fmt.Sprintf(`{"id":"%d"}`, i))
		}
		fmt.Fprintf(w, `{"stores":[%s]}`, strings.Join(stores, ","))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	target := srv.URL + "/stores?lat=0&lng=0&radius=0&limit=25"
	result, err := Optimize(context.Background(), fetcher, target, "", "lat", "lng", "radius", nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected Verified to be true: the locked combo must pair the URL's own limit param with offset")
	}

	u, err := url.Parse(result.OptimizedURL)
	if err != nil {
		t.Fatalf("parsing OptimizedURL: %v", err)
	}
	if got := u.Query().Get("limit"); got != "50" {
		t.Errorf("OptimizedURL limit param = %q, want 50", got)
	}
	if got := u.Query().Get("offset"); got != "0" {
		t.Errorf("OptimizedURL offset param = %q, want 0", got)
	}
}

func TestOptimizeLocksFirstMaximumOnATie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		radius, _ := strconv.Atoi(r.URL.Query().Get("radius"))
		var n int
		switch {
		case radius < 1000:
			n = 0
		case radius == 1000:
			n = 10
		case radius == 2000:
			n = 50
		default:
			n = 50
		}
		stores := make([]string, n)
		for i := range stores {
			stores[i] = fmt.Sprintf(`{"id":"%d"}`, i)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"stores":[%s]}`, strings.Join(stores, ","))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	target := srv.URL + "/stores?lat=0&lng=0&radius=0"
	result, err := Optimize(context.Background(), fetcher, target, "", "lat", "lng", "radius", nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected Verified to be true")
	}
	if result.RadiusUsed != 2000 {
		t.Errorf("RadiusUsed = %d, want 2000 (the first radius to reach the tied maximum of 50)", result.RadiusUsed)
	}
	if result.BestStoreCount != 50 {
		t.Errorf("BestStoreCount = %d, want 50", result.BestStoreCount)
	}
}

func TestOptimizeNeverLocksWhenBackendAlwaysEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stores":[]}`))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	target := srv.URL + "/stores?lat=0&lng=0&radius=0"
	result, err := Optimize(context.Background(), fetcher, target, "", "lat", "lng", "radius", nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.Verified {
		t.Error("expected Verified to be false when no variant ever returns a store")
	}
	if result.OptimizedURL != target {
		t.Errorf("OptimizedURL = %q, want original target %q unchanged", result.OptimizedURL, target)
	}
}

func TestOptimizeRejectsInvalidURL(t *testing.T) {
	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	if _, err := Optimize(context.Background(), fetcher, "://not-a-url", "", "lat", "lng", "radius", nil); err == nil {
		t.Error("expected an error for an unparseable target URL")
	}
}
