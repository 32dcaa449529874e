package executor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
)

func TestGridCellsTilesABox(t *testing.T) {
	preset := regionPreset{boxes: []bbox{{0, 10, 0, 10}}, cellSize: 5}
	cells := gridCells(preset)
	if len(cells) != 4 {
		t.Fatalf("len(cells) = %d, want 4 (a 10x10 box tiled at 5-degree cells)", len(cells))
	}
}

func TestGridCellsClampsToBoxEdge(t *testing.T) {
	preset := regionPreset{boxes: []bbox{{0, 7, 0, 7}}, cellSize: 5}
	cells := gridCells(preset)
	for _, c := range cells {
		if c.maxLat > 7 || c.maxLng > 7 {
			t.Errorf("cell %+v exceeds the box bounds", c)
		}
	}
}

func TestGridCellsWorldAtNinetyDegreesYieldsEightCells(t *testing.T) {
	preset := regionPreset{boxes: []bbox{{-85, 85, -180, 180}}, cellSize: 90}
	cells := gridCells(preset)
	if len(cells) != 8 {
		t.Fatalf("len(cells) = %d, want 8 (a world box tiled at 90-degree cells)", len(cells))
	}
}

func TestBoundsParamStyle(t *testing.T) {
	tests := []struct {
		name     string
		observed map[string]string
		want     boundsStyle
	}{
		{"ne/sw style", map[string]string{"ne_lat": "1"}, boundsNESW},
		{"combined bounds style", map[string]string{"bounds": "1,2|3,4"}, boundsLatLngBounds},
		{"default to center/radius", map[string]string{}, boundsCenterRadius},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boundsParamStyle(tt.observed); got != tt.want {
				t.Errorf("boundsParamStyle(%v) = %v, want %v", tt.observed, got, tt.want)
			}
		})
	}
}

func TestApplyBoundsParamsNESW(t *testing.T) {
	q := url.Values{}
	applyBoundsParams(q, boundsNESW, bbox{minLat: 1, maxLat: 2, minLng: 3, maxLng: 4})
	if q.Get("ne_lat") != "2.000000" || q.Get("sw_lat") != "1.000000" {
		t.Errorf("unexpected NESW params: %v", q)
	}
}

func TestViewportExecute(t *testing.T) {
	RegionPresets["test_tiny"] = regionPreset{boxes: []bbox{{0, 1, 0, 1}}, cellSize: 1}
	defer delete(RegionPresets, "test_tiny")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"stores":[{"id":"%s_%s","name":"A"}]}`, r.URL.Query().Get("lat"), r.URL.Query().Get("lng"))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	v := &Viewport{Region: "test_tiny"}
	recs, stats, err := v.Execute(context.Background(), fetcher, srv.URL+"/stores", "", classify.Profile{Pattern: classify.Viewport})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if stats.CellsVisited != 1 {
		t.Errorf("CellsVisited = %d, want 1", stats.CellsVisited)
	}
}

func TestViewportExecuteWorldGridAtNinetyDegrees(t *testing.T) {
	RegionPresets["test_world90"] = regionPreset{boxes: []bbox{{-85, 85, -180, 180}}, cellSize: 90}
	defer delete(RegionPresets, "test_world90")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		cell := r.URL.Query().Get("lat") + "_" + r.URL.Query().Get("lng")
		stores := make([]string, 10)
		for i := range stores {
			stores[i] = fmt.Sprintf(`{"id":"%s_%d"}`, cell, i)
		}
		fmt.Fprintf(w, `{"stores":[%s]}`, strings.Join(stores, ","))
	}))
	defer srv.Close()

	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	v := &Viewport{Region: "test_world90"}
	recs, stats, err := v.Execute(context.Background(), fetcher, srv.URL+"/stores", "", classify.Profile{Pattern: classify.Viewport})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stats.CellsVisited != 8 {
		t.Fatalf("CellsVisited = %d, want 8", stats.CellsVisited)
	}
	if len(recs) != 80 {
		t.Fatalf("len(recs) = %d, want 80 (8 cells x 10 disjoint stores each)", len(recs))
	}
}

func TestViewportExecuteInvalidURL(t *testing.T) {
	fetcher := httpfetch.New("storeharvester-test/1.0", nil)
	defer fetcher.Close()

	v := &Viewport{}
	if _, _, err := v.Execute(context.Background(), fetcher, "://not-a-url", "", classify.Profile{}); err == nil {
		t.Error("expected an error for an unparseable target URL")
	}
}
