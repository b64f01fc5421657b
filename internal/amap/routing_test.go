package amap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPlanRouteConcatenatesStepPolylines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/direction/driving" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"1","info":"OK","route":{"paths":[{
			"distance":"1500","duration":"300",
			"steps":[
				{"instruction":"向东行驶","road":"长安街","distance":"800","duration":"160","polyline":"116.1,39.1;116.2,39.2"},
				{"instruction":"右转","road":"王府井大街","distance":"700","duration":"140","polyline":"116.2,39.2;116.3,39.3"}
			]}]}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "", server.URL)
	route, err := client.PlanRoute(context.Background(), Point{Lng: 116.1, Lat: 39.1}, Point{Lng: 116.3, Lat: 39.3})
	if err != nil {
		t.Fatalf("PlanRoute: %v", err)
	}

	if route.DistanceMeters != 1500 || route.DurationSeconds != 300 {
		t.Fatalf("route totals = %v / %v", route.DistanceMeters, route.DurationSeconds)
	}
	if len(route.Steps) != 2 {
		t.Fatalf("steps = %d", len(route.Steps))
	}
	if len(route.Path) != 4 {
		t.Fatalf("path length = %d, want 4", len(route.Path))
	}
	if route.Path[0] != (Point{Lng: 116.1, Lat: 39.1}) || route.Path[3] != (Point{Lng: 116.3, Lat: 39.3}) {
		t.Fatalf("path = %+v", route.Path)
	}
}

func TestDrawRouteKeepsFailedLegsAsStraightSegments(t *testing.T) {
	// The middle leg fails; the overall path must still pass through every
	// input point in order.
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.Write([]byte(`{"status":"0","info":"NO_ROUTE","route":{"paths":[]}}`))
			return
		}
		origin := r.URL.Query().Get("origin")
		destination := r.URL.Query().Get("destination")
		fmt.Fprintf(w, `{"status":"1","info":"OK","route":{"paths":[{"distance":"100","duration":"60","steps":[{"instruction":"","road":"","distance":"100","duration":"60","polyline":"%s;%s"}]}]}}`, origin, destination)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "", server.URL)
	points := []Point{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}, {Lng: 3, Lat: 3}, {Lng: 4, Lat: 4}}
	path := client.DrawRoute(context.Background(), points)

	if calls != 3 {
		t.Fatalf("planned %d legs, want 3", calls)
	}
	if len(path) != 6 {
		t.Fatalf("path length = %d, want 6: %+v", len(path), path)
	}
	// Leg boundaries must coincide so the drawn line never jumps.
	for _, want := range points {
		found := false
		for _, got := range path {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("path %+v missing input point %+v", path, want)
		}
	}
}

func TestDrawRouteNeedsTwoPoints(t *testing.T) {
	client := NewClientWithBaseURL("test-key", "", "http://unused")
	if path := client.DrawRoute(context.Background(), []Point{{Lng: 1, Lat: 1}}); path != nil {
		t.Fatalf("path = %+v, want nil", path)
	}
}
