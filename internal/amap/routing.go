package amap

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"
)

type RouteStep struct {
	Instruction     string  `json:"instruction"`
	Road            string  `json:"road"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type Route struct {
	DistanceMeters  float64     `json:"distanceMeters"`
	DurationSeconds float64     `json:"durationSeconds"`
	Path            []Point     `json:"path"`
	Steps           []RouteStep `json:"steps"`
}

// PlanRoute asks the provider for a least-time driving route between two
// points. Returns *RoutingError when no route exists.
func (c *Client) PlanRoute(ctx context.Context, origin, destination Point) (*Route, error) {
	params := url.Values{}
	params.Set("origin", formatLocation(origin.Lng, origin.Lat))
	params.Set("destination", formatLocation(destination.Lng, destination.Lat))
	params.Set("strategy", "0") // least time
	params.Set("extensions", "base")

	var result struct {
		Status string `json:"status"`
		Info   string `json:"info"`
		Route  struct {
			Paths []struct {
				Distance string `json:"distance"`
				Duration string `json:"duration"`
				Steps    []struct {
					Instruction string `json:"instruction"`
					Road        string `json:"road"`
					Distance    string `json:"distance"`
					Duration    string `json:"duration"`
					Polyline    string `json:"polyline"` // "lng,lat;lng,lat;..."
				} `json:"steps"`
			} `json:"paths"`
		} `json:"route"`
	}
	if err := c.get(ctx, "/v3/direction/driving", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "1" || len(result.Route.Paths) == 0 {
		return nil, &RoutingError{Origin: origin, Destination: destination, Info: result.Info}
	}

	best := result.Route.Paths[0]
	route := &Route{
		DistanceMeters:  parseFloat(best.Distance),
		DurationSeconds: parseFloat(best.Duration),
	}
	for _, step := range best.Steps {
		route.Steps = append(route.Steps, RouteStep{
			Instruction:     step.Instruction,
			Road:            step.Road,
			DistanceMeters:  parseFloat(step.Distance),
			DurationSeconds: parseFloat(step.Duration),
		})
		route.Path = append(route.Path, parsePolyline(step.Polyline)...)
	}
	return route, nil
}

// DrawRoute connects a point sequence into one continuous path. Two points
// become one planned leg; more become consecutive pairwise legs concatenated
// in order. A failed leg degrades to its straight two-point segment in place,
// so the output always spans every input point even under partial provider
// failure.
func (c *Client) DrawRoute(ctx context.Context, points []Point) []Point {
	if len(points) < 2 {
		return nil
	}

	var path []Point
	for i := 0; i < len(points)-1; i++ {
		route, err := c.PlanRoute(ctx, points[i], points[i+1])
		if err != nil || len(route.Path) == 0 {
			if err != nil {
				log.Printf("amap: route leg %d->%d failed, using straight segment: %v", i, i+1, err)
			}
			path = append(path, points[i], points[i+1])
			continue
		}
		path = append(path, route.Path...)
	}
	return path
}

func parsePolyline(polyline string) []Point {
	if polyline == "" {
		return nil
	}
	pairs := strings.Split(polyline, ";")
	points := make([]Point, 0, len(pairs))
	for _, pair := range pairs {
		lng, lat, err := parseLocation(pair)
		if err != nil {
			continue
		}
		points = append(points, Point{Lng: lng, Lat: lat})
	}
	return points
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
