package amap

import "fmt"

// GeocodeError means the provider reported no match for an address. Call
// sites that can tolerate it (plan enrichment) absorb it; they never block
// plan delivery.
type GeocodeError struct {
	Address string
	Info    string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("amap: geocode %q failed: %s", e.Address, e.Info)
}

// RoutingError means the provider reported no drivable route between two
// points. DrawRoute degrades failed legs to straight segments instead of
// propagating this.
type RoutingError struct {
	Origin      Point
	Destination Point
	Info        string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("amap: no route from (%g,%g) to (%g,%g): %s",
		e.Origin.Lng, e.Origin.Lat, e.Destination.Lng, e.Destination.Lat, e.Info)
}
