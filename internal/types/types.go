// README: Common value objects shared across modules.
package types

// ID identifies an entity (user, donation, request, match).
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// OptionalPoint carries a coordinate that may be absent. Scoring treats a
// missing position as "unknown", never as (0,0).
type OptionalPoint struct {
	Lat *float64
	Lng *float64
}

// Valid reports whether both coordinates are present.
func (p OptionalPoint) Valid() bool {
	return p.Lat != nil && p.Lng != nil
}

// PointOf converts to a concrete Point; ok is false when either side is missing.
func (p OptionalPoint) PointOf() (Point, bool) {
	if !p.Valid() {
		return Point{}, false
	}
	return Point{Lat: *p.Lat, Lng: *p.Lng}, true
}

// OptionalPointFrom builds an OptionalPoint from two nullable coordinates.
func OptionalPointFrom(lat, lng *float64) OptionalPoint {
	return OptionalPoint{Lat: lat, Lng: lng}
}
