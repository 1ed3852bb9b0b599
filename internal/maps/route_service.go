package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"tulong/internal/types"
)

// RouteService handles interactions with Google Maps API. It satisfies the
// matching engine's TravelTimer so delivery ETAs come from real road routes
// instead of straight-line distance.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// TravelTimeMinutes returns the driving duration from origin to destination,
// rounded up to whole minutes.
func (s *RouteService) TravelTimeMinutes(ctx context.Context, from, to types.Point) (int, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return int(math.Ceil(leg.Duration.Minutes())), nil
}
