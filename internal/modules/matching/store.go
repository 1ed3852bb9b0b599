// README: Production Repository composed from the entity stores, with GEO narrowing.
package matching

import (
	"context"

	"tulong/internal/logger"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/location"
	"tulong/internal/modules/request"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

// Store implements Repository on top of the per-entity Postgres stores, with
// the Redis GEO index narrowing volunteer pools when a query point is known.
type Store struct {
	donations  *donation.Store
	requests   *request.Store
	volunteers *volunteer.Store
	geo        *location.Service
}

// NewStore wires the entity stores. geo may be nil, in which case volunteer
// pools are never narrowed.
func NewStore(donations *donation.Store, requests *request.Store, volunteers *volunteer.Store, geo *location.Service) *Store {
	return &Store{
		donations:  donations,
		requests:   requests,
		volunteers: volunteers,
		geo:        geo,
	}
}

func (s *Store) AvailableDonations(ctx context.Context) ([]donation.Donation, error) {
	return s.donations.GetAvailable(ctx)
}

func (s *Store) OpenRequests(ctx context.Context) ([]request.Request, error) {
	return s.requests.GetByStatus(ctx, request.StatusOpen)
}

// ActiveVolunteersNear lists active volunteers. With a query point and a GEO
// index, the pool is narrowed to ids within radiusKm; an empty or failing
// index falls back to the full active list rather than returning nobody.
func (s *Store) ActiveVolunteersNear(ctx context.Context, p *types.Point, radiusKm float64) ([]volunteer.Volunteer, error) {
	all, err := s.volunteers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.geo == nil || p == nil || radiusKm <= 0 {
		return all, nil
	}

	nearby, err := s.geo.Nearby(ctx, *p, radiusKm)
	if err != nil {
		logger.Warn().Err(err).Msg("geo narrowing failed; using full volunteer pool")
		return all, nil
	}
	if len(nearby) == 0 {
		return all, nil
	}

	within := make(map[types.ID]struct{}, len(nearby))
	for _, n := range nearby {
		within[n.UserID] = struct{}{}
	}
	narrowed := make([]volunteer.Volunteer, 0, len(nearby))
	for _, v := range all {
		if _, ok := within[v.ID]; ok {
			narrowed = append(narrowed, v)
		}
	}
	if len(narrowed) == 0 {
		return all, nil
	}
	return narrowed, nil
}

func (s *Store) VolunteerStats(ctx context.Context, id types.ID) (volunteer.Stats, error) {
	return s.volunteers.Stats(ctx, id)
}

func (s *Store) VolunteerHistory(ctx context.Context, id types.ID, limit int) ([]volunteer.Delivery, error) {
	return s.volunteers.History(ctx, id, limit)
}

func (s *Store) ActiveDeliveryCount(ctx context.Context, id types.ID) (int, error) {
	return s.volunteers.ActiveDeliveryCount(ctx, id)
}

func (s *Store) DonorStats(ctx context.Context, id types.ID) (donation.DonorStats, error) {
	return s.donations.DonorStats(ctx, id)
}
