// README: Location service keeps the volunteer GEO index current and snapshots to Postgres.
package location

import (
	"context"
	"time"

	"tulong/internal/types"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Update records a volunteer's current position in the GEO index and appends
// a snapshot row. The snapshot is best-effort; the index write is the one
// that matters for candidate narrowing.
func (s *Service) Update(ctx context.Context, u Update) error {
	if err := s.store.SetGeo(ctx, u.UserID, u.Position); err != nil {
		return err
	}
	return s.store.AppendSnapshot(ctx, Snapshot{
		UserID:     u.UserID,
		Position:   u.Position,
		RecordedAt: time.Now(),
	})
}

// Deactivate removes a volunteer from the GEO index.
func (s *Service) Deactivate(ctx context.Context, id types.ID) error {
	return s.store.RemoveGeo(ctx, id)
}

// Nearby lists volunteer ids within radiusKm of p, nearest first.
func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]NearbyVolunteer, error) {
	return s.store.Nearby(ctx, p, radiusKm)
}
