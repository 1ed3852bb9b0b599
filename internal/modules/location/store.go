// README: Location store backed by Redis GEO and Postgres snapshots.
package location

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"tulong/internal/types"
)

const volunteerGeoKey = "location:volunteers"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

func (s *Store) SetGeo(ctx context.Context, id types.ID, pos types.Point) error {
	return s.redis.GeoAdd(ctx, volunteerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Store) RemoveGeo(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, volunteerGeoKey, string(id)).Err()
}

// Nearby returns volunteer ids within radiusKm of p, sorted nearest first.
func (s *Store) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]NearbyVolunteer, error) {
	results, err := s.redis.GeoSearchLocation(ctx, volunteerGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]NearbyVolunteer, len(results))
	for i, r := range results {
		out[i] = NearbyVolunteer{UserID: types.ID(r.Name), Distance: r.Dist}
	}
	sortByDistance(out, func(v NearbyVolunteer) float64 { return v.Distance })
	return out, nil
}

func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO location_snapshots (user_id, lat, lng, recorded_at)
        VALUES ($1, $2, $3, $4)`,
		string(snap.UserID), snap.Position.Lat, snap.Position.Lng, snap.RecordedAt,
	)
	return err
}
