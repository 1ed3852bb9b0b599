// README: Volunteer store backed by PostgreSQL (users with role='volunteer' plus deliveries).
package volunteer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tulong/internal/types"
)

var ErrNotFound = errors.New("volunteer not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ListActive returns active users with the volunteer role.
func (s *Store) ListActive(ctx context.Context) ([]Volunteer, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, lat, lng, is_active
        FROM users
        WHERE role = 'volunteer' AND is_active = TRUE`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Volunteer, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, lat, lng, is_active
        FROM users
        WHERE id = $1 AND role = 'volunteer'`, string(id),
	)
	v, err := scanVolunteer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Stats aggregates a volunteer's delivery record in one query.
func (s *Store) Stats(ctx context.Context, id types.ID) (Stats, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COALESCE(AVG(rating), 0),
               COUNT(*),
               COUNT(*) FILTER (WHERE status = $2)
        FROM deliveries
        WHERE volunteer_id = $1`, string(id), string(DeliveryCompleted),
	)
	var st Stats
	if err := row.Scan(&st.AverageRating, &st.TotalDeliveries, &st.CompletedDeliveries); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// ActiveDeliveryCount returns the number of in-flight deliveries.
func (s *Store) ActiveDeliveryCount(ctx context.Context, id types.ID) (int, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM deliveries
        WHERE volunteer_id = $1 AND status IN ($2, $3)`,
		string(id), string(DeliveryAssigned), string(DeliveryInProgress),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// History returns the volunteer's most recent deliveries, newest first.
func (s *Store) History(ctx context.Context, id types.ID, limit int) ([]Delivery, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, volunteer_id, request_id, donation_id, category, urgency,
               status, rating, created_at, completed_at
        FROM deliveries
        WHERE volunteer_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, string(id), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var rating sql.NullFloat64
		var completedAt sql.NullTime
		err := rows.Scan(
			&d.ID, &d.VolunteerID, &d.RequestID, &d.DonationID, &d.Category,
			&d.Urgency, &d.Status, &rating, &d.CreatedAt, &completedAt,
		)
		if err != nil {
			return nil, err
		}
		if rating.Valid {
			r := rating.Float64
			d.Rating = &r
		}
		if completedAt.Valid {
			t := completedAt.Time
			d.CompletedAt = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVolunteer(row rowScanner) (*Volunteer, error) {
	var v Volunteer
	var lat, lng sql.NullFloat64

	if err := row.Scan(&v.ID, &v.Name, &lat, &lng, &v.IsActive); err != nil {
		return nil, err
	}
	var latPtr, lngPtr *float64
	if lat.Valid {
		f := lat.Float64
		latPtr = &f
	}
	if lng.Valid {
		f := lng.Float64
		lngPtr = &f
	}
	v.Position = types.OptionalPointFrom(latPtr, lngPtr)
	return &v, nil
}
