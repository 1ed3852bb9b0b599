// README: Request store backed by PostgreSQL.
package request

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tulong/internal/types"
)

var ErrNotFound = errors.New("request not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const requestColumns = `
        id, requester_id, category, title, quantity_needed,
        urgency, delivery_mode, lat, lng, status, created_at`

// GetByStatus lists requests in the given status, oldest first so
// long-waiting requests are matched ahead of new arrivals.
func (s *Store) GetByStatus(ctx context.Context, status Status) ([]Request, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+requestColumns+`
        FROM requests
        WHERE status = $1
        ORDER BY created_at ASC`, string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Request, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+requestColumns+`
        FROM requests
        WHERE id = $1`, string(id),
	)
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE requests SET status = $2 WHERE id = $1`,
		string(id), string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var r Request
	var quantity, lat, lng sql.NullFloat64

	err := row.Scan(
		&r.ID, &r.RequesterID, &r.Category, &r.Title, &quantity,
		&r.Urgency, &r.DeliveryMode, &lat, &lng, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.QuantityNeeded = toFloatPtr(quantity)
	r.Location = types.OptionalPointFrom(toFloatPtr(lat), toFloatPtr(lng))
	return &r, nil
}

func toFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
