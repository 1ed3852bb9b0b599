// README: Donation store backed by PostgreSQL.
package donation

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tulong/internal/types"
)

var ErrNotFound = errors.New("donation not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const donationColumns = `
        d.id, d.donor_id, d.category, d.subcategory, d.title, d.quantity,
        d.status, d.delivery_mode, d.is_urgent, d.pickup_lat, d.pickup_lng,
        u.lat, u.lng, d.created_at`

// GetAvailable lists donations still open for matching, with donor position
// joined in so scoring needs no second lookup per candidate.
func (s *Store) GetAvailable(ctx context.Context) ([]Donation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+donationColumns+`
        FROM donations d
        JOIN users u ON u.id = d.donor_id
        WHERE d.status = $1
        ORDER BY d.created_at DESC`, string(StatusAvailable),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDonations(rows)
}

// GetByDonor lists a donor's donations regardless of status.
func (s *Store) GetByDonor(ctx context.Context, donorID types.ID) ([]Donation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+donationColumns+`
        FROM donations d
        JOIN users u ON u.id = d.donor_id
        WHERE d.donor_id = $1
        ORDER BY d.created_at DESC`, string(donorID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDonations(rows)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Donation, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+donationColumns+`
        FROM donations d
        JOIN users u ON u.id = d.donor_id
        WHERE d.id = $1`, string(id),
	)
	d, err := scanDonation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DonorStats aggregates a donor's completed-vs-total donation counts.
func (s *Store) DonorStats(ctx context.Context, donorID types.ID) (DonorStats, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = $2)
        FROM donations
        WHERE donor_id = $1`, string(donorID), string(StatusCompleted),
	)
	var st DonorStats
	if err := row.Scan(&st.Total, &st.Completed); err != nil {
		return DonorStats{}, err
	}
	return st, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE donations SET status = $2 WHERE id = $1`,
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

func scanDonation(row rowScanner) (*Donation, error) {
	var d Donation
	var subcategory sql.NullString
	var quantity, pickupLat, pickupLng, donorLat, donorLng sql.NullFloat64

	err := row.Scan(
		&d.ID, &d.DonorID, &d.Category, &subcategory, &d.Title, &quantity,
		&d.Status, &d.DeliveryMode, &d.IsUrgent, &pickupLat, &pickupLng,
		&donorLat, &donorLng, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if subcategory.Valid {
		d.Subcategory = &subcategory.String
	}
	d.Quantity = toFloatPtr(quantity)
	d.Pickup = types.OptionalPointFrom(toFloatPtr(pickupLat), toFloatPtr(pickupLng))
	d.Donor.Position = types.OptionalPointFrom(toFloatPtr(donorLat), toFloatPtr(donorLng))
	return &d, nil
}

func scanDonations(rows pgx.Rows) ([]Donation, error) {
	var out []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func toFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
