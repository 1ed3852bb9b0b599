// README: Match store backed by PostgreSQL with optimistic status updates.
package smartmatch

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tulong/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const matchColumns = `
    id, request_id, donation_id, volunteer_id, match_type,
    combined_score, donor_score, volunteer_score, match_reason, eta_minutes,
    status, status_version,
    created_at, accepted_at, picked_up_at, completed_at, cancelled_at, cancellation_reason`

func (s *Store) Create(ctx context.Context, m *Match) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO smart_matches (
            id, request_id, donation_id, volunteer_id, match_type,
            combined_score, donor_score, volunteer_score, match_reason, eta_minutes,
            status, status_version, created_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9, $10,
            $11, $12, $13
        )`,
		string(m.ID),
		string(m.RequestID),
		string(m.DonationID),
		toStringPtr(m.VolunteerID),
		string(m.MatchType),
		m.CombinedScore,
		m.DonorScore,
		m.VolunteerScore,
		m.MatchReason,
		m.EstimatedDeliveryMinutes,
		string(m.Status),
		m.StatusVersion,
		m.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Match, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+matchColumns+`
        FROM smart_matches
        WHERE id = $1`, string(id),
	)
	return scanMatch(row)
}

func (s *Store) ListByRequest(ctx context.Context, requestID types.ID) ([]Match, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+matchColumns+`
        FROM smart_matches
        WHERE request_id = $1
        ORDER BY created_at DESC`, string(requestID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) ListByStatus(ctx context.Context, status Status, limit int) ([]Match, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+matchColumns+`
        FROM smart_matches
        WHERE status = $1
        ORDER BY combined_score DESC
        LIMIT $2`, string(status), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, volunteerID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE smart_matches
        SET status = $1,
            status_version = status_version + 1,
            volunteer_id = COALESCE($2, volunteer_id),
            accepted_at = CASE WHEN $1 = 'accepted' THEN NOW() ELSE accepted_at END,
            picked_up_at = CASE WHEN $1 = 'in_delivery' THEN NOW() ELSE picked_up_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
        WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		toStringPtr(volunteerID),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetCancelReason(ctx context.Context, id types.ID, reason string) error {
	_, err := s.db.Exec(ctx, `
        UPDATE smart_matches SET cancellation_reason = $2 WHERE id = $1`,
		string(id), reason,
	)
	return err
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO match_state_events (
            match_id, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.MatchID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

// HasActiveByRequest reports whether a request already has a live match.
func (s *Store) HasActiveByRequest(ctx context.Context, requestID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM smart_matches
            WHERE request_id = $1
              AND status IN ('proposed','accepted','in_delivery')
        )`, string(requestID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*Match, error) {
	var m Match
	var volunteerID sql.NullString
	var volunteerScore sql.NullFloat64
	var acceptedAt, pickedUpAt, completedAt, cancelledAt sql.NullTime
	var cancelReason sql.NullString

	err := row.Scan(
		&m.ID, &m.RequestID, &m.DonationID, &volunteerID, &m.MatchType,
		&m.CombinedScore, &m.DonorScore, &volunteerScore, &m.MatchReason, &m.EstimatedDeliveryMinutes,
		&m.Status, &m.StatusVersion,
		&m.CreatedAt, &acceptedAt, &pickedUpAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if volunteerID.Valid {
		v := types.ID(volunteerID.String)
		m.VolunteerID = &v
	}
	if volunteerScore.Valid {
		m.VolunteerScore = &volunteerScore.Float64
	}
	m.AcceptedAt = toTimePtr(acceptedAt)
	m.PickedUpAt = toTimePtr(pickedUpAt)
	m.CompletedAt = toTimePtr(completedAt)
	m.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		m.CancelReason = &cancelReason.String
	}
	return &m, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
