// README: Match lifecycle tests (state machine + DB-backed flows).
package smartmatch

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tulong/internal/modules/donation"
	"tulong/internal/modules/matching"
	"tulong/internal/modules/request"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

// TestCanTransition verifies the state machine transition table without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusProposed, StatusAccepted, true},
		{StatusAccepted, StatusInDelivery, true},
		{StatusInDelivery, StatusCompleted, true},
		// direct matches have no delivery leg
		{StatusAccepted, StatusCompleted, true},
		// cancels from every non-terminal state
		{StatusProposed, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusInDelivery, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusProposed, false},
		{StatusCancelled, StatusProposed, false},
		{StatusCompleted, StatusCancelled, false},
		// invalid: skipping states
		{StatusProposed, StatusInDelivery, false},
		{StatusProposed, StatusCompleted, false},
		{StatusInDelivery, StatusAccepted, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// nopMarkers satisfy the resource-status interfaces without touching other tables.
type nopDonations struct{}

func (nopDonations) UpdateStatus(context.Context, types.ID, donation.Status) error { return nil }

type nopRequests struct{}

func (nopRequests) UpdateStatus(context.Context, types.ID, request.Status) error { return nil }

func fptr(f float64) *float64 { return &f }

func threeWayCandidate(requestID string, score float64) matching.ThreeWayMatch {
	return matching.ThreeWayMatch{
		Request:                  request.Request{ID: types.ID(requestID)},
		Donation:                 donation.Donation{ID: "don-1"},
		Volunteer:                &volunteer.Volunteer{ID: "vol-1"},
		CombinedScore:            score,
		DonorScore:               score,
		VolunteerScore:           fptr(score),
		MatchType:                matching.MatchThreeWay,
		MatchReason:              "Best match due to close distance and well-matched items",
		EstimatedDeliveryMinutes: 35,
	}
}

func TestMatchFlowHappyPath(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	m, err := svc.Propose(ctx, threeWayCandidate("req_happy", 0.74))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	assertStatus(t, svc, m.ID, StatusProposed)

	if err := svc.Accept(ctx, AcceptCommand{MatchID: m.ID, ActorType: "recipient"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	assertStatus(t, svc, m.ID, StatusAccepted)

	if err := svc.StartDelivery(ctx, StartDeliveryCommand{MatchID: m.ID, VolunteerID: "vol-1"}); err != nil {
		t.Fatalf("start delivery: %v", err)
	}
	assertStatus(t, svc, m.ID, StatusInDelivery)

	if err := svc.Complete(ctx, CompleteCommand{MatchID: m.ID, ActorType: "volunteer"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, svc, m.ID, StatusCompleted)
}

func TestMatchAutoAccept(t *testing.T) {
	svc := newTestService(t, 0.8)
	ctx := context.Background()

	m, err := svc.Propose(ctx, threeWayCandidate("req_auto", 0.91))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	assertStatus(t, svc, m.ID, StatusAccepted)

	// Below-threshold proposals stay pending.
	low, err := svc.Propose(ctx, threeWayCandidate("req_auto_low", 0.55))
	if err != nil {
		t.Fatalf("propose low: %v", err)
	}
	assertStatus(t, svc, low.ID, StatusProposed)
}

func TestMatchActiveConflict(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.Propose(ctx, threeWayCandidate("req_dup", 0.7)); err != nil {
		t.Fatalf("first proposal: %v", err)
	}
	if _, err := svc.Propose(ctx, threeWayCandidate("req_dup", 0.8)); err != ErrActiveMatch {
		t.Fatalf("expected ErrActiveMatch for duplicate proposal, got %v", err)
	}
}

func TestMatchInvalidTransitions(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	m, err := svc.Propose(ctx, threeWayCandidate("req_invalid", 0.7))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := svc.StartDelivery(ctx, StartDeliveryCommand{MatchID: m.ID, VolunteerID: "vol-1"}); err != ErrInvalidState {
		t.Fatalf("delivery before accept: expected ErrInvalidState, got %v", err)
	}
	if err := svc.Complete(ctx, CompleteCommand{MatchID: m.ID, ActorType: "donor"}); err != ErrInvalidState {
		t.Fatalf("complete before accept: expected ErrInvalidState, got %v", err)
	}

	if err := svc.Cancel(ctx, CancelCommand{MatchID: m.ID, ActorType: "recipient", Reason: "changed_mind"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Accept(ctx, AcceptCommand{MatchID: m.ID, ActorType: "recipient"}); err != ErrInvalidState {
		t.Fatalf("accept after cancel: expected ErrInvalidState, got %v", err)
	}
}

func TestDirectMatchSkipsDelivery(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	direct := threeWayCandidate("req_direct", 0.7)
	direct.MatchType = matching.MatchDirect
	direct.Volunteer = nil
	direct.VolunteerScore = nil

	m, err := svc.Propose(ctx, direct)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := svc.Accept(ctx, AcceptCommand{MatchID: m.ID, ActorType: "recipient"}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := svc.StartDelivery(ctx, StartDeliveryCommand{MatchID: m.ID, VolunteerID: "vol-1"}); err != ErrInvalidState {
		t.Fatalf("delivery on direct match: expected ErrInvalidState, got %v", err)
	}
	if err := svc.Complete(ctx, CompleteCommand{MatchID: m.ID, ActorType: "donor"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, svc, m.ID, StatusCompleted)
}

func TestConcurrentAcceptSameMatch(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	m, err := svc.Propose(ctx, threeWayCandidate("req_race", 0.7))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	const attempts = 6
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- svc.Accept(ctx, AcceptCommand{MatchID: m.ID, ActorType: "recipient"})
		}()
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful accept, got %d", success)
	}
	assertStatus(t, svc, m.ID, StatusAccepted)
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	m, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if m.Status != want {
		t.Fatalf("expected status %s, got %s", want, m.Status)
	}
}

func newTestService(t *testing.T, threshold float64) *Service {
	t.Helper()
	return NewService(setupTestStore(t), nopDonations{}, nopRequests{}, threshold)
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TULONG_TEST_DSN")
	if dsn == "" {
		t.Skip("TULONG_TEST_DSN not set; skipping DB-backed match tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE match_state_events, smart_matches"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.up.sql"))
	if err != nil {
		return err
	}
	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
