// README: Row-scanning tests for the match store.
package smartmatch

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// stubScanner is a rowScanner double returning a fixed error.
type stubScanner struct {
	err error
}

func (s stubScanner) Scan(...any) error { return s.err }

// TestScanMatch_NoRows verifies that a missing row surfaces as ErrNotFound,
// which the HTTP layer maps to 404. pgxpool returns pgx.ErrNoRows, not
// database/sql's sentinel.
func TestScanMatch_NoRows(t *testing.T) {
	_, err := scanMatch(stubScanner{err: pgx.ErrNoRows})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("scanMatch on pgx.ErrNoRows = %v, want ErrNotFound", err)
	}
}

// TestScanMatch_OtherErrorPassesThrough verifies that scan failures other
// than no-rows are not masked as not-found.
func TestScanMatch_OtherErrorPassesThrough(t *testing.T) {
	scanErr := errors.New("connection reset")
	_, err := scanMatch(stubScanner{err: scanErr})
	if !errors.Is(err, scanErr) {
		t.Errorf("scanMatch = %v, want %v", err, scanErr)
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("scanMatch reported ErrNotFound for a non-no-rows failure")
	}
}
