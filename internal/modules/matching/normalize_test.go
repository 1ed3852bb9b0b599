package matching

import (
	"math"
	"testing"
	"time"

	"tulong/internal/modules/request"
)

func fptr(f float64) *float64 { return &f }
func sptr(s string) *string   { return &s }

func TestNormalizeDistance(t *testing.T) {
	tests := []struct {
		name string
		d    *float64
		want float64
	}{
		{"unknown", nil, 0.5},
		{"nan", fptr(math.NaN()), 0.5},
		{"infinite", fptr(math.Inf(1)), 0.5},
		{"zero", fptr(0), 1.0},
		{"negative clamps to one", fptr(-3), 1.0},
		{"at cutoff", fptr(50), 0.0},
		{"beyond cutoff", fptr(120), 0.0},
		{"halfway", fptr(25), 0.5},
		{"ten km", fptr(10), 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDistance(tt.d, DefaultMaxDistanceKm)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeDistance_Range(t *testing.T) {
	for d := 0.0; d <= 100; d += 0.5 {
		got := NormalizeDistance(&d, DefaultMaxDistanceKm)
		if got < 0 || got > 1 {
			t.Fatalf("NormalizeDistance(%v) = %v out of [0,1]", d, got)
		}
	}
}

func TestNormalizeCategoryMatch(t *testing.T) {
	tests := []struct {
		name       string
		cat1, cat2 string
		sub1, sub2 *string
		want       float64
	}{
		{"exact", "food", "food", nil, nil, 1.0},
		{"exact case-insensitive", "Food", "food", nil, nil, 1.0},
		{"exact with same subcategory", "food", "food", sptr("canned"), sptr("canned"), 1.0},
		{"exact with differing subcategory", "food", "food", sptr("canned"), sptr("fresh"), 0.8},
		{"related", "food", "groceries", nil, nil, 0.6},
		{"related reversed", "meals", "food", nil, nil, 0.6},
		{"unrelated", "food", "clothing", nil, nil, 0.0},
		{"empty category", "", "food", nil, nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCategoryMatch(tt.cat1, tt.cat2, tt.sub1, tt.sub2)
			if got != tt.want {
				t.Errorf("NormalizeCategoryMatch(%q,%q) = %v, want %v", tt.cat1, tt.cat2, got, tt.want)
			}
		})
	}
}

func TestNormalizeUrgencyAlignment(t *testing.T) {
	for _, u := range []request.Urgency{request.UrgencyLow, request.UrgencyMedium, request.UrgencyHigh, request.UrgencyCritical} {
		if got := NormalizeUrgencyAlignment(u, u); got != 1.0 {
			t.Errorf("NormalizeUrgencyAlignment(%s,%s) = %v, want 1.0", u, u, got)
		}
	}

	// Alignment strictly decreases as the ordinal gap widens.
	gap1 := NormalizeUrgencyAlignment(request.UrgencyLow, request.UrgencyMedium)
	gap3 := NormalizeUrgencyAlignment(request.UrgencyLow, request.UrgencyCritical)
	if gap3 >= gap1 {
		t.Errorf("low/critical (%v) should score below low/medium (%v)", gap3, gap1)
	}

	want := math.Exp(-1 / 1.5)
	if math.Abs(gap1-want) > 1e-9 {
		t.Errorf("adjacent gap = %v, want %v", gap1, want)
	}

	// Unknown labels read as medium.
	if got := NormalizeUrgencyAlignment("unknown", request.UrgencyMedium); got != 1.0 {
		t.Errorf("unknown vs medium = %v, want 1.0", got)
	}
}

func TestNormalizeReliability(t *testing.T) {
	tests := []struct {
		name           string
		rating         float64
		completionRate float64
		totalTasks     int
		want           float64
	}{
		{"no history", 0, 0, 0, 0},
		{"perfect saturates", 5, 1, 10, 1.0},
		{"rating dominates", 5, 0, 0, 0.7},
		{"completion only", 0, 1, 0, 0.3},
		{"experience capped", 0, 0, 100, 0.2},
		{"mixed", 4, 0.5, 5, 4.0/5*0.7 + 0.5*0.3 + 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeReliability(tt.rating, tt.completionRate, tt.totalTasks)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeReliability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeTimeCompatibility(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(hours float64) *time.Time {
		t := base.Add(time.Duration(hours * float64(time.Hour)))
		return &t
	}

	if got := NormalizeTimeCompatibility(nil, &base, 24); got != 0.5 {
		t.Errorf("missing available time = %v, want 0.5", got)
	}
	if got := NormalizeTimeCompatibility(&base, nil, 24); got != 0.5 {
		t.Errorf("missing needed time = %v, want 0.5", got)
	}
	if got := NormalizeTimeCompatibility(at(12), &base, 24); got != 1.0 {
		t.Errorf("inside window = %v, want 1.0", got)
	}
	if got := NormalizeTimeCompatibility(at(24*7), &base, 24); got != 0.0 {
		t.Errorf("at seven windows = %v, want 0.0", got)
	}
	mid := NormalizeTimeCompatibility(at(96), &base, 24)
	if mid <= 0 || mid >= 1 {
		t.Errorf("mid-decay = %v, want within (0,1)", mid)
	}
}

func TestNormalizeQuantityMatch(t *testing.T) {
	tests := []struct {
		name      string
		available *float64
		needed    *float64
		want      float64
	}{
		{"covered", fptr(10), fptr(5), 1.0},
		{"exactly covered", fptr(5), fptr(5), 1.0},
		{"half covered", fptr(2), fptr(4), 0.5},
		{"nothing available", fptr(0), fptr(4), 0.0},
		{"nothing needed", fptr(3), nil, 1.0},
		{"zero needed", fptr(3), fptr(0), 1.0},
		{"unknown supply", nil, fptr(4), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuantityMatch(tt.available, tt.needed)
			if got != tt.want {
				t.Errorf("NormalizeQuantityMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "canned goods", "canned goods", 1.0},
		{"case-insensitive", "Canned Goods", "canned goods", 1.0},
		{"disjoint", "rice", "blankets", 0.0},
		{"empty", "", "rice", 0.0},
		{"partial overlap", "rice and beans", "rice and lentils", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TitleSimilarity(%q,%q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
