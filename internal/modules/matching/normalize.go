// README: Pure normalization functions mapping raw signals onto [0,1].
package matching

import (
	"math"
	"strings"
	"time"

	"tulong/internal/modules/request"
)

// DefaultMaxDistanceKm is the distance at which geographic proximity decays
// to zero.
const DefaultMaxDistanceKm = 50.0

// NormalizeDistance maps a distance in kilometres onto [0,1]: 1.0 at or below
// zero, linear decay to 0.0 at maxKm. A nil or non-finite distance means the
// position of one side is unknown and scores a neutral 0.5 — missing data is
// neither rewarded nor punished.
func NormalizeDistance(distanceKm *float64, maxKm float64) float64 {
	if distanceKm == nil || math.IsNaN(*distanceKm) || math.IsInf(*distanceKm, 0) {
		return 0.5
	}
	d := *distanceKm
	switch {
	case d <= 0:
		return 1.0
	case d >= maxKm:
		return 0.0
	default:
		return 1.0 - d/maxKm
	}
}

// relatedCategories is a static bidirectional lookup of categories close
// enough to partially satisfy each other.
var relatedCategories = map[string][]string{
	"food":      {"groceries", "meals"},
	"groceries": {"food", "meals"},
	"meals":     {"food", "groceries"},
	"clothing":  {"shoes", "accessories"},
	"furniture": {"appliances"},
	"books":     {"school_supplies"},
	"medicine":  {"medical_supplies"},
}

// NormalizeCategoryMatch scores how well two categories line up: 1.0 on an
// exact match (0.8 when subcategories are both present and differ), 0.6 for
// related categories, 0.0 otherwise. Comparison is case-insensitive.
func NormalizeCategoryMatch(cat1, cat2 string, sub1, sub2 *string) float64 {
	c1 := strings.ToLower(strings.TrimSpace(cat1))
	c2 := strings.ToLower(strings.TrimSpace(cat2))
	if c1 == "" || c2 == "" {
		return 0.0
	}

	if c1 == c2 {
		if sub1 != nil && sub2 != nil &&
			!strings.EqualFold(strings.TrimSpace(*sub1), strings.TrimSpace(*sub2)) {
			return 0.8
		}
		return 1.0
	}

	if categoriesRelated(c1, c2) || categoriesRelated(c2, c1) {
		return 0.6
	}
	return 0.0
}

func categoriesRelated(main, other string) bool {
	for _, rel := range relatedCategories[main] {
		if rel == other {
			return true
		}
	}
	return false
}

// urgencyLevel maps urgency labels onto ordinal levels; unknown labels read
// as medium.
func urgencyLevel(u request.Urgency) float64 {
	switch u {
	case request.UrgencyLow:
		return 1
	case request.UrgencyMedium:
		return 2
	case request.UrgencyHigh:
		return 3
	case request.UrgencyCritical:
		return 4
	default:
		return 2
	}
}

// NormalizeUrgencyAlignment scores how closely two urgency labels agree,
// with exponential decay over the ordinal gap: equal labels score 1.0, a
// one-level gap barely penalizes, a three-level gap strongly does.
func NormalizeUrgencyAlignment(u1, u2 request.Urgency) float64 {
	gap := math.Abs(urgencyLevel(u1) - urgencyLevel(u2))
	return math.Exp(-gap / 1.5)
}

// NormalizeReliability folds rating (0..5), completion rate (0..1), and task
// count into one score. Rating dominates, completion rate is second, and a
// small experience bonus is capped at 0.2 so veterans cannot buy their way
// past a bad rating.
func NormalizeReliability(rating, completionRate float64, totalTasks int) float64 {
	experience := math.Min(float64(totalTasks)/10.0, 0.2)
	return math.Min(1.0, rating/5.0*0.7+completionRate*0.3+experience)
}

// NormalizeTimeCompatibility scores how well an available time fits a needed
// time: 1.0 inside the flexibility window, then linear decay to 0 at seven
// times the window. Either time missing scores a neutral 0.5.
func NormalizeTimeCompatibility(availableTime, neededTime *time.Time, flexibilityHours float64) float64 {
	if availableTime == nil || neededTime == nil {
		return 0.5
	}
	diffHours := math.Abs(availableTime.Sub(*neededTime).Hours())
	if diffHours <= flexibilityHours {
		return 1.0
	}
	return math.Max(0, 1.0-(diffHours-flexibilityHours)/(6*flexibilityHours))
}

// NormalizeQuantityMatch scores available supply against needed demand: full
// coverage scores 1.0, partial coverage scores the coverage ratio. A missing
// or non-positive need means nothing is required (1.0); a missing supply is
// unknown and scores neutral.
func NormalizeQuantityMatch(available, needed *float64) float64 {
	if needed == nil || *needed <= 0 {
		return 1.0
	}
	if available == nil {
		return 0.5
	}
	if *available >= *needed {
		return 1.0
	}
	if *available <= 0 {
		return 0.0
	}
	return *available / *needed
}

// TitleSimilarity is the Jaccard similarity of the lower-cased word sets of
// two titles: intersection over union, 0 when either set is empty.
func TitleSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
