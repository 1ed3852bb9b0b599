// README: Criterion scoring with cached distance and reliability lookups.
package matching

import (
	"context"
	"math"
	"strings"
	"time"

	"tulong/internal/cache"
	"tulong/internal/logger"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/location"
	"tulong/internal/modules/request"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

const (
	distanceCacheTTL    = 5 * time.Minute
	reliabilityCacheTTL = 15 * time.Minute

	// neutralScore substitutes for any criterion whose lookup failed.
	neutralScore = 0.5

	// historyWindow is how many past deliveries count toward skill relevance.
	historyWindow = 20
)

// distKey is a structured composite key for pairwise distances; tuple keys
// cannot collide the way concatenated strings can. Pairs with a missing
// coordinate are never cached since their distance is known (nil) for free.
type distKey struct {
	lat1, lng1, lat2, lng2 float64
}

type userKind string

const (
	kindDonor     userKind = "donor"
	kindVolunteer userKind = "volunteer"
)

type relKey struct {
	kind userKind
	id   types.ID
}

// Scorer computes per-criterion normalized scores for candidate pairings.
// Distance and reliability are memoized with bounded TTLs because they are
// recomputed for every candidate in every ranking call.
type Scorer struct {
	repo          Repository
	maxDistanceKm float64
	distances     *cache.TTL[distKey, float64]
	reliability   *cache.TTL[relKey, float64]
}

// NewScorer builds a scorer around the repository. Caches are per-scorer;
// independent matcher instances never share state.
func NewScorer(repo Repository, maxDistanceKm float64, distanceTTL, reliabilityTTL time.Duration) *Scorer {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	if distanceTTL <= 0 {
		distanceTTL = distanceCacheTTL
	}
	if reliabilityTTL <= 0 {
		reliabilityTTL = reliabilityCacheTTL
	}
	return &Scorer{
		repo:          repo,
		maxDistanceKm: maxDistanceKm,
		distances:     cache.NewTTL[distKey, float64](distanceTTL),
		reliability:   cache.NewTTL[relKey, float64](reliabilityTTL),
	}
}

// Distance returns the cached great-circle distance between two optional
// positions, nil when either is unknown.
func (s *Scorer) Distance(a, b types.OptionalPoint) *float64 {
	pa, okA := a.PointOf()
	pb, okB := b.PointOf()
	if !okA || !okB {
		return nil
	}
	key := distKey{pa.Lat, pa.Lng, pb.Lat, pb.Lng}
	if d, ok := s.distances.Get(key); ok {
		return &d
	}
	d := location.DistanceBetween(pa, pb)
	s.distances.Set(key, d)
	return &d
}

// DonorReliability scores a donor from their completed-vs-total donation
// ratio with an assumed 4.0 rating, since donors carry no rating system.
func (s *Scorer) DonorReliability(ctx context.Context, donorID types.ID) (float64, error) {
	return s.reliability.GetOrCompute(relKey{kindDonor, donorID}, func() (float64, error) {
		st, err := s.repo.DonorStats(ctx, donorID)
		if err != nil {
			return 0, err
		}
		completionRate := 0.0
		if st.Total > 0 {
			completionRate = float64(st.Completed) / float64(st.Total)
		}
		return NormalizeReliability(4.0, completionRate, st.Total), nil
	})
}

// VolunteerReliability scores a volunteer from their aggregate delivery
// stats.
func (s *Scorer) VolunteerReliability(ctx context.Context, volunteerID types.ID) (float64, error) {
	return s.reliability.GetOrCompute(relKey{kindVolunteer, volunteerID}, func() (float64, error) {
		st, err := s.repo.VolunteerStats(ctx, volunteerID)
		if err != nil {
			return 0, err
		}
		return NormalizeReliability(st.AverageRating, st.CompletionRate(), st.TotalDeliveries), nil
	})
}

// ItemCompatibility blends category fit, quantity coverage, and title word
// overlap.
func ItemCompatibility(req request.Request, don donation.Donation) float64 {
	categoryScore := NormalizeCategoryMatch(req.Category, don.Category, nil, don.Subcategory)
	quantityScore := NormalizeQuantityMatch(don.Quantity, req.QuantityNeeded)
	titleScore := TitleSimilarity(req.Title, don.Title)
	return 0.5*categoryScore + 0.3*quantityScore + 0.2*titleScore
}

// deliveryCompatible lists mode pairs that work with modest friction.
var deliveryCompatible = map[donation.DeliveryMode][]donation.DeliveryMode{
	donation.ModeVolunteer: {donation.ModePickup, donation.ModeDirect},
	donation.ModePickup:    {donation.ModeVolunteer},
	donation.ModeDirect:    {donation.ModeVolunteer},
}

// DeliveryCompatibility scores two delivery modes: identical 1.0, workable
// 0.7, mismatched 0.3. A mismatch is friction, not a dealbreaker, so the
// floor stays above zero.
func DeliveryCompatibility(m1, m2 donation.DeliveryMode) float64 {
	if m1 == m2 {
		return 1.0
	}
	for _, c := range deliveryCompatible[m1] {
		if c == m2 {
			return 0.7
		}
	}
	return 0.3
}

// UrgencyResponse scores a volunteer's fit for a task urgency. Volunteers
// are assumed capable of any urgency once matched, so the table mostly
// rewards matching against urgent tasks.
func UrgencyResponse(u request.Urgency) float64 {
	switch u {
	case request.UrgencyLow:
		return 0.8
	case request.UrgencyMedium:
		return 0.9
	case request.UrgencyHigh, request.UrgencyCritical:
		return 1.0
	default:
		return 0.9
	}
}

// Availability penalizes volunteers by in-flight delivery count, a simple
// load proxy in place of calendar integration.
func (s *Scorer) Availability(ctx context.Context, volunteerID types.ID) (float64, error) {
	active, err := s.repo.ActiveDeliveryCount(ctx, volunteerID)
	if err != nil {
		return 0, err
	}
	return math.Max(0, 1.0-float64(active)*0.2), nil
}

// SkillCompatibility counts past deliveries relevant to the task (matching
// category or urgency), saturating at five.
func (s *Scorer) SkillCompatibility(ctx context.Context, task Task, volunteerID types.ID) (float64, error) {
	history, err := s.repo.VolunteerHistory(ctx, volunteerID, historyWindow)
	if err != nil {
		return 0, err
	}
	relevant := 0
	for _, d := range history {
		if strings.EqualFold(d.Category, task.Category) || d.Urgency == task.Urgency {
			relevant++
		}
	}
	return math.Min(1.0, float64(relevant)/5.0), nil
}

// donationUrgency reads a donation's urgency flag as a label comparable to
// request urgencies. An urgent donation aligns fully with high and critical
// requests.
func donationUrgency(don donation.Donation) request.Urgency {
	if don.IsUrgent {
		return request.UrgencyCritical
	}
	return request.UrgencyMedium
}

// WeightedTotal folds a criteria map into a single score using the given
// vector. Only criteria named by the vector contribute.
func WeightedTotal(criteria map[string]float64, weights Weights) float64 {
	var total float64
	for criterion, weight := range weights {
		total += criteria[criterion] * weight
	}
	return total
}

// ScoreDonorToRequest computes the full criteria map and weighted total for
// one donation candidate. Failed per-candidate lookups degrade to a neutral
// score rather than failing the batch.
func (s *Scorer) ScoreDonorToRequest(ctx context.Context, req request.Request, don donation.Donation, weights Weights) DonorMatch {
	criteria := make(map[string]float64, len(weights))

	criteria[CriterionGeographic] = NormalizeDistance(s.Distance(donorPosition(don), req.Location), s.maxDistanceKm)
	criteria[CriterionItemCompat] = ItemCompatibility(req, don)
	criteria[CriterionUrgencyAlign] = NormalizeUrgencyAlignment(req.Urgency, donationUrgency(don))
	criteria[CriterionDeliveryCompat] = DeliveryCompatibility(req.DeliveryMode, don.DeliveryMode)

	reliab, err := s.DonorReliability(ctx, don.DonorID)
	if err != nil {
		logger.Warn().Err(err).Str("donor_id", string(don.DonorID)).
			Msg("donor reliability lookup failed; substituting neutral score")
		reliab = neutralScore
	}
	criteria[CriterionDonorReliab] = reliab

	total := WeightedTotal(criteria, weights)
	return DonorMatch{
		Donation:       don,
		Score:          total,
		CriteriaScores: criteria,
		MatchReason:    Reason(criteria, weights),
	}
}

// ScoreVolunteerForTask computes the criteria map and weighted total for one
// volunteer candidate against a delivery task.
func (s *Scorer) ScoreVolunteerForTask(ctx context.Context, task Task, vol volunteer.Volunteer, weights Weights) VolunteerMatch {
	criteria := make(map[string]float64, len(weights))

	criteria[CriterionGeographic] = NormalizeDistance(s.Distance(vol.Position, task.Pickup), s.maxDistanceKm)
	criteria[CriterionUrgencyResponse] = UrgencyResponse(task.Urgency)

	avail, err := s.Availability(ctx, vol.ID)
	if err != nil {
		logger.Warn().Err(err).Str("volunteer_id", string(vol.ID)).
			Msg("availability lookup failed; substituting neutral score")
		avail = neutralScore
	}
	criteria[CriterionAvailability] = avail

	skill, err := s.SkillCompatibility(ctx, task, vol.ID)
	if err != nil {
		logger.Warn().Err(err).Str("volunteer_id", string(vol.ID)).
			Msg("skill lookup failed; substituting neutral score")
		skill = neutralScore
	}
	criteria[CriterionSkillMatch] = skill

	reliab, err := s.VolunteerReliability(ctx, vol.ID)
	if err != nil {
		logger.Warn().Err(err).Str("volunteer_id", string(vol.ID)).
			Msg("volunteer reliability lookup failed; substituting neutral score")
		reliab = neutralScore
	}
	criteria[CriterionVolReliab] = reliab

	total := WeightedTotal(criteria, weights)
	return VolunteerMatch{
		Volunteer:      vol,
		Score:          total,
		CriteriaScores: criteria,
		MatchReason:    Reason(criteria, weights),
	}
}

// ScoreDonorVolunteer rates the donor↔volunteer leg of a composed match from
// data already in hand; it issues no repository calls of its own beyond the
// cached volunteer reliability.
func (s *Scorer) ScoreDonorVolunteer(ctx context.Context, don donation.Donation, vol volunteer.Volunteer, weights Weights) float64 {
	criteria := make(map[string]float64, len(weights))

	criteria[CriterionGeographic] = NormalizeDistance(s.Distance(donorPosition(don), vol.Position), s.maxDistanceKm)
	criteria[CriterionDeliveryPref] = DeliveryCompatibility(don.DeliveryMode, donation.ModeVolunteer)

	reliab, err := s.VolunteerReliability(ctx, vol.ID)
	if err != nil {
		reliab = neutralScore
	}
	criteria[CriterionReliability] = reliab
	// No direct communication signal exists yet; reuse reliability as the
	// closest observable proxy.
	criteria[CriterionCommunication] = reliab

	timing := neutralScore
	if don.Status == donation.StatusAvailable {
		timing = 1.0
	}
	criteria[CriterionTiming] = timing

	return WeightedTotal(criteria, weights)
}

// donorPosition prefers the explicit pickup point, falling back to the
// donor's home position.
func donorPosition(don donation.Donation) types.OptionalPoint {
	if don.Pickup.Valid() {
		return don.Pickup
	}
	return don.Donor.Position
}

// CacheStats exposes hit/miss counters for observability endpoints.
func (s *Scorer) CacheStats() (distances, reliability cache.Stats) {
	return s.distances.Stats(), s.reliability.Stats()
}
