// README: Matching engine data shapes: tasks, scored candidates, three-way matches.
package matching

import (
	"context"

	"tulong/internal/modules/donation"
	"tulong/internal/modules/request"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

// Criterion names. Criteria score maps and weight vectors share these keys;
// a criterion absent from the weight vector contributes nothing.
const (
	CriterionGeographic     = "geographic_proximity"
	CriterionItemCompat     = "item_compatibility"
	CriterionUrgencyAlign   = "urgency_alignment"
	CriterionDonorReliab    = "donor_reliability"
	CriterionDeliveryCompat = "delivery_compatibility"

	CriterionAvailability    = "availability"
	CriterionSkillMatch      = "skill_match"
	CriterionVolReliab       = "volunteer_reliability"
	CriterionUrgencyResponse = "urgency_response"

	CriterionReliability   = "reliability"
	CriterionDeliveryPref  = "delivery_preference"
	CriterionCommunication = "communication"
	CriterionTiming        = "timing"
)

// Task is an ad hoc delivery unit derived from a (request, donation) pair.
// It is constructed by callers and never persisted by the engine.
type Task struct {
	RequestID  types.ID
	DonationID types.ID
	Category   string
	Urgency    request.Urgency
	Pickup     types.OptionalPoint
	Dropoff    types.OptionalPoint
}

// TaskFor derives the delivery task for a matched (request, donation) pair.
// Pickup falls back to the donor's home position when the donation has no
// explicit pickup point.
func TaskFor(req request.Request, don donation.Donation) Task {
	pickup := don.Pickup
	if !pickup.Valid() {
		pickup = don.Donor.Position
	}
	return Task{
		RequestID:  req.ID,
		DonationID: don.ID,
		Category:   don.Category,
		Urgency:    req.Urgency,
		Pickup:     pickup,
		Dropoff:    req.Location,
	}
}

// DonorMatch is a scored donation candidate for a request.
type DonorMatch struct {
	Donation       donation.Donation
	Score          float64
	CriteriaScores map[string]float64
	MatchReason    string
}

// VolunteerMatch is a scored volunteer candidate for a delivery task.
type VolunteerMatch struct {
	Volunteer      volunteer.Volunteer
	Score          float64
	CriteriaScores map[string]float64
	MatchReason    string
}

type MatchType string

const (
	MatchDirect   MatchType = "direct"
	MatchThreeWay MatchType = "three_way"
)

// ThreeWayMatch composes a request, a donation, and (when delivery needs one)
// a volunteer. Scores are ephemeral; persistence of an accepted match is the
// smartmatch module's concern.
type ThreeWayMatch struct {
	Request        request.Request
	Donation       donation.Donation
	Volunteer      *volunteer.Volunteer
	CombinedScore  float64
	DonorScore     float64
	VolunteerScore *float64
	MatchType      MatchType
	// MatchReason carries the donor-side criteria explanation.
	MatchReason string
	// EstimatedDeliveryMinutes is a coarse ETA for the delivery leg.
	EstimatedDeliveryMinutes int
}

// Repository is the external data collaborator. Systemic failures from these
// calls propagate out of the top-level matching operations; per-candidate
// lookups that fail are substituted with neutral scores instead.
type Repository interface {
	AvailableDonations(ctx context.Context) ([]donation.Donation, error)
	OpenRequests(ctx context.Context) ([]request.Request, error)
	// ActiveVolunteersNear lists active volunteers, narrowed to radiusKm
	// around p when a position is given and narrowing is supported.
	ActiveVolunteersNear(ctx context.Context, p *types.Point, radiusKm float64) ([]volunteer.Volunteer, error)
	VolunteerStats(ctx context.Context, id types.ID) (volunteer.Stats, error)
	VolunteerHistory(ctx context.Context, id types.ID, limit int) ([]volunteer.Delivery, error)
	ActiveDeliveryCount(ctx context.Context, id types.ID) (int, error)
	DonorStats(ctx context.Context, id types.ID) (donation.DonorStats, error)
}

// TravelTimer estimates the travel time between two points, e.g. via a road
// routing API. The engine falls back to a distance-based formula when no
// estimator is configured or the estimate fails.
type TravelTimer interface {
	TravelTimeMinutes(ctx context.Context, from, to types.Point) (int, error)
}
