// README: Persisted match aggregate and status flow.
package smartmatch

import (
	"time"

	"tulong/internal/modules/matching"
	"tulong/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusProposed   Status = "proposed"
	StatusAccepted   Status = "accepted"
	StatusInDelivery Status = "in_delivery"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Match struct {
	ID                       types.ID
	RequestID                types.ID
	DonationID               types.ID
	VolunteerID              *types.ID
	MatchType                matching.MatchType
	CombinedScore            float64
	DonorScore               float64
	VolunteerScore           *float64
	MatchReason              string
	EstimatedDeliveryMinutes int
	Status                   Status
	StatusVersion            int
	CreatedAt                time.Time
	AcceptedAt               *time.Time
	PickedUpAt               *time.Time
	CompletedAt              *time.Time
	CancelledAt              *time.Time
	CancelReason             *string
}

type Event struct {
	ID         int64
	MatchID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the match state flow (diagram) as code.
// Direct matches skip in_delivery and complete straight from accepted.
var AllowedTransitions = map[Status][]Status{
	StatusProposed:   {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInDelivery, StatusCompleted, StatusCancelled},
	StatusInDelivery: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
