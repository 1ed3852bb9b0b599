// README: Volunteer profile, delivery history, and aggregate stats.
package volunteer

import (
	"time"

	"tulong/internal/modules/request"
	"tulong/internal/types"
)

type Volunteer struct {
	ID       types.ID
	Name     string
	Position types.OptionalPoint
	IsActive bool
}

// Stats aggregates a volunteer's delivery record. AverageRating is 0 when
// no delivery has been rated yet.
type Stats struct {
	AverageRating       float64
	TotalDeliveries     int
	CompletedDeliveries int
}

// CompletionRate returns completed/total, or 0 with no history.
func (s Stats) CompletionRate() float64 {
	if s.TotalDeliveries == 0 {
		return 0
	}
	return float64(s.CompletedDeliveries) / float64(s.TotalDeliveries)
}

type DeliveryStatus string

const (
	DeliveryAssigned   DeliveryStatus = "assigned"
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

// Delivery is one entry of a volunteer's history; category and urgency are
// denormalized from the originating request so relevance checks need no join.
type Delivery struct {
	ID          types.ID
	VolunteerID types.ID
	RequestID   types.ID
	DonationID  types.ID
	Category    string
	Urgency     request.Urgency
	Status      DeliveryStatus
	Rating      *float64
	CreatedAt   time.Time
	CompletedAt *time.Time
}
