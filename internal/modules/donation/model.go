// README: Donation aggregate, status and delivery-mode definitions.
package donation

import (
	"time"

	"tulong/internal/types"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusMatched   Status = "matched"
	StatusClaimed   Status = "claimed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DeliveryMode describes how a donation reaches a recipient.
type DeliveryMode string

const (
	ModePickup    DeliveryMode = "pickup"
	ModeVolunteer DeliveryMode = "volunteer"
	ModeDirect    DeliveryMode = "direct"
)

// NeedsVolunteer reports whether this mode requires a delivery volunteer.
func (m DeliveryMode) NeedsVolunteer() bool {
	return m == ModeVolunteer
}

// DonorProfile is the slice of the donor's user row the matcher needs.
// Donors carry no rating of their own; reliability comes from DonorStats.
type DonorProfile struct {
	Position types.OptionalPoint
}

type Donation struct {
	ID           types.ID
	DonorID      types.ID
	Category     string
	Subcategory  *string
	Title        string
	Quantity     *float64
	Status       Status
	DeliveryMode DeliveryMode
	IsUrgent     bool
	Pickup       types.OptionalPoint
	Donor        DonorProfile
	CreatedAt    time.Time
}

// DonorStats is the completed-vs-total donation history used as the donor
// reliability signal. Donors carry no separate rating system.
type DonorStats struct {
	Total     int
	Completed int
}
