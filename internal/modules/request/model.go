// README: Aid request aggregate and urgency definitions.
package request

import (
	"time"

	"tulong/internal/modules/donation"
	"tulong/internal/types"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusClaimed   Status = "claimed"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

type Request struct {
	ID             types.ID
	RequesterID    types.ID
	Category       string
	Title          string
	QuantityNeeded *float64
	Urgency        Urgency
	DeliveryMode   donation.DeliveryMode
	Location       types.OptionalPoint
	Status         Status
	CreatedAt      time.Time
}
