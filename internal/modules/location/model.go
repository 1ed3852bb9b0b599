// README: Volunteer position snapshots for persistence and replay.
package location

import (
	"time"

	"tulong/internal/types"
)

type Snapshot struct {
	ID         int64
	UserID     types.ID
	Position   types.Point
	RecordedAt time.Time
}

// Update is a volunteer position report from a client.
type Update struct {
	UserID   types.ID
	Position types.Point
}

// NearbyVolunteer is a volunteer id with its distance from a query point.
type NearbyVolunteer struct {
	UserID   types.ID
	Distance float64
}
