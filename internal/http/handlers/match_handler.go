// README: Matching engine handlers: donor ranking, volunteer ranking, optimal sweep.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tulong/internal/modules/matching"
	"tulong/internal/modules/request"
	"tulong/internal/types"
)

// matchTimeout bounds a single ranking run; the engine itself sets no
// deadlines and relies on the caller's context.
const matchTimeout = 15 * time.Second

type MatchHandler struct {
	matching *matching.Service
	requests *request.Store
}

func NewMatchHandler(matchingSvc *matching.Service, requests *request.Store) *MatchHandler {
	return &MatchHandler{matching: matchingSvc, requests: requests}
}

type donorMatchResp struct {
	DonationID     string             `json:"donation_id"`
	DonorID        string             `json:"donor_id"`
	Title          string             `json:"title"`
	Score          float64            `json:"score"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	MatchReason    string             `json:"match_reason"`
}

// DonorsForRequest ranks available donations for the request in the path.
func (h *MatchHandler) DonorsForRequest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing request id")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), matchTimeout)
	defer cancel()

	req, err := h.requests.Get(ctx, types.ID(id))
	if err != nil {
		writeMatchError(c, err)
		return
	}

	results, err := h.matching.MatchDonorsToRequest(ctx, *req, nil, maxResults(c))
	if err != nil {
		writeMatchError(c, err)
		return
	}

	out := make([]donorMatchResp, 0, len(results))
	for _, m := range results {
		out = append(out, donorMatchResp{
			DonationID:     string(m.Donation.ID),
			DonorID:        string(m.Donation.DonorID),
			Title:          m.Donation.Title,
			Score:          m.Score,
			CriteriaScores: m.CriteriaScores,
			MatchReason:    m.MatchReason,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"request_id": id, "matches": out})
}

type taskReq struct {
	RequestID  string   `json:"request_id"`
	DonationID string   `json:"donation_id"`
	Category   string   `json:"category"`
	Urgency    string   `json:"urgency"`
	PickupLat  *float64 `json:"pickup_lat"`
	PickupLng  *float64 `json:"pickup_lng"`
	DropoffLat *float64 `json:"dropoff_lat"`
	DropoffLng *float64 `json:"dropoff_lng"`
}

type volunteerMatchResp struct {
	VolunteerID    string             `json:"volunteer_id"`
	Name           string             `json:"name"`
	Score          float64            `json:"score"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	MatchReason    string             `json:"match_reason"`
}

// VolunteersForTask ranks active volunteers for a delivery task in the body.
func (h *MatchHandler) VolunteersForTask(c *gin.Context) {
	var body taskReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Category == "" {
		writeError(c, http.StatusBadRequest, "missing category")
		return
	}

	task := matching.Task{
		RequestID:  types.ID(body.RequestID),
		DonationID: types.ID(body.DonationID),
		Category:   body.Category,
		Urgency:    request.Urgency(body.Urgency),
		Pickup:     types.OptionalPoint{Lat: body.PickupLat, Lng: body.PickupLng},
		Dropoff:    types.OptionalPoint{Lat: body.DropoffLat, Lng: body.DropoffLng},
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), matchTimeout)
	defer cancel()

	results, err := h.matching.MatchVolunteersToTask(ctx, task, nil, maxResults(c))
	if err != nil {
		writeMatchError(c, err)
		return
	}

	out := make([]volunteerMatchResp, 0, len(results))
	for _, m := range results {
		out = append(out, volunteerMatchResp{
			VolunteerID:    string(m.Volunteer.ID),
			Name:           m.Volunteer.Name,
			Score:          m.Score,
			CriteriaScores: m.CriteriaScores,
			MatchReason:    m.MatchReason,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": out})
}

type optimalMatchResp struct {
	RequestID                string   `json:"request_id"`
	DonationID               string   `json:"donation_id"`
	VolunteerID              *string  `json:"volunteer_id,omitempty"`
	MatchType                string   `json:"match_type"`
	CombinedScore            float64  `json:"combined_score"`
	DonorScore               float64  `json:"donor_score"`
	VolunteerScore           *float64 `json:"volunteer_score,omitempty"`
	MatchReason              string   `json:"match_reason"`
	EstimatedDeliveryMinutes int      `json:"estimated_delivery_minutes"`
}

// Optimal runs the global sweep over all open requests.
func (h *MatchHandler) Optimal(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), matchTimeout)
	defer cancel()

	results, err := h.matching.FindOptimalMatches(ctx, nil, nil, nil)
	if err != nil {
		writeMatchError(c, err)
		return
	}

	out := make([]optimalMatchResp, 0, len(results))
	for _, m := range results {
		r := optimalMatchResp{
			RequestID:                string(m.Request.ID),
			DonationID:               string(m.Donation.ID),
			MatchType:                string(m.MatchType),
			CombinedScore:            m.CombinedScore,
			DonorScore:               m.DonorScore,
			VolunteerScore:           m.VolunteerScore,
			MatchReason:              m.MatchReason,
			EstimatedDeliveryMinutes: m.EstimatedDeliveryMinutes,
		}
		if m.Volunteer != nil {
			id := string(m.Volunteer.ID)
			r.VolunteerID = &id
		}
		out = append(out, r)
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": out})
}

func maxResults(c *gin.Context) int {
	raw := c.Query("max_results")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
