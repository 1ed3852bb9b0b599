// README: Persisted match handlers: propose, lifecycle, lookup.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tulong/internal/http/middleware"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/matching"
	"tulong/internal/modules/request"
	"tulong/internal/modules/smartmatch"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

type SmartMatchHandler struct {
	matches *smartmatch.Service
}

func NewSmartMatchHandler(matches *smartmatch.Service) *SmartMatchHandler {
	return &SmartMatchHandler{matches: matches}
}

type proposeReq struct {
	RequestID                string   `json:"request_id"`
	DonationID               string   `json:"donation_id"`
	VolunteerID              *string  `json:"volunteer_id"`
	MatchType                string   `json:"match_type"`
	CombinedScore            float64  `json:"combined_score"`
	DonorScore               float64  `json:"donor_score"`
	VolunteerScore           *float64 `json:"volunteer_score"`
	MatchReason              string   `json:"match_reason"`
	EstimatedDeliveryMinutes int      `json:"estimated_delivery_minutes"`
}

// Create persists a scored match as a proposal.
func (h *SmartMatchHandler) Create(c *gin.Context) {
	var body proposeReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.RequestID == "" || body.DonationID == "" {
		writeError(c, http.StatusBadRequest, "missing request_id or donation_id")
		return
	}

	candidate := matching.ThreeWayMatch{
		Request:                  request.Request{ID: types.ID(body.RequestID)},
		Donation:                 donation.Donation{ID: types.ID(body.DonationID)},
		CombinedScore:            body.CombinedScore,
		DonorScore:               body.DonorScore,
		VolunteerScore:           body.VolunteerScore,
		MatchType:                matching.MatchType(body.MatchType),
		MatchReason:              body.MatchReason,
		EstimatedDeliveryMinutes: body.EstimatedDeliveryMinutes,
	}
	if candidate.MatchType == "" {
		candidate.MatchType = matching.MatchDirect
	}
	if body.VolunteerID != nil {
		candidate.Volunteer = &volunteer.Volunteer{ID: types.ID(*body.VolunteerID)}
		candidate.MatchType = matching.MatchThreeWay
	}

	m, err := h.matches.Propose(c.Request.Context(), candidate)
	if err != nil {
		writeMatchError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, matchResponse(m))
}

func (h *SmartMatchHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing match id")
		return
	}
	m, err := h.matches.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeMatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, matchResponse(m))
}

// List returns matches for a request, newest first.
func (h *SmartMatchHandler) List(c *gin.Context) {
	requestID := c.Query("request_id")
	if requestID == "" {
		writeError(c, http.StatusBadRequest, "missing request_id")
		return
	}
	ms, err := h.matches.ListByRequest(c.Request.Context(), types.ID(requestID))
	if err != nil {
		writeMatchError(c, err)
		return
	}
	out := make([]gin.H, 0, len(ms))
	for i := range ms {
		out = append(out, matchResponse(&ms[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": out})
}

type statusReq struct {
	Action      string `json:"action"`
	VolunteerID string `json:"volunteer_id"`
	Reason      string `json:"reason"`
}

// UpdateStatus drives the match through its lifecycle.
func (h *SmartMatchHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing match id")
		return
	}
	var body statusReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := c.Request.Context()
	actor := callerActor(c)
	matchID := types.ID(id)

	var err error
	switch body.Action {
	case "accept":
		err = h.matches.Accept(ctx, smartmatch.AcceptCommand{MatchID: matchID, ActorType: actor.kind, ActorID: actor.id})
	case "start_delivery":
		volunteerID := types.ID(body.VolunteerID)
		if volunteerID == "" {
			volunteerID = types.ID(middleware.CallerUID(c))
		}
		err = h.matches.StartDelivery(ctx, smartmatch.StartDeliveryCommand{MatchID: matchID, VolunteerID: volunteerID})
	case "complete":
		err = h.matches.Complete(ctx, smartmatch.CompleteCommand{MatchID: matchID, ActorType: actor.kind, ActorID: actor.id})
	case "cancel":
		err = h.matches.Cancel(ctx, smartmatch.CancelCommand{MatchID: matchID, ActorType: actor.kind, ActorID: actor.id, Reason: body.Reason})
	default:
		writeError(c, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		writeMatchError(c, err)
		return
	}

	m, err := h.matches.Get(ctx, matchID)
	if err != nil {
		writeMatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, matchResponse(m))
}

type actorInfo struct {
	kind string
	id   *types.ID
}

func callerActor(c *gin.Context) actorInfo {
	kind := middleware.CallerRole(c)
	if kind == "" {
		kind = "user"
	}
	uid := middleware.CallerUID(c)
	if uid == "" {
		return actorInfo{kind: kind}
	}
	id := types.ID(uid)
	return actorInfo{kind: kind, id: &id}
}

func matchResponse(m *smartmatch.Match) gin.H {
	resp := gin.H{
		"match_id":                   m.ID,
		"request_id":                 m.RequestID,
		"donation_id":                m.DonationID,
		"match_type":                 m.MatchType,
		"combined_score":             m.CombinedScore,
		"donor_score":                m.DonorScore,
		"match_reason":               m.MatchReason,
		"estimated_delivery_minutes": m.EstimatedDeliveryMinutes,
		"status":                     m.Status,
		"created_at":                 m.CreatedAt.Format(time.RFC3339),
	}
	if m.VolunteerID != nil {
		resp["volunteer_id"] = *m.VolunteerID
	}
	if m.VolunteerScore != nil {
		resp["volunteer_score"] = *m.VolunteerScore
	}
	if m.CancelReason != nil {
		resp["cancellation_reason"] = *m.CancelReason
	}
	return resp
}
