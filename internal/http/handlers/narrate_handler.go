// README: AI narration handler: turns a persisted match into notification copy.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tulong/internal/ai"
	"tulong/internal/logger"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/request"
	"tulong/internal/modules/smartmatch"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

type NarrateHandler struct {
	matches    *smartmatch.Service
	donations  *donation.Store
	requests   *request.Store
	volunteers *volunteer.Store
	narrator   ai.Narrator
	fallback   ai.Narrator
}

func NewNarrateHandler(
	matches *smartmatch.Service,
	donations *donation.Store,
	requests *request.Store,
	volunteers *volunteer.Store,
	narrator ai.Narrator,
) *NarrateHandler {
	return &NarrateHandler{
		matches:    matches,
		donations:  donations,
		requests:   requests,
		volunteers: volunteers,
		narrator:   narrator,
		fallback:   ai.NewTemplateNarrator(),
	}
}

func (h *NarrateHandler) Narrate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing match id")
		return
	}
	ctx := c.Request.Context()

	m, err := h.matches.Get(ctx, types.ID(id))
	if err != nil {
		writeMatchError(c, err)
		return
	}

	input := ai.MatchNarrative{
		Score:                    m.CombinedScore,
		Reason:                   m.MatchReason,
		EstimatedDeliveryMinutes: m.EstimatedDeliveryMinutes,
	}
	if don, err := h.donations.Get(ctx, m.DonationID); err == nil {
		input.DonationTitle = don.Title
		input.Category = don.Category
	}
	if req, err := h.requests.Get(ctx, m.RequestID); err == nil {
		input.RequestTitle = req.Title
		input.Urgency = string(req.Urgency)
	}
	if m.VolunteerID != nil {
		if vol, err := h.volunteers.Get(ctx, *m.VolunteerID); err == nil {
			input.VolunteerName = vol.Name
		}
	}

	narrator := h.narrator
	if narrator == nil {
		narrator = h.fallback
	}
	result, err := narrator.NarrateMatch(ctx, input)
	if err != nil {
		logger.Warn().Err(err).Str("match_id", id).Msg("narration failed, using template")
		result, err = h.fallback.NarrateMatch(ctx, input)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "internal error")
			return
		}
	}
	writeJSON(c, http.StatusOK, result)
}
