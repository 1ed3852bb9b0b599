package ai

import (
	"context"
	"fmt"
)

// TemplateNarrator builds notification copy locally. It backs deployments
// without a Gemini key and serves as the fallback when generation fails.
type TemplateNarrator struct{}

func NewTemplateNarrator() *TemplateNarrator {
	return &TemplateNarrator{}
}

func (TemplateNarrator) NarrateMatch(_ context.Context, in MatchNarrative) (*NarrativeResult, error) {
	headline := fmt.Sprintf("We found a match for %q", in.RequestTitle)

	body := in.Reason
	if body == "" {
		body = "This donation fits your request"
	}
	body += "."
	if in.VolunteerName != "" {
		body += fmt.Sprintf(" %s will deliver it", in.VolunteerName)
		if in.EstimatedDeliveryMinutes > 0 {
			body += fmt.Sprintf(" in about %d minutes", in.EstimatedDeliveryMinutes)
		}
		body += "."
	} else {
		body += " You can arrange pickup with the donor."
	}

	return &NarrativeResult{Headline: headline, Body: body}, nil
}
