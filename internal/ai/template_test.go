package ai

import (
	"context"
	"strings"
	"testing"
)

func TestTemplateNarrator(t *testing.T) {
	n := NewTemplateNarrator()

	got, err := n.NarrateMatch(context.Background(), MatchNarrative{
		DonationTitle:            "Rice sacks",
		RequestTitle:             "Rice for family",
		Category:                 "food",
		Urgency:                  "critical",
		Score:                    0.87,
		Reason:                   "Best match due to close distance and well-matched items",
		EstimatedDeliveryMinutes: 35,
		VolunteerName:            "Ana",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got.Headline, "Rice for family") {
		t.Errorf("headline %q missing request title", got.Headline)
	}
	if !strings.Contains(got.Body, "Ana") || !strings.Contains(got.Body, "35 minutes") {
		t.Errorf("body %q missing delivery details", got.Body)
	}
}

func TestTemplateNarratorDirectPickup(t *testing.T) {
	n := NewTemplateNarrator()

	got, err := n.NarrateMatch(context.Background(), MatchNarrative{
		RequestTitle: "Winter jackets",
		Reason:       "Best match due to well-matched items",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got.Body, "pickup") {
		t.Errorf("body %q should mention direct pickup", got.Body)
	}
}
