// README: Human-readable match reasons from dominant weighted contributions.
package matching

import (
	"sort"
	"strings"
)

// reasonPhrases maps criterion names to reader-facing phrases. Unrecognized
// criteria fall back to their raw key.
var reasonPhrases = map[string]string{
	CriterionGeographic:      "close distance",
	CriterionItemCompat:      "well-matched items",
	CriterionUrgencyAlign:    "aligned urgency",
	CriterionDonorReliab:     "a reliable donor",
	CriterionDeliveryCompat:  "compatible delivery",
	CriterionAvailability:    "current availability",
	CriterionSkillMatch:      "relevant experience",
	CriterionVolReliab:       "a reliable volunteer",
	CriterionUrgencyResponse: "urgency readiness",
	CriterionReliability:     "a strong track record",
	CriterionDeliveryPref:    "delivery preference",
	CriterionCommunication:   "good communication",
	CriterionTiming:          "good timing",
}

// Reason explains a score by its two largest weighted contributions.
// Deterministic for identical inputs: ties break on criterion name.
func Reason(criteria map[string]float64, weights Weights) string {
	type contribution struct {
		criterion string
		value     float64
	}

	contribs := make([]contribution, 0, len(weights))
	for criterion, weight := range weights {
		contribs = append(contribs, contribution{criterion, criteria[criterion] * weight})
	}
	sort.Slice(contribs, func(i, j int) bool {
		if contribs[i].value != contribs[j].value {
			return contribs[i].value > contribs[j].value
		}
		return contribs[i].criterion < contribs[j].criterion
	})

	var phrases []string
	for _, c := range contribs {
		if len(phrases) == 2 {
			break
		}
		phrases = append(phrases, phrase(c.criterion))
	}

	if len(phrases) == 0 {
		return "Best match"
	}
	return "Best match due to " + strings.Join(phrases, " and ")
}

func phrase(criterion string) string {
	if p, ok := reasonPhrases[criterion]; ok {
		return p
	}
	return criterion
}
