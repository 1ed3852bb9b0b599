package ai

// MatchNarrative is the structured input handed to a Narrator.
type MatchNarrative struct {
	// DonationTitle and RequestTitle describe the matched items.
	DonationTitle string
	RequestTitle  string

	// Category of the donated goods (e.g. "food", "clothing").
	Category string

	// Urgency of the request ("low" .. "critical").
	Urgency string

	// Score is the combined match score in [0,1].
	Score float64

	// Reason is the ranked-criteria explanation produced by the matcher.
	Reason string

	// EstimatedDeliveryMinutes is the delivery ETA, zero if unknown.
	EstimatedDeliveryMinutes int

	// VolunteerName is set for three-way matches only.
	VolunteerName string
}

// NarrativeResult captures the structured output from the narrator.
type NarrativeResult struct {
	// Headline is a one-line summary suitable for a push notification.
	Headline string `json:"headline"`

	// Body expands on the headline: why the match fits and the next step.
	Body string `json:"body"`
}
