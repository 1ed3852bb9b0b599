package ai

import (
	"context"
)

// Narrator turns a scored match into notification copy for the people
// involved. Implementations may call an LLM or build text locally.
type Narrator interface {
	// NarrateMatch produces a short, human-friendly summary of why the
	// match was made and what happens next.
	NarrateMatch(ctx context.Context, input MatchNarrative) (*NarrativeResult, error)
}
