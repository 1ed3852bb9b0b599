package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiNarrator implements Narrator using Google's Gemini models.
type GeminiNarrator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiNarrator initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiNarrator(ctx context.Context, apiKey string) (*GeminiNarrator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	return &GeminiNarrator{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (n *GeminiNarrator) Close() {
	n.client.Close()
}

func (n *GeminiNarrator) NarrateMatch(ctx context.Context, input MatchNarrative) (*NarrativeResult, error) {
	resp, err := n.model.GenerateContent(ctx, genai.Text(buildNarrativePrompt(input)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	// Strip markdown fences in case JSON mode leaks them.
	cleanJSON := cleanJSONString(responseText.String())

	var result NarrativeResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	return &result, nil
}

func buildNarrativePrompt(in MatchNarrative) string {
	volunteerLine := "No volunteer is involved; the recipient picks up directly."
	if in.VolunteerName != "" {
		volunteerLine = fmt.Sprintf("Volunteer %q will handle the delivery.", in.VolunteerName)
	}
	etaLine := "Delivery time is not yet estimated."
	if in.EstimatedDeliveryMinutes > 0 {
		etaLine = fmt.Sprintf("Estimated delivery time: %d minutes.", in.EstimatedDeliveryMinutes)
	}

	return fmt.Sprintf(`Role: You write notification copy for "Tulong", a community donation-matching platform.

Match details:
- Donation: %q
- Request: %q
- Category: %s
- Urgency: %s
- Match score: %.2f out of 1.00
- Matcher explanation: %s
- %s
- %s

RULES:
1. Write warm, plain English. No system codes, no markdown, no emojis.
2. Never mention the numeric score; describe fit qualitatively.
3. The headline is one sentence under 80 characters.
4. The body is at most three sentences: why the match fits and the next step.

Output JSON Schema:
{
  "headline": "string",
  "body": "string"
}
`,
		in.DonationTitle, in.RequestTitle, in.Category, in.Urgency,
		in.Score, in.Reason, volunteerLine, etaLine,
	)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
