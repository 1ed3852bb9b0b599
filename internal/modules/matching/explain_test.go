package matching

import "testing"

func TestReason_TopTwoContributions(t *testing.T) {
	criteria := map[string]float64{
		CriterionGeographic:     1.0, // 0.25
		CriterionItemCompat:     0.9, // 0.27
		CriterionUrgencyAlign:   0.2, // 0.04
		CriterionDonorReliab:    0.5, // 0.075
		CriterionDeliveryCompat: 0.3, // 0.03
	}

	got := Reason(criteria, DonorRecipientWeights)
	want := "Best match due to well-matched items and close distance"
	if got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}

func TestReason_Deterministic(t *testing.T) {
	criteria := map[string]float64{
		CriterionGeographic:   0.8,
		CriterionItemCompat:   0.8,
		CriterionUrgencyAlign: 0.8,
	}
	weights := Weights{
		CriterionGeographic:   0.4,
		CriterionItemCompat:   0.4,
		CriterionUrgencyAlign: 0.2,
	}

	first := Reason(criteria, weights)
	for i := 0; i < 50; i++ {
		if got := Reason(criteria, weights); got != first {
			t.Fatalf("Reason() unstable: %q vs %q", got, first)
		}
	}
}

func TestReason_UnknownCriterionFallsBack(t *testing.T) {
	criteria := map[string]float64{"mystery_signal": 1.0}
	weights := Weights{"mystery_signal": 1.0}

	got := Reason(criteria, weights)
	want := "Best match due to mystery_signal"
	if got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}

func TestReason_SingleCriterion(t *testing.T) {
	criteria := map[string]float64{CriterionGeographic: 0.9}
	weights := Weights{CriterionGeographic: 1.0}

	got := Reason(criteria, weights)
	want := "Best match due to close distance"
	if got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}

func TestReason_EmptyWeights(t *testing.T) {
	if got := Reason(map[string]float64{}, Weights{}); got != "Best match" {
		t.Errorf("Reason() = %q, want bare fallback", got)
	}
}
