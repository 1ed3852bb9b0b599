package matching

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"tulong/internal/modules/donation"
	"tulong/internal/modules/request"
)

func TestWeightVectorsSumToOne(t *testing.T) {
	vectors := map[string]Weights{
		"donor_recipient": DonorRecipientWeights,
		"volunteer_task":  VolunteerTaskWeights,
		"donor_volunteer": DonorVolunteerWeights,
	}
	for name, w := range vectors {
		if math.Abs(w.Sum()-1.0) > 1e-9 {
			t.Errorf("%s sums to %v, want 1.0", name, w.Sum())
		}
		if err := w.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestContextual_Perishable(t *testing.T) {
	tables := DefaultTables()
	req := request.Request{Urgency: request.UrgencyLow}
	don := donation.Donation{Category: "food"}

	w := tables.Contextual(&req, &don)
	if w[CriterionGeographic] != 0.35 {
		t.Errorf("geographic = %v, want 0.35", w[CriterionGeographic])
	}
	if w[CriterionItemCompat] != 0.30 {
		t.Errorf("item_compatibility = %v, want 0.30", w[CriterionItemCompat])
	}
	if w[CriterionDonorReliab] != 0.05 {
		t.Errorf("donor_reliability = %v, want 0.05", w[CriterionDonorReliab])
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		t.Errorf("perishable vector sums to %v, want 1.0", w.Sum())
	}
}

func TestContextual_PerishableWinsOverCritical(t *testing.T) {
	tables := DefaultTables()
	req := request.Request{Urgency: request.UrgencyCritical}
	don := donation.Donation{Category: "Groceries"}

	w := tables.Contextual(&req, &don)
	if w[CriterionGeographic] != 0.35 {
		t.Errorf("geographic = %v, want perishable override 0.35", w[CriterionGeographic])
	}
}

func TestContextual_CriticalUrgency(t *testing.T) {
	tables := DefaultTables()
	req := request.Request{Urgency: request.UrgencyCritical}
	don := donation.Donation{Category: "electronics"}

	w := tables.Contextual(&req, &don)
	if w[CriterionUrgencyAlign] != 0.30 {
		t.Errorf("urgency_alignment = %v, want 0.30", w[CriterionUrgencyAlign])
	}
	if w[CriterionGeographic] != 0.25 {
		t.Errorf("geographic = %v, want 0.25", w[CriterionGeographic])
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		t.Errorf("critical vector sums to %v, want 1.0", w.Sum())
	}
}

func TestContextual_BaseUnchanged(t *testing.T) {
	tables := DefaultTables()
	req := request.Request{Urgency: request.UrgencyMedium}
	don := donation.Donation{Category: "furniture"}

	w := tables.Contextual(&req, &don)
	for criterion, want := range DonorRecipientWeights {
		if w[criterion] != want {
			t.Errorf("%s = %v, want base %v", criterion, w[criterion], want)
		}
	}
}

func TestLoadTables_NoFile(t *testing.T) {
	tables, err := LoadTables("")
	if err != nil {
		t.Fatal(err)
	}
	if tables.DonorRecipient[CriterionGeographic] != 0.25 {
		t.Errorf("expected default tables without a file")
	}
}

func TestLoadTables_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := `donor_recipient:
  geographic_proximity: 0.40
  item_compatibility: 0.30
  urgency_alignment: 0.10
  donor_reliability: 0.10
  delivery_compatibility: 0.10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatal(err)
	}
	if tables.DonorRecipient[CriterionGeographic] != 0.40 {
		t.Errorf("geographic = %v, want overridden 0.40", tables.DonorRecipient[CriterionGeographic])
	}
	// Vectors not named by the file keep their defaults.
	if tables.VolunteerTask[CriterionGeographic] != 0.30 {
		t.Errorf("volunteer_task geographic = %v, want default 0.30", tables.VolunteerTask[CriterionGeographic])
	}
}

func TestLoadTables_RejectsBadSum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := `donor_recipient:
  geographic_proximity: 0.9
  item_compatibility: 0.9
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTables(path); err == nil {
		t.Fatal("expected validation error for weights not summing to 1.0")
	}
}
