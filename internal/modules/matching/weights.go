// README: Weight vectors per relationship type with situational overrides.
package matching

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tulong/internal/modules/donation"
	"tulong/internal/modules/request"
)

// Weights maps criterion names to their share of the total score. A vector
// must sum to 1.0 so totals stay comparable across candidates.
type Weights map[string]float64

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Validate rejects vectors that do not sum to 1.0 or carry out-of-range
// entries.
func (w Weights) Validate() error {
	for k, v := range w {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %q = %v out of [0,1]", k, v)
		}
	}
	if s := w.Sum(); math.Abs(s-1.0) > 1e-9 {
		return fmt.Errorf("weights sum to %v, want 1.0", s)
	}
	return nil
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// DonorRecipientWeights is the base vector for donation↔request pairings.
var DonorRecipientWeights = Weights{
	CriterionGeographic:     0.25,
	CriterionItemCompat:     0.30,
	CriterionUrgencyAlign:   0.20,
	CriterionDonorReliab:    0.15,
	CriterionDeliveryCompat: 0.10,
}

// VolunteerTaskWeights is the vector for volunteer↔delivery-task pairings.
var VolunteerTaskWeights = Weights{
	CriterionGeographic:      0.30,
	CriterionAvailability:    0.25,
	CriterionSkillMatch:      0.20,
	CriterionVolReliab:       0.15,
	CriterionUrgencyResponse: 0.10,
}

// DonorVolunteerWeights is the vector for donor↔volunteer pairings.
var DonorVolunteerWeights = Weights{
	CriterionGeographic:    0.25,
	CriterionReliability:   0.30,
	CriterionDeliveryPref:  0.20,
	CriterionCommunication: 0.15,
	CriterionTiming:        0.10,
}

// perishableCategories are categories where freshness makes proximity matter
// more than the donor's track record.
var perishableCategories = map[string]struct{}{
	"food":      {},
	"groceries": {},
	"meals":     {},
}

// Tables bundles the three weight vectors so matcher instances can run with
// independent, possibly overridden, configurations.
type Tables struct {
	DonorRecipient Weights
	VolunteerTask  Weights
	DonorVolunteer Weights
}

// DefaultTables returns the built-in vectors.
func DefaultTables() Tables {
	return Tables{
		DonorRecipient: DonorRecipientWeights.clone(),
		VolunteerTask:  VolunteerTaskWeights.clone(),
		DonorVolunteer: DonorVolunteerWeights.clone(),
	}
}

// Contextual selects the donor↔recipient vector for a specific pairing.
// Perishable donations shift weight from donor reliability to proximity;
// critical requests shift weight from item fit to urgency. Otherwise the
// base vector applies unchanged.
func (t Tables) Contextual(req *request.Request, don *donation.Donation) Weights {
	if don != nil {
		if _, perishable := perishableCategories[strings.ToLower(strings.TrimSpace(don.Category))]; perishable {
			w := t.DonorRecipient.clone()
			w[CriterionGeographic] = 0.35
			w[CriterionItemCompat] = 0.30
			w[CriterionDonorReliab] = 0.05
			return w
		}
	}
	if req != nil && req.Urgency == request.UrgencyCritical {
		w := t.DonorRecipient.clone()
		w[CriterionGeographic] = 0.25
		w[CriterionItemCompat] = 0.25
		w[CriterionUrgencyAlign] = 0.30
		w[CriterionDonorReliab] = 0.10
		return w
	}
	return t.DonorRecipient
}

type weightsFile struct {
	DonorRecipient map[string]float64 `yaml:"donor_recipient"`
	VolunteerTask  map[string]float64 `yaml:"volunteer_task"`
	DonorVolunteer map[string]float64 `yaml:"donor_volunteer"`
}

// LoadTables returns the default tables with any vectors present in the YAML
// file at path swapped in. Each overriding vector must validate; a partial
// file overrides only the vectors it names.
func LoadTables(path string) (Tables, error) {
	t := DefaultTables()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read weights file: %w", err)
	}
	var f weightsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Tables{}, fmt.Errorf("parse weights file: %w", err)
	}

	if f.DonorRecipient != nil {
		w := Weights(f.DonorRecipient)
		if err := w.Validate(); err != nil {
			return Tables{}, fmt.Errorf("donor_recipient: %w", err)
		}
		t.DonorRecipient = w
	}
	if f.VolunteerTask != nil {
		w := Weights(f.VolunteerTask)
		if err := w.Validate(); err != nil {
			return Tables{}, fmt.Errorf("volunteer_task: %w", err)
		}
		t.VolunteerTask = w
	}
	if f.DonorVolunteer != nil {
		w := Weights(f.DonorVolunteer)
		if err := w.Validate(); err != nil {
			return Tables{}, fmt.Errorf("donor_volunteer: %w", err)
		}
		t.DonorVolunteer = w
	}
	return t, nil
}
