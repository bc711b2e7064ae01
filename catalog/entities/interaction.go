package entities

import (
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
)

// InteractionRecord documents the relationship between two substances. The
// pair is unordered.
type InteractionRecord struct {
	SubstanceA     string                  `json:"substance_a"`
	SubstanceB     string                  `json:"substance_b"`
	Classification severity.Classification `json:"classification"`
	Mechanism      string                  `json:"mechanism"`
	ClinicalNote   string                  `json:"clinical_note,omitempty"`
	Sources        []Source                `json:"sources"`
}

// Severity is a shortcut for the classification level.
func (r InteractionRecord) Severity() severity.Severity {
	return r.Classification.Severity
}

// AnecdotalOnly reports whether no clinical source backs the record.
func (r InteractionRecord) AnecdotalOnly() bool {
	if len(r.Sources) == 0 {
		return false
	}
	for _, s := range r.Sources {
		if s.IsClinical() {
			return false
		}
	}
	return true
}

// Substance is a browseable risk profile.
type Substance struct {
	Name      string            `json:"name"`
	Aliases   []string          `json:"aliases,omitempty"`
	Category  string            `json:"category"`
	RiskLevel severity.Severity `json:"risk_level"`
	Summary   string            `json:"summary"`
	Sources   []Source          `json:"sources"`
}
