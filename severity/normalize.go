package severity

import "strings"

// Tag identifies which rule classified a raw status. Two tags can share a
// Severity; serotonin syndrome is severe but rendered apart from "dangerous".
type Tag string

const (
	TagSerotoninSyndrome Tag = "serotonin_syndrome"
	TagDangerous         Tag = "dangerous"
	TagUnsafe            Tag = "unsafe"
	TagCaution           Tag = "caution"
	TagLowRiskDecrease   Tag = "low_risk_decrease"
	TagLowRiskNoSynergy  Tag = "low_risk_no_synergy"
	TagLowRiskSynergy    Tag = "low_risk_synergy"
	TagUnknown           Tag = "unknown"

	// Tags produced by FromClinicalText.
	TagClinicalMajor    Tag = "clinical_major"
	TagClinicalModerate Tag = "clinical_moderate"
	TagClinicalMinor    Tag = "clinical_minor"
	TagNoInteraction    Tag = "no_interaction"
)

// Classification is the display-ready result of normalizing a raw status.
type Classification struct {
	Severity    Severity `json:"severity"`
	Tag         Tag      `json:"tag"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

// Unclassified is the single fallback for any status no rule recognizes.
// It is moderate, never safe.
var Unclassified = Classification{
	Severity:    Moderate,
	Tag:         TagUnknown,
	Label:       "Risk Unknown",
	Description: "This combination could not be classified. Treat it with caution until better information is available.",
}

type rule struct {
	matches func(s string) bool
	result  Classification
}

func contains(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if !strings.Contains(s, sub) {
				return false
			}
		}
		return true
	}
}

// Order matters: the three "low risk" rules share a prefix and "no synergy"
// must be tested before "synergy".
var comboRules = []rule{
	{contains("serotonin"), Classification{
		Severity:    Severe,
		Tag:         TagSerotoninSyndrome,
		Label:       "Serotonin Syndrome Risk",
		Description: "Combining these substances can cause serotonin syndrome, a potentially life-threatening condition.",
	}},
	{contains("dangerous"), Classification{
		Severity:    Severe,
		Tag:         TagDangerous,
		Label:       "Dangerous",
		Description: "These substances should not be combined. The combination carries a serious risk of harm or death.",
	}},
	{contains("unsafe"), Classification{
		Severity:    Severe,
		Tag:         TagUnsafe,
		Label:       "Unsafe",
		Description: "There is considerable risk of physical harm when combining these substances.",
	}},
	{contains("caution"), Classification{
		Severity:    Moderate,
		Tag:         TagCaution,
		Label:       "Caution",
		Description: "This combination is not usually physically harmful but may produce undesirable effects.",
	}},
	{contains("low risk", "decrease"), Classification{
		Severity:    Mild,
		Tag:         TagLowRiskDecrease,
		Label:       "Low Risk & Decrease",
		Description: "Effects are reduced when combined. Low physical risk.",
	}},
	{contains("low risk", "no synergy"), Classification{
		Severity:    None,
		Tag:         TagLowRiskNoSynergy,
		Label:       "Low Risk & No Synergy",
		Description: "No meaningful change in effects is expected. Low physical risk.",
	}},
	{contains("low risk", "synergy"), Classification{
		Severity:    Mild,
		Tag:         TagLowRiskSynergy,
		Label:       "Low Risk & Synergy",
		Description: "Effects are intensified when combined. Low physical risk.",
	}},
}

// Normalize classifies a community combination status ("Dangerous",
// "Low Risk & Synergy", ...). Any input is accepted; unknown text falls back
// to Unclassified.
func Normalize(raw string) Classification {
	s := strings.ToLower(raw)
	for _, r := range comboRules {
		if r.matches(s) {
			return r.result
		}
	}
	return Unclassified
}

var clinicalRules = []rule{
	{func(s string) bool {
		return strings.Contains(s, "contraindicat") || strings.Contains(s, "high") ||
			strings.Contains(s, "major") || strings.Contains(s, "severe")
	}, Classification{
		Severity:    Severe,
		Tag:         TagClinicalMajor,
		Label:       "Major Interaction",
		Description: "A clinically significant interaction is documented. Avoid the combination unless directed by a clinician.",
	}},
	{contains("moderate"), Classification{
		Severity:    Moderate,
		Tag:         TagClinicalModerate,
		Label:       "Moderate Interaction",
		Description: "The combination may require monitoring or dose adjustment by a clinician.",
	}},
	{func(s string) bool {
		return strings.Contains(s, "minor") || strings.Contains(s, "low")
	}, Classification{
		Severity:    Mild,
		Tag:         TagClinicalMinor,
		Label:       "Minor Interaction",
		Description: "A minor interaction is documented. It is unlikely to be clinically significant.",
	}},
}

// FromClinicalText maps the severity vocabulary of the pharmaceutical
// interaction registry onto the same taxonomy. "N/A" and anything else
// unrecognized falls back to Unclassified, like Normalize.
func FromClinicalText(text string) Classification {
	s := strings.ToLower(text)
	for _, r := range clinicalRules {
		if r.matches(s) {
			return r.result
		}
	}
	return Unclassified
}

// NoDocumentedInteraction is attached to the positive finding that both
// substances are known to a registry that documents nothing between them.
var NoDocumentedInteraction = Classification{
	Severity:    None,
	Tag:         TagNoInteraction,
	Label:       "No Documented Interaction",
	Description: "Both substances are known to the registry and no interaction between them is documented. This is not a guarantee of safety.",
}

var curated = map[Severity]Classification{
	None: {
		Severity:    None,
		Tag:         "curated_none",
		Label:       "No Significant Interaction",
		Description: "No clinically significant interaction is documented for this pair.",
	},
	Mild: {
		Severity:    Mild,
		Tag:         "curated_mild",
		Label:       "Mild Interaction",
		Description: "A mild interaction is documented. Effects may be altered but serious harm is unlikely.",
	},
	Moderate: {
		Severity:    Moderate,
		Tag:         "curated_moderate",
		Label:       "Moderate Interaction",
		Description: "A moderate interaction is documented. The combination warrants caution and professional advice.",
	},
	Severe: {
		Severity:    Severe,
		Tag:         "curated_severe",
		Label:       "Severe Interaction",
		Description: "A severe interaction is documented. The combination can cause serious harm.",
	},
}

// ForLevel returns the classification used for curated records authored
// directly with a level. Invalid levels get Unclassified.
func ForLevel(level Severity) Classification {
	if c, ok := curated[level]; ok {
		return c
	}
	return Unclassified
}
