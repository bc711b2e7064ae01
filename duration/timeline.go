package duration

import "math"

// PhaseInput is a named phase with its raw duration text.
type PhaseInput struct {
	Name string
	Text string
}

// Phase is a phase of a timeline with its estimate and share of the total.
// Minutes and Percent are nil when the text could not be parsed.
type Phase struct {
	Name    string   `json:"name"`
	Text    string   `json:"text"`
	Minutes *float64 `json:"minutes"`
	Percent *float64 `json:"percent"`
}

// Timeline is an ordered list of phases ready for bar rendering.
type Timeline struct {
	Phases       []Phase `json:"phases"`
	TotalMinutes float64 `json:"total_minutes"`
}

// BuildTimeline parses every phase and computes each parsed phase's share of
// the parsed total, rounded to one decimal. Phase order is preserved.
func BuildTimeline(inputs []PhaseInput) Timeline {
	phases := make([]Phase, 0, len(inputs))
	var total float64

	for _, in := range inputs {
		p := Phase{Name: in.Name, Text: in.Text}
		if m, ok := ParseToMinutes(in.Text); ok {
			p.Minutes = &m
			total += m
		}
		phases = append(phases, p)
	}

	if total > 0 {
		for i := range phases {
			if phases[i].Minutes == nil {
				continue
			}
			pct := math.Round(*phases[i].Minutes/total*1000) / 10
			phases[i].Percent = &pct
		}
	}

	return Timeline{Phases: phases, TotalMinutes: total}
}
