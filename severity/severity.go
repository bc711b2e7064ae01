// Package severity defines the closed risk taxonomy shared by every data source
// and the rules that collapse external status vocabularies into it.
package severity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is ordered: None < Mild < Moderate < Severe.
type Severity int

const (
	None Severity = iota
	Mild
	Moderate
	Severe
)

var severityNames = [...]string{"none", "mild", "moderate", "severe"}

func (s Severity) String() string {
	if s < None || s > Severe {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	return s >= None && s <= Severe
}

// Compare returns -1, 0 or +1 following the canonical ordering.
func (s Severity) Compare(other Severity) int {
	switch {
	case s < other:
		return -1
	case s > other:
		return 1
	default:
		return 0
	}
}

// Worst returns the most severe of the given levels, None for an empty list.
func Worst(levels ...Severity) Severity {
	worst := None
	for _, l := range levels {
		if l > worst {
			worst = l
		}
	}
	return worst
}

// Parse converts a level name back into a Severity.
func Parse(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range severityNames {
		if s == n {
			return Severity(i), nil
		}
	}
	return None, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid severity %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := Parse(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalYAML lets catalog files spell levels by name.
func (s *Severity) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := Parse(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
