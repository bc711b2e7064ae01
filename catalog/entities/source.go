// Package entities holds the records served by the catalog and built from
// collaborator responses.
package entities

import (
	"encoding/json"
	"fmt"
)

// SourceType is the closed set of provenance categories.
type SourceType string

const (
	SourceGovernmental SourceType = "governmental"
	SourceAcademic     SourceType = "academic"
	SourceEducational  SourceType = "educational"
	SourceAnecdotal    SourceType = "anecdotal"
)

// Valid reports whether t is one of the four known types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceGovernmental, SourceAcademic, SourceEducational, SourceAnecdotal:
		return true
	}
	return false
}

// Source is a citation backing a record.
type Source struct {
	Name        string     `json:"name" yaml:"name"`
	Institution string     `json:"institution" yaml:"institution"`
	Type        SourceType `json:"type" yaml:"type"`
	Title       string     `json:"title" yaml:"title"`
	URL         string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsClinical is false only for anecdotal sources.
func (s Source) IsClinical() bool {
	return s.Type != SourceAnecdotal
}

// Trust is the label clients must show next to the source.
func (s Source) Trust() string {
	if s.IsClinical() {
		return "clinical"
	}
	return "anecdotal"
}

// Validate checks the fields every source needs.
func (s Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source has no name")
	}
	if !s.Type.Valid() {
		return fmt.Errorf("source %q has unknown type %q", s.Name, s.Type)
	}
	return nil
}

// MarshalJSON adds the trust label so anecdotal sources can never be shown
// as clinical by a client that ignores the type.
func (s Source) MarshalJSON() ([]byte, error) {
	type plain Source
	return json.Marshal(struct {
		plain
		Trust string `json:"trust"`
	}{plain(s), s.Trust()})
}
