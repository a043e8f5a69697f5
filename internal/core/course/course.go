// Package course defines the domain types for a course state snapshot.
package course

import (
	"encoding/json"
	"fmt"
)

// KindResource is the module kind whose URL points at a downloadable file.
// Every other kind is linked at its original remote URL instead.
const KindResource = "resource"

// ID identifies a course module. Moodle emits module ids as JSON numbers
// in the module list and sometimes as strings elsewhere, so the type
// accepts both encodings and normalizes to the decimal string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("module id must be a string or number: %w", err)
	}

	*id = ID(n.String())
	return nil
}

// Module is a single linkable unit within a course section.
// Immutable once parsed from the course state.
type Module struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Kind string `json:"module"`
	URL  string `json:"url"`
}

// IsResource reports whether the module is a downloadable file.
func (m Module) IsResource() bool {
	return m.Kind == KindResource
}

// Section groups modules under a heading. The order of ModuleIDs defines
// the presentation order in the generated index.
type Section struct {
	Title     string `json:"title"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	ModuleIDs []ID   `json:"cmlist"`
}

// DisplayTitle returns the section heading, falling back to the internal
// name and finally "General" when both are empty.
func (s Section) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Name != "" {
		return s.Name
	}
	return "General"
}

// State is a decoded course state snapshot.
type State struct {
	Sections []Section `json:"section"`
	Modules  []Module  `json:"cm"`
}

// ParseState decodes a course state snapshot document.
func ParseState(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse course state: %w", err)
	}
	return &st, nil
}

// ModuleIndex builds the id-keyed module lookup. Duplicate ids resolve to
// the last record in snapshot order.
func (s *State) ModuleIndex() map[ID]Module {
	idx := make(map[ID]Module, len(s.Modules))
	for _, m := range s.Modules {
		idx[m.ID] = m
	}
	return idx
}
