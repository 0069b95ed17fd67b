package models

import "strings"

// BusinessRecord is the fixed set of fields extracted from one business profile.
// Every field is nullable and always serialized, so consumers see all six keys.
type BusinessRecord struct {
	Name             *string `json:"name"`
	Phone            *string `json:"phone"`
	PrincipalContact *string `json:"principal_contact"`
	Domain           *string `json:"url"`
	Address          *string `json:"address"`
	Accredited       *bool   `json:"accreditation_status"`
}

// ExtractionMode selects which field extractor a crawl run uses
type ExtractionMode string

const (
	ModeExplicit ExtractionMode = "explicit"
	ModeModel    ExtractionMode = "model"
)

// ParseExtractionMode maps user input to an ExtractionMode
func ParseExtractionMode(s string) (ExtractionMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explicit", "deterministic":
		return ModeExplicit, true
	case "model", "llm":
		return ModeModel, true
	}
	return "", false
}

// SinkOutcome is the result of forwarding one record to persistence
type SinkOutcome string

const (
	OutcomeInserted  SinkOutcome = "inserted"
	OutcomeDuplicate SinkOutcome = "duplicate"
	OutcomeFailed    SinkOutcome = "failed"
)

// NameParts holds the components of a person's name in display order
type NameParts struct {
	Prefix string
	First  string
	Middle string
	Last   string
	Suffix string
}

// FullName joins the non-empty parts with single spaces.
// Returns nil when every part is empty.
func (n NameParts) FullName() *string {
	return JoinNonEmpty(" ", n.Prefix, n.First, n.Middle, n.Last, n.Suffix)
}

// AddressParts holds postal address components in display order
type AddressParts struct {
	Street     string
	Locality   string
	Region     string
	PostalCode string
	Country    string
}

// Formatted joins the non-empty components with ", ".
func (a AddressParts) Formatted() *string {
	return JoinNonEmpty(", ", a.Street, a.Locality, a.Region, a.PostalCode, a.Country)
}

// JoinNonEmpty trims each part, skips empty ones and joins the rest with sep.
// A trailing comma left on the final part is stripped.
func JoinNonEmpty(sep string, parts ...string) *string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	out := strings.TrimRight(strings.Join(kept, sep), ", ")
	if out == "" {
		return nil
	}
	return &out
}

// String returns a pointer to s, or nil when s is blank
func String(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

// Deref returns the pointed-to string or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
