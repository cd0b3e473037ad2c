package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// Facet names one of the four filterable dimensions.
type Facet string

const (
	FacetPlant    Facet = "plant"
	FacetIssue    Facet = "issue"
	FacetClass    Facet = "class"
	FacetCategory Facet = "category"
)

// Facets lists every facet in display order.
var Facets = []Facet{FacetPlant, FacetIssue, FacetClass, FacetCategory}

// ParseFacet accepts a facet name case-insensitively.
func ParseFacet(s string) (Facet, error) {
	f := Facet(strings.ToLower(strings.TrimSpace(s)))
	for _, x := range Facets {
		if f == x {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown facet %q (use plant, issue, class or category)", s)
}

// value reads the facet's field from a row.
func (f Facet) value(r CanonicalRow) string {
	switch f {
	case FacetPlant:
		return r.Plant
	case FacetIssue:
		return r.Issue
	case FacetClass:
		return r.Class
	case FacetCategory:
		return r.Category
	}
	return ""
}

// FilterSelection is the set of active facet constraints. An empty string
// leaves the facet unconstrained. Selections are values: change one with
// With or Clear and pass the result along.
type FilterSelection struct {
	Plant    string
	Issue    string
	Class    string
	Category string
}

// Get returns the selected value for a facet.
func (s FilterSelection) Get(f Facet) string {
	switch f {
	case FacetPlant:
		return s.Plant
	case FacetIssue:
		return s.Issue
	case FacetClass:
		return s.Class
	case FacetCategory:
		return s.Category
	}
	return ""
}

// With returns a copy of s with facet f set to v.
func (s FilterSelection) With(f Facet, v string) FilterSelection {
	switch f {
	case FacetPlant:
		s.Plant = v
	case FacetIssue:
		s.Issue = v
	case FacetClass:
		s.Class = v
	case FacetCategory:
		s.Category = v
	}
	return s
}

// Clear returns a copy of s with facet f unconstrained.
func (s FilterSelection) Clear(f Facet) FilterSelection { return s.With(f, "") }

// IsEmpty reports whether no facet is constrained.
func (s FilterSelection) IsEmpty() bool {
	return s.Plant == "" && s.Issue == "" && s.Class == "" && s.Category == ""
}

// matches checks every active constraint except skip.
func (s FilterSelection) matches(r CanonicalRow, skip Facet) bool {
	for _, f := range Facets {
		if f == skip {
			continue
		}
		if want := s.Get(f); want != "" && f.value(r) != want {
			return false
		}
	}
	return true
}

// FilteredRows returns the rows matching every active constraint by exact
// equality, in their original order.
func FilteredRows(sel FilterSelection, rows []CanonicalRow) []CanonicalRow {
	out := make([]CanonicalRow, 0, len(rows))
	for _, r := range rows {
		if sel.matches(r, "") {
			out = append(out, r)
		}
	}
	return out
}

// OptionsFor returns the sorted distinct non-empty values of facet among rows
// satisfying every other active constraint. The facet's own selection is
// ignored, so picking a value never narrows that facet's own option list.
func OptionsFor(facet Facet, sel FilterSelection, rows []CanonicalRow) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		if !sel.matches(r, facet) {
			continue
		}
		if v := facet.value(r); v != "" {
			seen[v] = true
		}
	}
	return sortedKeys(seen)
}

// AllOptions computes OptionsFor for every facet.
func AllOptions(sel FilterSelection, rows []CanonicalRow) map[Facet][]string {
	out := make(map[Facet][]string, len(Facets))
	for _, f := range Facets {
		out[f] = OptionsFor(f, sel, rows)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
