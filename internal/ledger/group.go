package ledger

import (
	"sort"
	"strings"
)

// GroupedRow is a row annotated for run-length display. A false Show* flag
// means the cell repeats the row above and should render blank.
type GroupedRow struct {
	Row CanonicalRow

	ShowPlant       bool
	ShowIssue       bool
	ShowFailureDesc bool
	ShowClass       bool
	// ShowMetrics covers Duration Loss and Frequency, which are issue-level
	// figures and only print on the group's first row.
	ShowMetrics  bool
	FirstInGroup bool
}

// GroupRows annotates rows in one forward pass. It assumes rows are already
// adjacent by (Plant, Issue) and does not reorder them. The first row always
// leads a group.
//
// Plant outranks Issue: a plant change re-displays every issue-level field
// even when the issue text repeats. A blank key cell continues the last
// non-blank value above it, the way merged spreadsheet cells read, so
// grouping its own blanked display output yields the same flags.
func GroupRows(rows []CanonicalRow) []GroupedRow {
	out := make([]GroupedRow, 0, len(rows))
	var last groupKey
	for i, cur := range rows {
		k := last.carry(cur)
		newPlant := i == 0 || k.plant != last.plant
		newIssue := newPlant || k.issue != last.issue
		out = append(out, GroupedRow{
			Row:             cur,
			ShowPlant:       newPlant,
			ShowIssue:       newIssue,
			ShowFailureDesc: newIssue || k.desc != last.desc,
			ShowClass:       newIssue || k.class != last.class,
			ShowMetrics:     newIssue,
			FirstInGroup:    newIssue,
		})
		last = k
	}
	return out
}

type groupKey struct{ plant, issue, desc, class string }

// carry returns r's key with blank cells filled from k.
func (k groupKey) carry(r CanonicalRow) groupKey {
	fill := func(v, prev string) string {
		if strings.TrimSpace(v) == "" {
			return prev
		}
		return v
	}
	return groupKey{
		plant: fill(r.Plant, k.plant),
		issue: fill(r.Issue, k.issue),
		desc:  fill(r.FailureDesc, k.desc),
		class: fill(r.Class, k.class),
	}
}

// Blanked returns the rows with every hidden key cell cleared, as a grouped
// table renders them.
func Blanked(grouped []GroupedRow) []CanonicalRow {
	out := make([]CanonicalRow, len(grouped))
	for i, g := range grouped {
		r := g.Row
		if !g.ShowPlant {
			r.Plant = ""
		}
		if !g.ShowIssue {
			r.Issue = ""
		}
		if !g.ShowFailureDesc {
			r.FailureDesc = ""
		}
		if !g.ShowClass {
			r.Class = ""
		}
		out[i] = r
	}
	return out
}

// SortByGroup returns a copy of rows stably ordered by Plant then Issue, so
// that GroupRows sees each group as one contiguous run.
func SortByGroup(rows []CanonicalRow) []CanonicalRow {
	cp := make([]CanonicalRow, len(rows))
	copy(cp, rows)
	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].Plant != cp[j].Plant {
			return cp[i].Plant < cp[j].Plant
		}
		return cp[i].Issue < cp[j].Issue
	})
	return cp
}
