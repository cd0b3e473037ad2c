package ledger

import (
	"errors"
	"fmt"
)

// ErrRowNotFound is returned when an operation names an ID the ledger does not hold.
var ErrRowNotFound = errors.New("row not found")

// Ledger is an immutable snapshot of the canonical row store. Every mutation
// returns a new Ledger; the receiver is left untouched.
type Ledger struct {
	rows []CanonicalRow
}

// New wraps rows in a Ledger. The slice is copied.
func New(rows []CanonicalRow) Ledger {
	cp := make([]CanonicalRow, len(rows))
	copy(cp, rows)
	return Ledger{rows: cp}
}

// Rows returns a copy of the rows in ledger order.
func (l Ledger) Rows() []CanonicalRow {
	cp := make([]CanonicalRow, len(l.rows))
	copy(cp, l.rows)
	return cp
}

// Len returns the number of rows.
func (l Ledger) Len() int { return len(l.rows) }

// Get returns the row with the given ID.
func (l Ledger) Get(id string) (CanonicalRow, bool) {
	for _, r := range l.rows {
		if r.ID == id {
			return r, true
		}
	}
	return CanonicalRow{}, false
}

// Replace substitutes row at its ID, recomputing its quality from the new
// action plan.
func (l Ledger) Replace(row CanonicalRow) (Ledger, error) {
	idx := l.index(row.ID)
	if idx < 0 {
		return l, fmt.Errorf("replace %s: %w", row.ID, ErrRowNotFound)
	}
	row.Quality = ScoreActionPlan(row.ActionPlan)
	out := l.Rows()
	out[idx] = row
	return Ledger{rows: out}, nil
}

// Reset clears the action-tracking fields of a row while keeping its identity
// and failure information.
func (l Ledger) Reset(id string) (Ledger, error) {
	idx := l.index(id)
	if idx < 0 {
		return l, fmt.Errorf("reset %s: %w", id, ErrRowNotFound)
	}
	out := l.Rows()
	r := out[idx]
	r.ActionPlan = ""
	r.Category = Uncategorized
	r.Progress = ProgressNotDone
	r.Completion = 0
	r.Start = DateField{}
	r.End = DateField{}
	r.Audit = Audit{}
	r.Quality = ScoreActionPlan("")
	out[idx] = r
	return Ledger{rows: out}, nil
}

// Append prepends a fresh row seeded from the active selection and returns
// the new ledger with the new row's ID.
func (l Ledger) Append(sel FilterSelection) (Ledger, string) {
	row := CanonicalRow{
		ID:          NewRowID(),
		Plant:       "New Plant",
		Issue:       "New Chronic Issue",
		FailureDesc: "Technical details...",
		Class:       "Mechanical",
		Category:    Uncategorized,
		Progress:    ProgressNotDone,
		Quality:     ScoreActionPlan(""),
	}
	if sel.Plant != "" {
		row.Plant = sel.Plant
	}
	if sel.Issue != "" {
		row.Issue = sel.Issue
	}
	out := make([]CanonicalRow, 0, len(l.rows)+1)
	out = append(out, row)
	out = append(out, l.rows...)
	return Ledger{rows: out}, row.ID
}

func (l Ledger) index(id string) int {
	for i, r := range l.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// CategoryVocabulary lists the distinct categories across the whole ledger,
// reporting blanks as Uncategorized.
func (l Ledger) CategoryVocabulary() []string {
	seen := map[string]bool{}
	for _, r := range l.rows {
		c := r.Category
		if c == "" {
			c = Uncategorized
		}
		seen[c] = true
	}
	return sortedKeys(seen)
}
