package ledger

import (
	"fmt"
	"time"
)

// DefaultQuarterWidth is the pixel width of one quarter bucket.
const DefaultQuarterWidth = 160.0

// quarterMillis approximates a quarter as 91.25 days for positioning.
const quarterMillis = 91.25 * 24 * 60 * 60 * 1000

// Quarter is one calendar-quarter bucket.
type Quarter struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
}

// Timeline is the quarter span covering a row set.
type Timeline struct {
	Quarters []Quarter `json:"quarters"`
	// Start is the first bucket's start, nil for an empty span.
	Start *time.Time `json:"start,omitempty"`
	Width float64    `json:"quarterWidth"`
}

// LayoutTimeline buckets the date span of rows into calendar quarters.
// The span runs from the earliest Start date to the latest End date, where a
// missing End counts as now. With no Start dates at all the span begins at now.
// Empty input yields no buckets and a nil Start.
func LayoutTimeline(rows []CanonicalRow, now time.Time, quarterWidth float64) Timeline {
	if quarterWidth <= 0 {
		quarterWidth = DefaultQuarterWidth
	}
	tl := Timeline{Quarters: []Quarter{}, Width: quarterWidth}
	if len(rows) == 0 {
		return tl
	}
	now = now.UTC()
	var lo, hi *time.Time
	for _, r := range rows {
		if s := r.Start.Date; s != nil && (lo == nil || s.Before(*lo)) {
			lo = s
		}
		e := r.End.Date
		if e == nil {
			e = &now
		}
		if hi == nil || e.After(*hi) {
			hi = e
		}
	}
	if lo == nil {
		lo = &now
	}
	first := quarterStart(*lo)
	last := quarterStart(*hi)
	if last.Before(first) {
		last = first
	}
	for q := first; !q.After(last); q = q.AddDate(0, 3, 0) {
		tl.Quarters = append(tl.Quarters, Quarter{
			Label: fmt.Sprintf("Q%d %d", int(q.Month()-1)/3+1, q.Year()),
			Start: q,
		})
	}
	tl.Start = &first
	return tl
}

// Position converts a date to a horizontal pixel offset from the span start.
// Dates outside the span yield negative or overflowing offsets; a nil date or
// an empty timeline yields 0.
func (t Timeline) Position(d *time.Time) float64 {
	if d == nil || t.Start == nil {
		return 0
	}
	width := t.Width
	if width <= 0 {
		width = DefaultQuarterWidth
	}
	return float64(d.UnixMilli()-t.Start.UnixMilli()) / quarterMillis * width
}

// Span returns the pixel width covered by all buckets.
func (t Timeline) Span() float64 { return float64(len(t.Quarters)) * t.Width }

func quarterStart(d time.Time) time.Time {
	d = d.UTC()
	m := (d.Month()-1)/3*3 + 1
	return time.Date(d.Year(), m, 1, 0, 0, 0, 0, time.UTC)
}
