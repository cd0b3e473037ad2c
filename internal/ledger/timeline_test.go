package ledger

import (
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestLayoutTimelineQuarterSpan(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	rows := []CanonicalRow{
		{Start: DateField{Date: day(2024, 2, 15)}, End: DateField{Date: day(2024, 6, 1)}},
		{Start: DateField{Date: day(2024, 5, 1)}, End: DateField{Date: day(2024, 11, 20)}},
	}
	tl := LayoutTimeline(rows, now, 0)
	var labels []string
	for _, q := range tl.Quarters {
		labels = append(labels, q.Label)
	}
	want := []string{"Q1 2024", "Q2 2024", "Q3 2024", "Q4 2024"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
	if tl.Start == nil || !tl.Start.Equal(*day(2024, 1, 1)) {
		t.Fatalf("start = %v", tl.Start)
	}
	if tl.Width != DefaultQuarterWidth {
		t.Fatalf("width = %v", tl.Width)
	}
}

func TestLayoutTimelineOpenEndedUsesNow(t *testing.T) {
	now := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	rows := []CanonicalRow{{Start: DateField{Date: day(2025, 1, 10)}}}
	tl := LayoutTimeline(rows, now, 100)
	if len(tl.Quarters) != 3 || tl.Quarters[2].Label != "Q3 2025" {
		t.Fatalf("quarters = %+v", tl.Quarters)
	}
}

func TestLayoutTimelineEmpty(t *testing.T) {
	tl := LayoutTimeline(nil, time.Now(), 160)
	if len(tl.Quarters) != 0 || tl.Start != nil {
		t.Fatalf("expected empty timeline, got %+v", tl)
	}
	if tl.Position(day(2024, 1, 1)) != 0 {
		t.Fatalf("empty timeline must position at 0")
	}
}

func TestTimelinePosition(t *testing.T) {
	tl := Timeline{Start: day(2024, 1, 1), Width: 160}
	if got := tl.Position(day(2024, 1, 1)); got != 0 {
		t.Fatalf("position at start = %v", got)
	}
	q := day(2024, 1, 1).Add(time.Duration(91.25 * 24 * float64(time.Hour)))
	if got := tl.Position(&q); math.Abs(got-160) > 1e-9 {
		t.Fatalf("one quarter later = %v", got)
	}
	if got := tl.Position(day(2023, 10, 1)); got >= 0 {
		t.Fatalf("dates before the span must go negative, got %v", got)
	}
	if tl.Position(nil) != 0 {
		t.Fatalf("nil date must position at 0")
	}
}
