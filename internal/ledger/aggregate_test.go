package ledger

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func aggRow(plant, issue, class, cat string, dur, freq, compl float64, q int) CanonicalRow {
	return CanonicalRow{
		ID: plant + issue, Plant: plant, Issue: issue, Class: class, Category: cat,
		Duration: dur, Frequency: freq, Completion: compl,
		Quality: QualityAssessment{Score: q},
	}
}

func TestAggregateEmpty(t *testing.T) {
	d := Aggregate(nil)
	if d.Metrics.Rows != 0 || d.Metrics.DurationLoss != 0 || d.Metrics.QualityIndex != 0 || d.Metrics.AvgCompletion != 0 {
		t.Fatalf("expected zero metrics, got %+v", d.Metrics)
	}
	if d.Metrics.TopCategory != "N/A" {
		t.Fatalf("top category = %q", d.Metrics.TopCategory)
	}
	if d.Plants == nil || d.Categories == nil || d.Classes == nil || d.TopPlantsByLoss == nil ||
		d.TopPlantsByFrequency == nil || d.Heatmap == nil || d.Composed == nil {
		t.Fatalf("datasets must be empty, not nil: %+v", d)
	}
	if !strings.Contains(d.Markdown(), "(no data)") {
		t.Fatalf("empty markdown should say so")
	}
}

func TestAggregateMetricsAndGroups(t *testing.T) {
	rows := []CanonicalRow{
		aggRow("A", "Trips", "Mechanical", "Reliability", 10, 2, 50, 40),
		aggRow("A", "Leaks", "Electrical", "Safety", 30, 1, 0, 90),
		aggRow("B", "Trips", "Mechanical", "Safety", 5, 4, 100, 10),
		aggRow("B", "Trips", "Mechanical", "Reliability", 5, 1, 80, 25),
	}
	d := Aggregate(rows)
	m := d.Metrics
	if m.Rows != 4 || m.DurationLoss != 50 || m.Frequency != 8 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.QualityIndex != 41 { // 165/4 = 41.25
		t.Fatalf("quality index = %d", m.QualityIndex)
	}
	if m.AvgCompletion != 58 { // 230/4 = 57.5
		t.Fatalf("avg completion = %d", m.AvgCompletion)
	}
	// Reliability and Safety tie at 2; Reliability was seen first.
	if m.TopCategory != "Reliability" {
		t.Fatalf("top category = %q", m.TopCategory)
	}
	if len(d.Plants) != 2 || d.Plants[0].Plant != "A" || d.Plants[0].Duration != 40 || d.Plants[0].Completion != 25 || d.Plants[0].Count != 2 {
		t.Fatalf("plant A = %+v", d.Plants)
	}
	if d.Plants[1].Completion != 90 || d.Plants[1].Frequency != 5 {
		t.Fatalf("plant B = %+v", d.Plants[1])
	}
	if len(d.Classes) != 2 || d.Classes[0].Name != "Mechanical" || d.Classes[0].Value != 20 {
		t.Fatalf("classes = %+v", d.Classes)
	}
	if d.TopPlantsByLoss[0].Name != "A" || d.TopPlantsByFrequency[0].Name != "B" {
		t.Fatalf("top plants = %+v / %+v", d.TopPlantsByLoss, d.TopPlantsByFrequency)
	}
	if len(d.Composed) != 3 || d.Composed[0].Issue != "Leaks" || d.Composed[0].Duration != 30 {
		t.Fatalf("composed = %+v", d.Composed)
	}
	// B/Trips sums two rows
	for _, c := range d.Composed {
		if c.Plant == "B" && (c.Duration != 10 || c.Frequency != 5) {
			t.Fatalf("B/Trips = %+v", c)
		}
	}
}

func TestAggregateAveragesUnroundedQuality(t *testing.T) {
	// 41.5 and 42.5 round to 42 and 43 individually; their mean is 42.
	rows := []CanonicalRow{
		{ID: "1", Plant: "A", Quality: ScoreActionPlan(strings.Repeat("x", 15))},
		{ID: "2", Plant: "A", Quality: ScoreActionPlan(strings.Repeat("x", 25))},
	}
	if rows[0].Quality.Score != 42 || rows[1].Quality.Score != 43 {
		t.Fatalf("scores = %d, %d", rows[0].Quality.Score, rows[1].Quality.Score)
	}
	if got := Aggregate(rows).Metrics.QualityIndex; got != 42 {
		t.Fatalf("quality index = %d, want 42", got)
	}
}

func TestAggregateTopNLimits(t *testing.T) {
	var rows []CanonicalRow
	for i := 0; i < 15; i++ {
		rows = append(rows, aggRow(fmt.Sprintf("P%02d", i), "I", "M", "C", float64(i), float64(15-i), 0, 0))
	}
	d := Aggregate(rows)
	if len(d.TopPlantsByLoss) != TopPlants || d.TopPlantsByLoss[0].Name != "P14" {
		t.Fatalf("top by loss = %+v", d.TopPlantsByLoss)
	}
	if len(d.TopPlantsByFrequency) != TopPlants || d.TopPlantsByFrequency[0].Name != "P00" {
		t.Fatalf("top by frequency = %+v", d.TopPlantsByFrequency)
	}
	if len(d.Composed) != TopComposed {
		t.Fatalf("composed len = %d", len(d.Composed))
	}
	if len(d.Heatmap) != 15 {
		t.Fatalf("heatmap len = %d", len(d.Heatmap))
	}
}

func TestAggregateIgnoresNonFinite(t *testing.T) {
	rows := []CanonicalRow{aggRow("A", "I", "M", "C", math.NaN(), math.Inf(1), 10, 50)}
	d := Aggregate(rows)
	if d.Metrics.DurationLoss != 0 || d.Metrics.Frequency != 0 {
		t.Fatalf("non-finite values must count as 0: %+v", d.Metrics)
	}
}

func TestClassifyQuadrants(t *testing.T) {
	cases := []struct {
		p    HeatPoint
		want Quadrant
	}{
		{HeatPoint{X: 80, Y: 10}, QuadrantCritical},
		{HeatPoint{X: 50, Y: 10}, QuadrantRoutine},
		{HeatPoint{X: 80, Y: 30}, QuadrantRoutine},
		{HeatPoint{X: 10, Y: 71}, QuadrantOnTrack},
		{HeatPoint{X: 90, Y: 90}, QuadrantOnTrack},
	}
	for _, tc := range cases {
		if got := Classify(tc.p, 100); got != tc.want {
			t.Fatalf("Classify(%+v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}
