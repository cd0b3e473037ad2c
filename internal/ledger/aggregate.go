package ledger

import (
	"math"
	"sort"
)

// Top-N limits for dashboard datasets.
const (
	TopPlants   = 10
	TopComposed = 12
)

// Metrics are the headline dashboard figures.
type Metrics struct {
	Rows          int     `json:"rows"`
	DurationLoss  float64 `json:"durationLoss"`
	QualityIndex  int     `json:"qualityIndex"`
	Frequency     float64 `json:"frequency"`
	TopCategory   string  `json:"topCategory"`
	AvgCompletion int     `json:"avgCompletion"`
}

// PlantStats aggregates one plant's rows.
type PlantStats struct {
	Plant      string  `json:"plant"`
	Duration   float64 `json:"duration"`
	Frequency  float64 `json:"frequency"`
	Completion float64 `json:"completion"` // mean
	Count      int     `json:"count"`
}

// NamedValue is one bar of a single-series chart.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// HeatPoint places a plant by total loss (X) and mean completion (Y), sized
// by total frequency.
type HeatPoint struct {
	Plant string  `json:"plant"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
}

// IssueLoad sums loss and frequency for one (plant, issue) pair.
type IssueLoad struct {
	Plant     string  `json:"plant"`
	Issue     string  `json:"issue"`
	Duration  float64 `json:"duration"`
	Frequency float64 `json:"frequency"`
}

// Dashboard is every derived view over a filtered row set. It is rebuilt from
// scratch for each input.
type Dashboard struct {
	Metrics              Metrics      `json:"metrics"`
	Plants               []PlantStats `json:"plants"`
	Categories           []NamedValue `json:"categories"`
	Classes              []NamedValue `json:"classes"`
	TopPlantsByLoss      []NamedValue `json:"topPlantsByLoss"`
	TopPlantsByFrequency []NamedValue `json:"topPlantsByFrequency"`
	Heatmap              []HeatPoint  `json:"heatmap"`
	Composed             []IssueLoad  `json:"composed"`
}

// orderedSums accumulates per-key sums while remembering first-seen order.
type orderedSums struct {
	order []string
	sums  map[string]float64
}

func newOrderedSums() *orderedSums { return &orderedSums{sums: map[string]float64{}} }

func (o *orderedSums) add(key string, v float64) {
	if _, ok := o.sums[key]; !ok {
		o.order = append(o.order, key)
	}
	o.sums[key] += v
}

func (o *orderedSums) values() []NamedValue {
	out := make([]NamedValue, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, NamedValue{Name: k, Value: o.sums[k]})
	}
	return out
}

// Aggregate computes the dashboard for rows. Empty input yields zero metrics
// and empty (non-nil) datasets.
func Aggregate(rows []CanonicalRow) Dashboard {
	d := Dashboard{
		Metrics:              Metrics{TopCategory: "N/A"},
		Plants:               []PlantStats{},
		Categories:           []NamedValue{},
		Classes:              []NamedValue{},
		TopPlantsByLoss:      []NamedValue{},
		TopPlantsByFrequency: []NamedValue{},
		Heatmap:              []HeatPoint{},
		Composed:             []IssueLoad{},
	}
	if len(rows) == 0 {
		return d
	}

	var durSum, freqSum, complSum, qualSum float64
	catCounts := map[string]int{}
	var catOrder []string
	plantIdx := map[string]int{}
	var plants []PlantStats
	catLoss := newOrderedSums()
	classLoss := newOrderedSums()
	type issueKey struct{ plant, issue string }
	issueIdx := map[issueKey]int{}
	var issues []IssueLoad

	for _, r := range rows {
		dur, freq, compl := finite(r.Duration), finite(r.Frequency), finite(r.Completion)
		durSum += dur
		freqSum += freq
		complSum += compl
		qualSum += r.Quality.Exact()

		if r.Category != "" {
			if _, ok := catCounts[r.Category]; !ok {
				catOrder = append(catOrder, r.Category)
			}
			catCounts[r.Category]++
			catLoss.add(r.Category, dur)
		}
		if r.Class != "" {
			classLoss.add(r.Class, dur)
		}
		if r.Plant != "" {
			i, ok := plantIdx[r.Plant]
			if !ok {
				i = len(plants)
				plantIdx[r.Plant] = i
				plants = append(plants, PlantStats{Plant: r.Plant})
			}
			p := &plants[i]
			p.Duration += dur
			p.Frequency += freq
			p.Completion += compl
			p.Count++
		}
		k := issueKey{r.Plant, r.Issue}
		i, ok := issueIdx[k]
		if !ok {
			i = len(issues)
			issueIdx[k] = i
			issues = append(issues, IssueLoad{Plant: r.Plant, Issue: r.Issue})
		}
		issues[i].Duration += dur
		issues[i].Frequency += freq
	}

	n := float64(len(rows))
	d.Metrics.Rows = len(rows)
	d.Metrics.DurationLoss = durSum
	d.Metrics.Frequency = freqSum
	d.Metrics.QualityIndex = int(math.Round(qualSum / n))
	d.Metrics.AvgCompletion = int(math.Round(complSum / n))
	best := 0
	for _, c := range catOrder {
		if catCounts[c] > best {
			best = catCounts[c]
			d.Metrics.TopCategory = c
		}
	}

	for i := range plants {
		// Count is at least 1 for every plant that was created
		plants[i].Completion /= float64(plants[i].Count)
	}
	d.Plants = plants
	if d.Plants == nil {
		d.Plants = []PlantStats{}
	}
	d.Categories = catLoss.values()
	d.Classes = classLoss.values()

	byLoss := append([]PlantStats(nil), plants...)
	sort.SliceStable(byLoss, func(i, j int) bool { return byLoss[i].Duration > byLoss[j].Duration })
	d.TopPlantsByLoss = topN(byLoss, TopPlants, func(p PlantStats) float64 { return p.Duration })
	byFreq := append([]PlantStats(nil), plants...)
	sort.SliceStable(byFreq, func(i, j int) bool { return byFreq[i].Frequency > byFreq[j].Frequency })
	d.TopPlantsByFrequency = topN(byFreq, TopPlants, func(p PlantStats) float64 { return p.Frequency })

	for _, p := range plants {
		d.Heatmap = append(d.Heatmap, HeatPoint{Plant: p.Plant, X: p.Duration, Y: math.Round(p.Completion), Size: p.Frequency})
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Duration > issues[j].Duration })
	if len(issues) > TopComposed {
		issues = issues[:TopComposed]
	}
	d.Composed = issues
	return d
}

func topN(ps []PlantStats, n int, val func(PlantStats) float64) []NamedValue {
	if len(ps) > n {
		ps = ps[:n]
	}
	out := make([]NamedValue, 0, len(ps))
	for _, p := range ps {
		out = append(out, NamedValue{Name: p.Plant, Value: val(p)})
	}
	return out
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Quadrant classifies a heatmap point for display.
type Quadrant string

const (
	QuadrantCritical Quadrant = "high-loss & low-completion"
	QuadrantOnTrack  Quadrant = "on-track"
	QuadrantRoutine  Quadrant = "routine"
)

// MaxLoss returns the largest X among heatmap points, or 0.
func (d Dashboard) MaxLoss() float64 {
	var m float64
	for _, p := range d.Heatmap {
		if p.X > m {
			m = p.X
		}
	}
	return m
}

// Classify places p relative to the largest observed loss.
func Classify(p HeatPoint, maxLoss float64) Quadrant {
	switch {
	case p.X > maxLoss*0.5 && p.Y < 30:
		return QuadrantCritical
	case p.Y > 70:
		return QuadrantOnTrack
	}
	return QuadrantRoutine
}
