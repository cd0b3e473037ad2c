package ledger

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Quality band labels.
const (
	QualityEmpty      = "Empty"
	QualityVague      = "Vague"
	QualityProcedural = "Procedural"
	QualityModerate   = "Moderate"
	QualityTechnical  = "Technical"
)

// Color tokens per quality band.
var qualityColors = map[string]string{
	QualityEmpty:      "#94a3b8",
	QualityVague:      "#ef4444",
	QualityProcedural: "#f97316",
	QualityModerate:   "#f59e0b",
	QualityTechnical:  "#10b981",
}

var (
	highValueKeywords = []string{"replace", "install", "repair", "modify", "calibrate", "purchase", "overhaul", "reinforce", "upgrade"}
	lowValueKeywords  = []string{"monitor", "observe", "discuss", "check", "meeting", "review"}
)

// QualityAssessment scores how concrete an action plan reads.
type QualityAssessment struct {
	Score int    `json:"score"`
	Label string `json:"label"`
	Color string `json:"color"`
	// exact is the unrounded score. Bands and averages use it.
	exact float64
}

// Exact returns the unrounded score.
func (q QualityAssessment) Exact() float64 {
	if q.exact == 0 {
		return float64(q.Score)
	}
	return q.exact
}

// ScoreActionPlan grades free text. Each keyword counts once no matter how
// often it appears.
func ScoreActionPlan(plan string) QualityAssessment {
	if utf8.RuneCountInString(strings.TrimSpace(plan)) < 5 {
		return assessment(10, QualityEmpty)
	}
	n := utf8.RuneCountInString(plan)
	if n < 15 {
		return assessment(25, QualityVague)
	}
	lower := strings.ToLower(plan)
	score := 40.0
	for _, k := range highValueKeywords {
		if strings.Contains(lower, k) {
			score += 15
		}
	}
	for _, k := range lowValueKeywords {
		if strings.Contains(lower, k) {
			score += 5
		}
	}
	score += min(float64(n)/10, 20)
	score = min(score, 100)
	switch {
	case score > 80:
		return assessment(score, QualityTechnical)
	case score > 55:
		return assessment(score, QualityModerate)
	default:
		return assessment(score, QualityProcedural)
	}
}

func assessment(score float64, label string) QualityAssessment {
	return QualityAssessment{
		Score: int(math.Round(score)),
		Label: label,
		Color: qualityColors[label],
		exact: score,
	}
}

// ProgressColor returns the status color token for a progress value.
func ProgressColor(progress string) string {
	p := strings.ToLower(progress)
	switch {
	case strings.Contains(p, "terminated"):
		return "#ef4444"
	case strings.Contains(p, "not started"):
		return "#94a3b8"
	case strings.Contains(p, "in progress"):
		return "#eab308"
	case strings.Contains(p, "completed"):
		return "#22c55e"
	case strings.Contains(p, "continuously"):
		return "#3b82f6"
	}
	return "#6366f1"
}
