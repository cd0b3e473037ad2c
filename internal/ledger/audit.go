package ledger

import "strings"

// Tracking priority labels returned by the audit collaborator.
const (
	PriorityHigh    = "High Priority"
	PriorityRoutine = "Routine"
)

// ActionAudit is the audit of one action plan.
type ActionAudit struct {
	ActionTitle      string `json:"actionTitle"`
	SourceActionPlan string `json:"sourceActionPlan"`
	QualityRating    string `json:"qualityRating"`
	Trackability     string `json:"trackability"`
	ImpactCategory   string `json:"impactCategory"`
	YTDStatus        string `json:"ytdStatus"`
	Recommendation   string `json:"recommendation"`
	Justification    string `json:"justification"`
	CEOTalkingPoint  string `json:"ceoTalkingPoint"`
	RiskLevel        string `json:"riskLevel"`
	ChallengeQuery   string `json:"ctoChallengeQuery"`
	StrategicAnchor  string `json:"strategicAnchor"`
	WorthTracking    string `json:"worthTracking"`
}

// AuditReport is the audit collaborator's verdict on one plant.
type AuditReport struct {
	Plant            string        `json:"plant,omitempty"`
	OverallScore     float64       `json:"overallScore"`
	ExecutiveVerdict string        `json:"executiveVerdict"`
	CEOBrief         string        `json:"ceoBrief"`
	RedFlags         []string      `json:"redFlags"`
	Audits           []ActionAudit `json:"audits"`
}

// ForIssue returns the audits whose title contains issue or is contained in
// it, ignoring case. An empty issue returns every audit.
func (r AuditReport) ForIssue(issue string) []ActionAudit {
	if strings.TrimSpace(issue) == "" {
		return r.Audits
	}
	want := strings.ToLower(issue)
	var out []ActionAudit
	for _, a := range r.Audits {
		title := strings.ToLower(a.ActionTitle)
		if strings.Contains(title, want) || strings.Contains(want, title) {
			out = append(out, a)
		}
	}
	return out
}

// NormalizePriority canonicalizes the two known priority labels. Anything
// else is kept as given, trimmed.
func NormalizePriority(p string) string {
	s := strings.TrimSpace(p)
	switch {
	case strings.EqualFold(s, PriorityHigh):
		return PriorityHigh
	case strings.EqualFold(s, PriorityRoutine):
		return PriorityRoutine
	}
	return s
}

// ApplyAudit merges a report's annotations onto rows. A row is annotated by
// the first audit whose (title, source plan) equals its (Issue, Action Plan)
// ignoring case; unmatched rows keep their existing annotations. rows is not
// modified.
func ApplyAudit(rows []CanonicalRow, report AuditReport) ([]CanonicalRow, int) {
	out := make([]CanonicalRow, len(rows))
	matched := 0
	for i, r := range rows {
		out[i] = r
		for _, a := range report.Audits {
			if strings.EqualFold(a.ActionTitle, r.Issue) && strings.EqualFold(a.SourceActionPlan, r.ActionPlan) {
				out[i].Audit = Audit{
					Question: a.ChallengeQuery,
					Artifact: a.StrategicAnchor,
					Priority: NormalizePriority(a.WorthTracking),
				}
				matched++
				break
			}
		}
	}
	return out, matched
}
