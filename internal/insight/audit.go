package insight

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
)

const auditSystem = `You are a member of a corporate CTO team auditing plant action plans. You are direct and specific, and you reply with one JSON object only.`

// auditReply mirrors ledger.AuditReport with lenient number and text fields.
type auditReply struct {
	OverallScore     Number `json:"overallScore"`
	ExecutiveVerdict Text   `json:"executiveVerdict"`
	CEOBrief         Text   `json:"ceoBrief"`
	RedFlags         []Text `json:"redFlags"`
	Audits           []struct {
		ActionTitle      Text `json:"actionTitle"`
		SourceActionPlan Text `json:"sourceActionPlan"`
		QualityRating    Text `json:"qualityRating"`
		Trackability     Text `json:"trackability"`
		ImpactCategory   Text `json:"impactCategory"`
		YTDStatus        Text `json:"ytdStatus"`
		Recommendation   Text `json:"recommendation"`
		Justification    Text `json:"justification"`
		CEOTalkingPoint  Text `json:"ceoTalkingPoint"`
		RiskLevel        Text `json:"riskLevel"`
		ChallengeQuery   Text `json:"ctoChallengeQuery"`
		StrategicAnchor  Text `json:"strategicAnchor"`
		WorthTracking    Text `json:"worthTracking"`
	} `json:"audits"`
}

func (r auditReply) report(plant string) ledger.AuditReport {
	out := ledger.AuditReport{
		Plant:            plant,
		OverallScore:     clampScore(float64(r.OverallScore)),
		ExecutiveVerdict: string(r.ExecutiveVerdict),
		CEOBrief:         string(r.CEOBrief),
		RedFlags:         make([]string, 0, len(r.RedFlags)),
		Audits:           make([]ledger.ActionAudit, 0, len(r.Audits)),
	}
	for _, f := range r.RedFlags {
		if s := strings.TrimSpace(string(f)); s != "" {
			out.RedFlags = append(out.RedFlags, s)
		}
	}
	for _, a := range r.Audits {
		out.Audits = append(out.Audits, ledger.ActionAudit{
			ActionTitle:      strings.TrimSpace(string(a.ActionTitle)),
			SourceActionPlan: strings.TrimSpace(string(a.SourceActionPlan)),
			QualityRating:    string(a.QualityRating),
			Trackability:     string(a.Trackability),
			ImpactCategory:   string(a.ImpactCategory),
			YTDStatus:        string(a.YTDStatus),
			Recommendation:   string(a.Recommendation),
			Justification:    string(a.Justification),
			CEOTalkingPoint:  string(a.CEOTalkingPoint),
			RiskLevel:        string(a.RiskLevel),
			ChallengeQuery:   string(a.ChallengeQuery),
			StrategicAnchor:  string(a.StrategicAnchor),
			WorthTracking:    ledger.NormalizePriority(string(a.WorthTracking)),
		})
	}
	return out
}

func clampScore(f float64) float64 {
	return max(0, min(100, f))
}

func (a *Analyst) auditPrompt(plant string, rows []ledger.CanonicalRow) (string, error) {
	views := make([]rowView, 0, len(rows))
	for _, r := range rows {
		views = append(views, viewOf(r))
	}
	actions, err := utils.PrettyJSON(views)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Audit the following action plans for the plant %q.\n", plant)
	fmt.Fprintf(&b, "Today's reference date is %s.\n\n", a.now().UTC().Format("Jan 2006"))
	b.WriteString("Actions data:\n")
	b.WriteString(utils.TruncateToTokenLimit(string(actions), a.opt.TokenLimit))
	b.WriteString("\n\nJudge each action on:\n")
	b.WriteString("1. Quality: a concrete engineering action versus vague intent.\n")
	b.WriteString("2. Remote trackability: can headquarters verify it without a site visit?\n")
	b.WriteString("3. Strategic category: Capex, Opex or maintenance return.\n")
	b.WriteString("4. Year to date: overdue or on track against Start Time and End Time.\n")
	b.WriteString("5. A talking point for the plant CEO.\n")
	b.WriteString("6. Whether the issue is a systemic risk that needs upper management visibility.\n\n")
	b.WriteString("Return one audit per action. Copy actionTitle from the row's Chronic Issue and sourceActionPlan from its Action Plan exactly as given. ")
	b.WriteString("For each audit also give ctoChallengeQuery (one question the CTO team should ask the plant), strategicAnchor (the evidence artifact to request) and worthTracking (exactly \"High Priority\" or \"Routine\").\n\n")
	b.WriteString(`Reply with JSON of the form {"overallScore": number 0-100, "executiveVerdict": string, "ceoBrief": string of 3 sentences, "redFlags": [string], "audits": [{"actionTitle", "sourceActionPlan", "qualityRating", "trackability", "impactCategory", "ytdStatus", "recommendation", "justification", "ceoTalkingPoint", "riskLevel": "Low"|"Medium"|"High", "ctoChallengeQuery", "strategicAnchor", "worthTracking"}]}`)
	return b.String(), nil
}

// Audit asks the model to audit every row belonging to plant.
func (a *Analyst) Audit(ctx context.Context, plant string, rows []ledger.CanonicalRow) (ledger.AuditReport, error) {
	plant = strings.TrimSpace(plant)
	if plant == "" {
		return ledger.AuditReport{}, fmt.Errorf("%w: a plant is required for an audit", ErrAnalysisFailed)
	}
	var actions []ledger.CanonicalRow
	for _, r := range rows {
		if r.Plant == plant {
			actions = append(actions, r)
		}
	}
	if len(actions) == 0 {
		return ledger.AuditReport{}, fmt.Errorf("%w: plant %q has no rows", ErrAnalysisFailed, plant)
	}
	prompt, err := a.auditPrompt(plant, actions)
	if err != nil {
		return ledger.AuditReport{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	content, err := a.generate(ctx, auditSystem, prompt)
	if err != nil {
		return ledger.AuditReport{}, fmt.Errorf("%w: audit %s: %w", ErrAnalysisFailed, plant, err)
	}
	var reply auditReply
	if err := decodeJSON(content, &reply); err != nil {
		return ledger.AuditReport{}, fmt.Errorf("%w: audit %s: %w", ErrAnalysisFailed, plant, err)
	}
	report := reply.report(plant)
	a.log.Info("audit complete", "plant", plant, "actions", len(actions), "audits", len(report.Audits), "score", report.OverallScore)
	return report, nil
}

// AuditPlants audits each plant concurrently, at most Options.Concurrency at a
// time. Reports come back in the order of plants. The first failure cancels
// the remaining calls and no reports are returned.
func (a *Analyst) AuditPlants(ctx context.Context, plants []string, rows []ledger.CanonicalRow) ([]ledger.AuditReport, error) {
	reports := make([]ledger.AuditReport, len(plants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opt.Concurrency)
	for i, plant := range plants {
		i, plant := i, plant
		g.Go(func() error {
			rep, err := a.Audit(gctx, plant, rows)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// ApplyAll merges every report onto rows in order and returns the annotated
// copy with the total number of matched rows.
func ApplyAll(rows []ledger.CanonicalRow, reports []ledger.AuditReport) ([]ledger.CanonicalRow, int) {
	total := 0
	for _, rep := range reports {
		var n int
		rows, n = ledger.ApplyAudit(rows, rep)
		total += n
	}
	return rows, total
}

// Plants lists the distinct non-blank plants in first-seen order.
func Plants(rows []ledger.CanonicalRow) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		if r.Plant == "" || seen[r.Plant] {
			continue
		}
		seen[r.Plant] = true
		out = append(out, r.Plant)
	}
	return out
}
