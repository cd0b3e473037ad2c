package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
)

// Metric is one KPI tile proposed by the model.
type Metric struct {
	Label      string `json:"label"`
	Value      Text   `json:"value"`
	Change     string `json:"change,omitempty"`
	IsPositive bool   `json:"isPositive,omitempty"`
}

// Chart describes one chart the model proposes over canonical fields.
type Chart struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	XAxis string `json:"xAxis"`
	YAxis string `json:"yAxis"`
}

// Insight is the decoded analysis reply.
type Insight struct {
	Summary string   `json:"summary"`
	Metrics []Metric `json:"metrics"`
	Charts  []Chart  `json:"charts"`
}

const analysisSystem = `You are a reliability engineering analyst. You read industrial failure and maintenance ledgers and reply with one JSON object only.`

func analysisPrompt(snippet, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following industrial operational data from %q and produce a dashboard description.\n", source)
	b.WriteString("Each row has the fields: " + strings.Join(ledger.CanonicalFields, ", ") + ", plus a computed Quality Score.\n\n")
	b.WriteString("Data snippet:\n")
	b.WriteString(snippet)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. Write an executive summary of the key bottlenecks, the main downtime causes (Duration Loss) and resolution progress.\n")
	b.WriteString("2. Give 4 KPIs: total Duration Loss, mean time between failures if it can be estimated, average Completion, and the most frequent failure Category.\n")
	b.WriteString("3. Propose 4 charts: Duration Loss per Plant or Category, failure Frequency, a progress or completion breakdown, and failures by Class or Category.\n")
	b.WriteString("4. Chart xAxis and yAxis must be field names from the list above.\n\n")
	b.WriteString(`Reply with JSON of the form {"summary": string, "metrics": [{"label": string, "value": string, "change": string, "isPositive": bool}], "charts": [{"id": string, "type": "bar"|"line"|"pie"|"area", "title": string, "xAxis": string, "yAxis": string}]}`)
	return b.String()
}

// Analyze sends the first rows of the ledger to the model and decodes its
// summary, metrics and chart descriptors. source names the imported file.
func (a *Analyst) Analyze(ctx context.Context, rows []ledger.CanonicalRow, source string) (Insight, error) {
	if len(rows) == 0 {
		return Insight{}, fmt.Errorf("%w: no rows to analyze", ErrAnalysisFailed)
	}
	if strings.TrimSpace(source) == "" {
		source = "ACM Export"
	}
	snippet := Snippet(rows, a.opt.SnippetRows, a.opt.TokenLimit)
	content, err := a.generate(ctx, analysisSystem, analysisPrompt(snippet, source))
	if err != nil {
		return Insight{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	var out Insight
	if err := decodeJSON(content, &out); err != nil {
		return Insight{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if err := out.validate(); err != nil {
		return Insight{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	a.log.Info("analysis complete", "source", source, "metrics", len(out.Metrics), "charts", len(out.Charts))
	return out, nil
}

func (in *Insight) validate() error {
	if strings.TrimSpace(in.Summary) == "" {
		return errors.New("reply has no summary")
	}
	if in.Metrics == nil {
		in.Metrics = []Metric{}
	}
	if in.Charts == nil {
		in.Charts = []Chart{}
	}
	for i, c := range in.Charts {
		if c.ID == "" {
			in.Charts[i].ID = fmt.Sprintf("chart-%d", i+1)
		}
		in.Charts[i].Type = strings.ToLower(strings.TrimSpace(c.Type))
	}
	return nil
}

// Markdown renders the insight for terminal output.
func (in Insight) Markdown() string {
	var b strings.Builder
	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(in.Summary))
	b.WriteString("\n\n## Metrics\n\n")
	if len(in.Metrics) == 0 {
		b.WriteString("(none)\n")
	}
	for _, m := range in.Metrics {
		fmt.Fprintf(&b, "- %s: %s", m.Label, m.Value)
		if m.Change != "" {
			sign := "-"
			if m.IsPositive {
				sign = "+"
			}
			fmt.Fprintf(&b, " (%s %s)", sign, m.Change)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n## Charts\n\n")
	if len(in.Charts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range in.Charts {
		fmt.Fprintf(&b, "- [%s] %s: %s by %s (%s)\n", c.ID, c.Title, c.YAxis, c.XAxis, c.Type)
	}
	return b.String()
}
