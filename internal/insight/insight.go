// Package insight asks a chat model to summarize and audit ledger rows and
// decodes the structured JSON it returns.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/acm-ledger/internal/ai"
	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/logger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
)

// ErrAnalysisFailed wraps every provider or decode failure. No partial result
// accompanies it.
var ErrAnalysisFailed = errors.New("analysis failed")

// Options tune prompts and requests. Zero values pick defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// SnippetRows caps how many rows the analysis prompt carries.
	SnippetRows int
	// TokenLimit caps the estimated size of the row snippet.
	TokenLimit int
	// Concurrency bounds simultaneous audit calls in AuditPlants.
	Concurrency int
}

const (
	defaultSnippetRows = 20
	defaultTokenLimit  = 6000
	defaultConcurrency = 3
)

func (o Options) withDefaults() Options {
	if o.SnippetRows <= 0 {
		o.SnippetRows = defaultSnippetRows
	}
	if o.TokenLimit <= 0 {
		o.TokenLimit = defaultTokenLimit
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	return o
}

// Analyst runs analysis and audit prompts against one runtime.
type Analyst struct {
	rt  ai.Runtime
	opt Options
	log *logger.Logger
	now func() time.Time
}

// New returns an Analyst. A nil logger discards diagnostics.
func New(rt ai.Runtime, opt Options, log *logger.Logger) *Analyst {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyst{rt: rt, opt: opt.withDefaults(), log: log, now: time.Now}
}

// rowView is the JSON shape rows take inside prompts.
type rowView struct {
	Plant       string  `json:"Plant Name"`
	Issue       string  `json:"Chronic Issue"`
	FailureDesc string  `json:"Failures Description"`
	ActionPlan  string  `json:"Action Plan"`
	Class       string  `json:"Class"`
	Duration    float64 `json:"Duration Loss"`
	Frequency   float64 `json:"Frequency"`
	Category    string  `json:"Category"`
	Progress    string  `json:"Progress"`
	Completion  float64 `json:"Completion"`
	Start       string  `json:"Start Time"`
	End         string  `json:"End Time"`
	Quality     int     `json:"Quality Score"`
}

func viewOf(r ledger.CanonicalRow) rowView {
	return rowView{
		Plant:       r.Plant,
		Issue:       r.Issue,
		FailureDesc: r.FailureDesc,
		ActionPlan:  r.ActionPlan,
		Class:       r.Class,
		Duration:    r.Duration,
		Frequency:   r.Frequency,
		Category:    r.Category,
		Progress:    r.Progress,
		Completion:  r.Completion,
		Start:       r.Start.Label,
		End:         r.End.Label,
		Quality:     r.Quality.Score,
	}
}

// Snippet renders up to n rows as indented JSON, truncated to tokenLimit.
func Snippet(rows []ledger.CanonicalRow, n, tokenLimit int) string {
	if n > len(rows) {
		n = len(rows)
	}
	views := make([]rowView, 0, n)
	for _, r := range rows[:n] {
		views = append(views, viewOf(r))
	}
	b, err := utils.PrettyJSON(views)
	if err != nil {
		return "[]"
	}
	return utils.TruncateToTokenLimit(string(b), tokenLimit)
}

// generate sends one JSON-mode request and returns the raw model text.
func (a *Analyst) generate(ctx context.Context, system, user string) (string, error) {
	req := ai.GenerateRequest{
		Model: a.opt.Model,
		Messages: []ai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:      a.opt.MaxTokens,
		Temperature:    a.opt.Temperature,
		ResponseFormat: ai.JSONObject,
	}
	a.log.Debug("sending prompt", "model", a.opt.Model, "tokens", utils.TokenBreakdown(map[string]string{"system": system, "user": user}))
	resp, err := a.rt.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	content := resp.Content()
	if strings.TrimSpace(content) == "" {
		return "", errors.New("model returned no content")
	}
	if resp.RequestID != "" {
		a.log.Debug("model replied", "request_id", resp.RequestID, "completion_tokens", resp.Usage.CompletionTokens)
	}
	return content, nil
}

// decodeJSON extracts the JSON object from content and decodes it into v.
func decodeJSON(content string, v any) error {
	raw := extractJSON(content)
	if raw == "" {
		return errors.New("no JSON object in model output")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// extractJSON strips Markdown code fences and any prose around the outermost
// JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// Text is a string that also accepts a JSON number or boolean.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unsupported value %s", b)
	}
	*t = Text(strconv.FormatBool(v))
	return nil
}

// Number is a float64 that also accepts a numeric string such as "85" or "85%".
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
