package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Markdown renders the dashboard as a compact report for terminals or prompts.
func (d Dashboard) Markdown() string {
	var b strings.Builder
	m := d.Metrics
	b.WriteString("[DASHBOARD METRICS]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", m.Rows))
	b.WriteString(fmt.Sprintf("Duration Loss: %s h\n", formatNum(m.DurationLoss)))
	b.WriteString(fmt.Sprintf("Frequency: %s\n", formatNum(m.Frequency)))
	b.WriteString(fmt.Sprintf("Quality Index: %d/100\n", m.QualityIndex))
	b.WriteString(fmt.Sprintf("Avg Completion: %d%%\n", m.AvgCompletion))
	b.WriteString(fmt.Sprintf("Top Category: %s\n", m.TopCategory))

	writeBars(&b, "TOP PLANTS BY DURATION LOSS", d.TopPlantsByLoss)
	writeBars(&b, "TOP PLANTS BY FREQUENCY", d.TopPlantsByFrequency)
	writeBars(&b, "DURATION LOSS BY CATEGORY", d.Categories)
	writeBars(&b, "DURATION LOSS BY CLASS", d.Classes)

	b.WriteString("\n[RISK HEATMAP]\n")
	if len(d.Heatmap) == 0 {
		b.WriteString("(no data)\n")
	}
	maxLoss := d.MaxLoss()
	for _, p := range d.Heatmap {
		b.WriteString(fmt.Sprintf("- %s: loss %s h, completion %s%%, frequency %s [%s]\n",
			safeVal(p.Plant), formatNum(p.X), formatNum(p.Y), formatNum(p.Size), Classify(p, maxLoss)))
	}

	b.WriteString("\n[ISSUE LOAD]\n")
	if len(d.Composed) == 0 {
		b.WriteString("(no data)\n")
		return b.String()
	}
	b.WriteString("| Plant | Chronic Issue | Duration Loss | Frequency |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, c := range d.Composed {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			safeVal(c.Plant), safeVal(c.Issue), formatNum(c.Duration), formatNum(c.Frequency)))
	}
	return b.String()
}

func writeBars(b *strings.Builder, title string, vals []NamedValue) {
	b.WriteString("\n[" + title + "]\n")
	if len(vals) == 0 {
		b.WriteString("(no data)\n")
		return
	}
	for _, v := range vals {
		b.WriteString(fmt.Sprintf("- %s: %s\n", safeVal(v.Name), formatNum(v.Value)))
	}
}

// formatNum prints at most two decimals and no trailing zeros.
func formatNum(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
