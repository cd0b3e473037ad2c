package ledger

import (
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/acm-ledger/internal/sheet"
)

// classCodes maps upper-cased class codes (and full names) to the class vocabulary.
var classCodes = map[string]string{
	"O":           "Operational",
	"M":           "Mechanical",
	"E":           "Electrical",
	"UPWT":        "UPWT",
	"H&S":         "Safety",
	"S":           "Spares",
	"Q":           "Quality",
	"OPERATIONAL": "Operational",
	"MECHANICAL":  "Mechanical",
	"ELECTRICAL":  "Electrical",
	"SAFETY":      "Safety",
	"SPARES":      "Spares",
	"QUALITY":     "Quality",
}

// NormalizeClass maps a class code onto the class vocabulary. Unknown codes
// come back trimmed but otherwise unchanged.
func NormalizeClass(raw string) string {
	s := strings.TrimSpace(raw)
	if v, ok := classCodes[strings.ToUpper(s)]; ok {
		return v
	}
	return s
}

// NormalizeRow coerces one raw record into a canonical row. It never fails:
// unmapped fields take their zero value and malformed cells degrade to defaults.
func NormalizeRow(rec sheet.Record, m ColumnMapping, id string) CanonicalRow {
	row := CanonicalRow{ID: id}
	cell := func(field string) (sheet.Cell, bool) {
		h, ok := m.Source(field)
		if !ok {
			return sheet.Cell{}, false
		}
		return rec[h], true
	}
	text := func(field string) string {
		c, ok := cell(field)
		if !ok {
			return ""
		}
		return c.String()
	}

	row.Plant = text(FieldPlant)
	row.Issue = text(FieldIssue)
	row.FailureDesc = text(FieldFailureDesc)
	row.ActionPlan = text(FieldActionPlan)
	row.Category = text(FieldCategory)
	row.Progress = text(FieldProgress)
	if c, ok := cell(FieldClass); ok {
		row.Class = NormalizeClass(c.String())
	}
	if c, ok := cell(FieldDuration); ok {
		row.Duration = coerceCount(c)
	}
	if c, ok := cell(FieldFrequency); ok {
		row.Frequency = coerceCount(c)
	}
	if c, ok := cell(FieldCompletion); ok {
		row.Completion = coerceCompletion(c)
	}
	if c, ok := cell(FieldStart); ok {
		row.Start = CoerceDateField(c)
	}
	if c, ok := cell(FieldEnd); ok {
		row.End = CoerceDateField(c)
	}

	row.Quality = ScoreActionPlan(row.ActionPlan)
	// annotations only arrive back through a re-imported export
	row.Audit = Audit{
		Question: rec[FieldAuditQuestion].String(),
		Artifact: rec[FieldAuditArtifact].String(),
		Priority: rec[FieldAuditPriority].String(),
	}
	return row
}

// NormalizeAll normalizes every record of a table, assigning fresh IDs.
// The batch is built completely before it is returned.
func NormalizeAll(t *sheet.Table, m ColumnMapping) []CanonicalRow {
	if t == nil {
		return nil
	}
	rows := make([]CanonicalRow, len(t.Records))
	for i, rec := range t.Records {
		rows[i] = NormalizeRow(rec, m, NewRowID())
	}
	return rows
}

// coerceCount reads Duration Loss / Frequency: non-numeric and negative input is 0.
func coerceCount(c sheet.Cell) float64 {
	f, ok := cellNumber(c)
	if !ok || f < 0 {
		return 0
	}
	return f
}

// coerceCompletion treats numeric values at or below 1 as fractions.
func coerceCompletion(c sheet.Cell) float64 {
	f, ok := cellNumber(c)
	if !ok {
		return 0
	}
	if c.IsNumber && f <= 1 {
		return math.Round(f * 100)
	}
	return f
}

func cellNumber(c sheet.Cell) (float64, bool) {
	if c.IsNumber {
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return 0, false
		}
		return c.Number, true
	}
	return parseNumeric(c.Text)
}

// parseNumeric accepts text like "1,250.5", "1.250,5" or "75%".
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos >= 0 && (dpos < 0 || cpos > dpos) {
		// a lone comma followed by exactly three digits reads as thousands
		if dpos >= 0 || len(raw)-cpos-1 != 3 {
			dec = ','
		}
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
