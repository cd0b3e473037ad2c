package ledger

import (
	"strconv"

	"github.com/KaramelBytes/acm-ledger/internal/sheet"
)

// ExportSheetName is the worksheet name used for exported ledgers.
const ExportSheetName = "ACM Ledger"

// ExportHeaders lists the flat export columns: the canonical fields followed
// by the audit annotations.
var ExportHeaders = append(append([]string{}, CanonicalFields...),
	FieldAuditQuestion, FieldAuditArtifact, FieldAuditPriority)

// ExportTable flattens rows for a spreadsheet writer. Row identity, parsed
// dates, display flags and quality assessments are left out; dates travel as
// their labels and numeric fields stay numeric.
func ExportTable(rows []CanonicalRow) *sheet.Table {
	t := &sheet.Table{
		Name:    ExportSheetName,
		Sheet:   ExportSheetName,
		Headers: append([]string{}, ExportHeaders...),
		Records: make([]sheet.Record, 0, len(rows)),
	}
	for _, r := range rows {
		t.Records = append(t.Records, sheet.Record{
			FieldPlant:         sheet.TextCell(r.Plant),
			FieldIssue:         sheet.TextCell(r.Issue),
			FieldFailureDesc:   sheet.TextCell(r.FailureDesc),
			FieldActionPlan:    sheet.TextCell(r.ActionPlan),
			FieldClass:         sheet.TextCell(r.Class),
			FieldDuration:      sheet.NumberCell(r.Duration),
			FieldFrequency:     sheet.NumberCell(r.Frequency),
			FieldCategory:      sheet.TextCell(r.Category),
			FieldProgress:      sheet.TextCell(r.Progress),
			FieldCompletion:    completionCell(r.Completion),
			FieldStart:         sheet.TextCell(r.Start.Label),
			FieldEnd:           sheet.TextCell(r.End.Label),
			FieldAuditQuestion: sheet.TextCell(r.Audit.Question),
			FieldAuditArtifact: sheet.TextCell(r.Audit.Artifact),
			FieldAuditPriority: sheet.TextCell(r.Audit.Priority),
		})
	}
	return t
}

// completionCell keeps small percentages from reading back as fractions: a
// bare numeric 1 re-imports as 100%, so values in (0, 1] carry a % suffix.
func completionCell(v float64) sheet.Cell {
	if v > 0 && v <= 1 {
		return sheet.TextCell(strconv.FormatFloat(v, 'f', -1, 64) + "%")
	}
	return sheet.NumberCell(v)
}
