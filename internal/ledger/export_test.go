package ledger

import (
	"testing"

	"github.com/KaramelBytes/acm-ledger/internal/sheet"
)

func TestExportReimportRoundTrip(t *testing.T) {
	src := &sheet.Table{
		Headers: CanonicalFields,
		Records: []sheet.Record{
			{
				FieldPlant: sheet.TextCell("Alpha"), FieldIssue: sheet.TextCell("Trips"),
				FieldFailureDesc: sheet.TextCell("Belt slip"), FieldActionPlan: sheet.TextCell("Replace the belt tensioner"),
				FieldClass: sheet.TextCell("M"), FieldDuration: sheet.NumberCell(12.5), FieldFrequency: sheet.NumberCell(3),
				FieldCategory: sheet.TextCell("Reliability"), FieldProgress: sheet.TextCell("In Progress"),
				FieldCompletion: sheet.NumberCell(0.4), FieldStart: sheet.NumberCell(45337), FieldEnd: sheet.TextCell("Nov 2024"),
			},
			{
				FieldPlant: sheet.TextCell("101"), FieldIssue: sheet.TextCell("Leaks"),
				FieldCompletion: sheet.TextCell("1%"),
			},
		},
	}
	rows := NormalizeAll(src, InferMapping(src.Headers))
	rows[0].Audit = Audit{Question: "Why?", Artifact: "CMMS log", Priority: PriorityRoutine}

	exported := ExportTable(rows)
	if exported.Sheet != ExportSheetName || len(exported.Headers) != len(CanonicalFields)+3 {
		t.Fatalf("unexpected export shape: %s %v", exported.Sheet, exported.Headers)
	}
	again := NormalizeAll(exported, InferMapping(exported.Headers))
	if len(again) != len(rows) {
		t.Fatalf("row count changed: %d", len(again))
	}
	for i := range rows {
		a, b := rows[i], again[i]
		for _, f := range CanonicalFields {
			if a.Text(f) != b.Text(f) {
				t.Fatalf("row %d field %s: %q != %q", i, f, a.Text(f), b.Text(f))
			}
		}
		if a.Duration != b.Duration || a.Frequency != b.Frequency || a.Completion != b.Completion {
			t.Fatalf("row %d numbers changed: %+v vs %+v", i, a, b)
		}
		if a.Audit != b.Audit {
			t.Fatalf("row %d audit changed: %+v vs %+v", i, a.Audit, b.Audit)
		}
	}
}
