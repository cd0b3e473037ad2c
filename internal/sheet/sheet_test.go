package sheet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCell(t *testing.T) {
	cases := []struct {
		in       string
		isNumber bool
		num      float64
	}{
		{"12.5", true, 12.5},
		{" 7 ", true, 7},
		{"NaN", false, 0},
		{"Inf", false, 0},
		{"Plant A", false, 0},
		{"", false, 0},
	}
	for _, tc := range cases {
		c := ParseCell(tc.in)
		if c.IsNumber != tc.isNumber || c.Number != tc.num {
			t.Fatalf("ParseCell(%q) = %+v", tc.in, c)
		}
		if c.String() != tc.in {
			t.Fatalf("String() must keep source text, got %q for %q", c.String(), tc.in)
		}
	}
	if NumberCell(3).String() != "3" || !TextCell(" ").Blank() {
		t.Fatalf("constructor behavior changed")
	}
}

func TestDecodeCSVHeadersAndBlankRows(t *testing.T) {
	data := "\xef\xbb\xbfPlant Name,,Issue,Issue,\nA,x,Trips,dup,\n,,,,\nB,,Leaks,,\n"
	tbl, err := DecodeBytes("ledger.csv", []byte(data), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Plant Name", "__EMPTY", "Issue", "Issue_1", "__EMPTY_1"}
	if !reflect.DeepEqual(tbl.Headers, want) {
		t.Fatalf("headers = %v", tbl.Headers)
	}
	if len(tbl.Records) != 2 {
		t.Fatalf("blank rows must be skipped, got %d records", len(tbl.Records))
	}
	if tbl.Records[1]["Issue"].Text != "Leaks" || tbl.Sheet != "ledger" {
		t.Fatalf("unexpected table: %+v", tbl)
	}
}

func TestDecodeTSV(t *testing.T) {
	tbl, err := DecodeBytes("x.tsv", []byte("Plant\tDuration\nA\t12\n"), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c := tbl.Records[0]["Duration"]
	if !c.IsNumber || c.Number != 12 {
		t.Fatalf("duration cell = %+v", c)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeBytes("empty.csv", nil, Options{}); !errors.Is(err, ErrNoDataRows) {
		t.Fatalf("empty file: %v", err)
	}
	if _, err := DecodeBytes("hdr.csv", []byte("A,B\n"), Options{}); !errors.Is(err, ErrNoDataRows) {
		t.Fatalf("header only: %v", err)
	}
	if _, err := DecodeBytes("bad.xlsx", []byte("not a zip"), Options{}); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("corrupt workbook: %v", err)
	}
	if _, err := DecodeBytes("doc.pdf", []byte("x"), Options{}); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("unsupported type: %v", err)
	}
	if _, err := Decode(filepath.Join(t.TempDir(), "missing.xlsx"), Options{}); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("missing file: %v", err)
	}
}

func writeWorkbookFixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		t.Fatal(err)
	}
	_ = f.SetCellValue("Summary", "A1", "Note")
	_ = f.SetCellValue("Summary", "A2", "cover page")
	if _, err := f.NewSheet("Ledger"); err != nil {
		t.Fatal(err)
	}
	_ = f.SetCellValue("Ledger", "A1", "Plant Name")
	_ = f.SetCellValue("Ledger", "B1", "Start Time")
	_ = f.SetCellValue("Ledger", "C1", "Completion")
	_ = f.SetCellValue("Ledger", "A2", "Alpha")
	_ = f.SetCellValue("Ledger", "B2", 45337)
	_ = f.SetCellValue("Ledger", "C2", 0.75)
	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return p
}

func TestDecodeXLSXSheetSelection(t *testing.T) {
	p := writeWorkbookFixture(t)

	tbl, err := Decode(p, Options{SheetName: "ledger"})
	if err != nil {
		t.Fatalf("decode by name: %v", err)
	}
	if tbl.Sheet != "Ledger" || len(tbl.Records) != 1 {
		t.Fatalf("unexpected table: %+v", tbl)
	}
	start := tbl.Records[0]["Start Time"]
	if !start.IsNumber || start.Number != 45337 {
		t.Fatalf("date serial should decode raw, got %+v", start)
	}

	tbl, err = Decode(p, Options{SheetIndex: 2})
	if err != nil || tbl.Sheet != "Ledger" {
		t.Fatalf("decode by index: %v %+v", err, tbl)
	}
	tbl, err = Decode(p, Options{})
	if err != nil || tbl.Sheet != "Summary" {
		t.Fatalf("default sheet: %v %+v", err, tbl)
	}

	_, err = Decode(p, Options{SheetName: "Nope"})
	if !errors.Is(err, ErrUnreadable) || !strings.Contains(err.Error(), "Available sheets: Summary, Ledger") {
		t.Fatalf("missing sheet error = %v", err)
	}
	if _, err := Decode(p, Options{SheetIndex: 5}); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("index out of range: %v", err)
	}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	src := &Table{
		Sheet:   "ACM Ledger",
		Headers: []string{"Plant Name", "Duration Loss", "Completion"},
		Records: []Record{
			{"Plant Name": TextCell("101"), "Duration Loss": NumberCell(12.5), "Completion": TextCell("1%")},
			{"Plant Name": TextCell("Beta"), "Duration Loss": NumberCell(0)},
		},
	}
	var buf bytes.Buffer
	if err := WriteXLSX(src, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := filepath.Join(t.TempDir(), "out.xlsx")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(p, Options{SheetName: "ACM Ledger"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got.Headers, src.Headers) || len(got.Records) != 2 {
		t.Fatalf("shape changed: %+v", got)
	}
	if got.Records[0]["Plant Name"].String() != "101" || got.Records[0]["Completion"].String() != "1%" {
		t.Fatalf("text cells changed: %+v", got.Records[0])
	}
	if d := got.Records[0]["Duration Loss"]; !d.IsNumber || d.Number != 12.5 {
		t.Fatalf("number cell changed: %+v", d)
	}
}

func TestWriteCSV(t *testing.T) {
	src := &Table{
		Headers: []string{"A", "B"},
		Records: []Record{{"A": TextCell("x, y"), "B": NumberCell(2)}},
	}
	var buf bytes.Buffer
	if err := WriteCSV(src, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "A,B\n\"x, y\",2\n" {
		t.Fatalf("csv = %q", buf.String())
	}
}
