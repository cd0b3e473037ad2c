package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Import failures. Callers tell them apart with errors.Is.
var (
	ErrUnreadable = errors.New("spreadsheet unreadable")
	ErrNoDataRows = errors.New("spreadsheet has no data rows")
)

// Options selects which worksheet to decode.
type Options struct {
	// SheetName wins over SheetIndex when set. Matching ignores case.
	SheetName string
	// SheetIndex is 1-based; 0 means the first sheet.
	SheetIndex int
	// Delimiter for CSV input. If 0, it is chosen from the file extension.
	Delimiter rune
}

// Decode reads a workbook (.xlsx/.xlsm) or delimited text (.csv/.tsv) into a Table.
func Decode(path string, opt Options) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return DecodeBytes(filepath.Base(path), b, opt)
}

// DecodeBytes decodes uploaded file content. name is used for the format
// choice and for messages.
func DecodeBytes(name string, data []byte, opt Options) (*Table, error) {
	var (
		sheetName string
		rows      [][]string
		err       error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		sheetName, rows, err = readWorkbook(name, data, opt)
	case ".csv", ".tsv", ".txt":
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(name)
		}
		sheetName = strings.TrimSuffix(name, filepath.Ext(name))
		rows, err = readDelimited(data, delim)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q (use .xlsx, .csv or .tsv)", ErrUnreadable, ext)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(name, sheetName, rows)
}

func readWorkbook(name string, data []byte, opt Options) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: open %s: %v", ErrUnreadable, name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("%w: workbook %s has no sheets", ErrUnreadable, name)
	}
	target := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				target = s
				break
			}
		}
		if target == "" {
			return "", nil, fmt.Errorf("%w: sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				ErrUnreadable, opt.SheetName, name, strings.Join(sheets, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return "", nil, fmt.Errorf("%w: sheet index %d out of range (workbook '%s' has %d sheets)",
				ErrUnreadable, idx, name, len(sheets))
		}
		target = sheets[idx-1]
	}

	// raw values keep date cells as serial numbers
	rows, err := f.GetRows(target, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("%w: read sheet %s: %v", ErrUnreadable, target, err)
	}
	return target, rows, nil
}

func readDelimited(data []byte, delim rune) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delim
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

// buildTable turns raw rows into headers plus records. The first row is the
// header row; fully blank rows are skipped.
func buildTable(name, sheetName string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoDataRows, name)
	}
	headers := uniqueHeaders(rows[0])
	t := &Table{Name: name, Sheet: sheetName, Headers: headers}
	for _, raw := range rows[1:] {
		rec := make(Record, len(headers))
		blank := true
		for i, h := range headers {
			var v string
			if i < len(raw) {
				v = raw[i]
			}
			c := ParseCell(v)
			if !c.Blank() {
				blank = false
			}
			rec[h] = c
		}
		if blank {
			continue
		}
		t.Records = append(t.Records, rec)
	}
	if len(t.Records) == 0 {
		return nil, fmt.Errorf("%w: %s has a header row but no data", ErrNoDataRows, name)
	}
	return t, nil
}

// uniqueHeaders trims header text, names blank headers __EMPTY, __EMPTY_1, ...
// and suffixes repeats with _1, _2, ...
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	taken := map[string]bool{}
	suffix := map[string]int{}
	for i, h := range raw {
		base := strings.TrimSpace(h)
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		for taken[name] {
			suffix[base]++
			name = fmt.Sprintf("%s_%d", base, suffix[base])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
