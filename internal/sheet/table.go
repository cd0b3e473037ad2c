package sheet

import (
	"math"
	"strconv"
	"strings"
)

// Cell is one decoded spreadsheet value: a number, a piece of text, or blank.
type Cell struct {
	Text     string
	Number   float64
	IsNumber bool
}

// Blank reports whether the cell carries no value.
func (c Cell) Blank() bool { return !c.IsNumber && strings.TrimSpace(c.Text) == "" }

// String renders the cell the way a text field should read it.
func (c Cell) String() string {
	if c.IsNumber && c.Text == "" {
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return c.Text
}

// NumberCell builds a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f, IsNumber: true}
}

// TextCell builds a text cell without numeric interpretation.
func TextCell(s string) Cell { return Cell{Text: s} }

// ParseCell interprets a raw cell string. Numeric-looking values become numbers,
// everything else stays text.
func ParseCell(raw string) Cell {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Cell{Text: raw}
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Cell{Text: raw, Number: f, IsNumber: true}
	}
	return Cell{Text: raw}
}

// Record maps a source header to the cell under it for one data row.
type Record map[string]Cell

// Table is a decoded sheet: ordered headers plus one Record per data row.
type Table struct {
	Name    string
	Sheet   string
	Headers []string
	Records []Record
}

// Row returns the record's cells in header order.
func (t *Table) Row(i int) []Cell {
	out := make([]Cell, len(t.Headers))
	if i < 0 || i >= len(t.Records) {
		return out
	}
	for j, h := range t.Headers {
		out[j] = t.Records[i][h]
	}
	return out
}
