package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/sheet"
	"github.com/spf13/cobra"
)

// dataFlags are the import and filter flags shared by every data command.
type dataFlags struct {
	sheetName   string
	sheetIndex  int
	mappingPath string
	overrides   []string
	plant       string
	issue       string
	class       string
	category    string
	sortGroups  bool
}

func (d *dataFlags) register(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&d.sheetName, "sheet-name", "", "worksheet to read (case-insensitive; default first sheet)")
	f.IntVar(&d.sheetIndex, "sheet-index", 0, "1-based worksheet index (used when --sheet-name is empty)")
	f.StringVar(&d.mappingPath, "mapping", "", "YAML column mapping (see 'acm map -o')")
	f.StringArrayVar(&d.overrides, "map", nil, `override one mapping, e.g. --map "Plant Name=Site" (repeatable)`)
	f.StringVar(&d.plant, "plant", "", "filter: plant name")
	f.StringVar(&d.issue, "issue", "", "filter: chronic issue")
	f.StringVar(&d.class, "class", "", "filter: class")
	f.StringVar(&d.category, "category", "", "filter: category")
	f.BoolVar(&d.sortGroups, "sort", true, "stable sort by plant then issue before grouping")
}

func (d *dataFlags) selection() ledger.FilterSelection {
	return ledger.FilterSelection{
		Plant:    strings.TrimSpace(d.plant),
		Issue:    strings.TrimSpace(d.issue),
		Class:    strings.TrimSpace(d.class),
		Category: strings.TrimSpace(d.category),
	}
}

// dataset is an imported and normalized workbook.
type dataset struct {
	Source  string
	Table   *sheet.Table
	Mapping ledger.ColumnMapping
	Ledger  ledger.Ledger
}

// Filtered returns the rows matching the active selection.
func (ds *dataset) Filtered(sel ledger.FilterSelection) []ledger.CanonicalRow {
	return ledger.FilteredRows(sel, ds.Ledger.Rows())
}

// mapping builds the column mapping: inferred, then the mapping file, then
// --map overrides. An empty entry in the file unmaps the field.
func (d *dataFlags) mapping(headers []string) (ledger.ColumnMapping, error) {
	m := ledger.InferMapping(headers)
	if d.mappingPath != "" {
		fromFile, err := ledger.LoadMapping(d.mappingPath)
		if err != nil {
			return nil, err
		}
		for field, src := range fromFile {
			m[field] = src
		}
	}
	for _, o := range d.overrides {
		field, src, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --map %q (want \"Canonical Field=Source Header\")", o)
		}
		if err := m.Set(field, src); err != nil {
			return nil, err
		}
	}
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for _, field := range ledger.CanonicalFields {
		if src, ok := m.Source(field); ok && !known[src] {
			log.Warn("mapped header not found in sheet; field will use defaults", "field", field, "header", src)
		}
	}
	return m, nil
}

// load decodes path and normalizes every row.
func (d *dataFlags) load(path string) (*dataset, error) {
	tbl, err := sheet.Decode(path, sheet.Options{SheetName: d.sheetName, SheetIndex: d.sheetIndex})
	if err != nil {
		return nil, err
	}
	m, err := d.mapping(tbl.Headers)
	if err != nil {
		return nil, err
	}
	if un := m.Unmapped(); len(un) > 0 {
		log.Debug("unmapped fields default", "fields", strings.Join(un, ", "))
	}
	rows := ledger.NormalizeAll(tbl, m)
	log.Debug("imported sheet", "file", filepath.Base(path), "sheet", tbl.Sheet, "rows", len(rows))
	return &dataset{
		Source:  filepath.Base(path),
		Table:   tbl,
		Mapping: m,
		Ledger:  ledger.New(rows),
	}, nil
}

// ordered applies the optional group pre-sort.
func (d *dataFlags) ordered(rows []ledger.CanonicalRow) []ledger.CanonicalRow {
	if d.sortGroups {
		return ledger.SortByGroup(rows)
	}
	return rows
}

// describeSelection renders active filters for headings.
func describeSelection(sel ledger.FilterSelection) string {
	if sel.IsEmpty() {
		return "all rows"
	}
	var parts []string
	for _, f := range ledger.Facets {
		if v := sel.Get(f); v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", f, v))
		}
	}
	return strings.Join(parts, ", ")
}
