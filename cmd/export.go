package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/sheet"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	exportFlags  dataFlags
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the filtered, normalized ledger to XLSX or CSV",
	Long: `Write the filtered rows with canonical headers, dates as labels and the audit
annotation columns. The format follows the output extension (.xlsx or .csv).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := exportFlags.load(args[0])
		if err != nil {
			return err
		}
		rows := exportFlags.ordered(ds.Filtered(exportFlags.selection()))
		path := exportOutput
		if path == "" {
			path = fmt.Sprintf("ACM_Ledger_Export_%s.xlsx", time.Now().Format("2006-01-02"))
		}
		if err := writeExport(path, rows); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", len(rows), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path ending in .xlsx or .csv (default ACM_Ledger_Export_<date>.xlsx)")
}

// writeExport renders rows in the format named by path's extension.
func writeExport(path string, rows []ledger.CanonicalRow) error {
	t := ledger.ExportTable(rows)
	var buf bytes.Buffer
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		if err := sheet.WriteXLSX(t, &buf); err != nil {
			return err
		}
	case ".csv":
		if err := sheet.WriteCSV(t, &buf); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export format %q (use .xlsx or .csv)", ext)
	}
	log.Debug("writing export", "path", path, "rows", len(rows), "bytes", buf.Len())
	return utils.SafeWriteFile(path, buf.Bytes())
}
