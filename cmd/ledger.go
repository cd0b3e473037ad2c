package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	ledgerFlags dataFlags
	ledgerJSON  bool
	ledgerWidth int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger <file>",
	Short: "Print the grouped ledger for the active filters",
	Long: `Normalize the workbook and print the filtered rows. Consecutive rows of the same
plant and chronic issue are grouped: repeated plant, issue, description, class and
issue-level metrics are left blank after the first row of a group.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := ledgerFlags.load(args[0])
		if err != nil {
			return err
		}
		sel := ledgerFlags.selection()
		rows := ledgerFlags.ordered(ds.Filtered(sel))
		grouped := ledger.GroupRows(rows)
		out := cmd.OutOrStdout()
		if ledgerJSON {
			b, err := utils.PrettyJSON(grouped)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "%s: %d of %d rows (%s)\n\n", ds.Source, len(rows), ds.Ledger.Len(), describeSelection(sel))
		return writeGrouped(out, grouped, ledgerWidth)
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerFlags.register(ledgerCmd)
	ledgerCmd.Flags().BoolVar(&ledgerJSON, "json", false, "print grouped rows as JSON")
	ledgerCmd.Flags().IntVar(&ledgerWidth, "width", 36, "max characters per text cell (0 = no limit)")
}

// writeGrouped prints grouped rows as an aligned table. Audit columns appear
// only when some row carries an annotation.
func writeGrouped(w io.Writer, grouped []ledger.GroupedRow, width int) error {
	withAudit := false
	for _, g := range grouped {
		if g.Row.Audit != (ledger.Audit{}) {
			withAudit = true
			break
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	head := []string{"PLANT", "ISSUE", "FAILURE", "CLASS", "LOSS(H)", "FREQ", "ACTION PLAN", "QUALITY", "CATEGORY", "PROGRESS", "DONE", "START", "END"}
	if withAudit {
		head = append(head, "CTO QUESTION", "ARTIFACT", "PRIORITY")
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	shown := ledger.Blanked(grouped)
	for i, g := range grouped {
		r := shown[i]
		cells := []string{
			r.Plant,
			r.Issue,
			r.FailureDesc,
			r.Class,
			showIf(g.ShowMetrics, num(r.Duration)),
			showIf(g.ShowMetrics, num(r.Frequency)),
			r.ActionPlan,
			fmt.Sprintf("%d %s", r.Quality.Score, r.Quality.Label),
			r.Category,
			r.Progress,
			fmt.Sprintf("%s%%", num(r.Completion)),
			r.Start.Label,
			r.End.Label,
		}
		if withAudit {
			cells = append(cells, r.Audit.Question, r.Audit.Artifact, r.Audit.Priority)
		}
		for i := range cells {
			cells[i] = clip(cells[i], width)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func showIf(show bool, s string) string {
	if show {
		return s
	}
	return ""
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// clip flattens whitespace and cuts s to n runes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
