package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	facetsFlags dataFlags
	facetsJSON  bool
)

var facetsCmd = &cobra.Command{
	Use:   "facets <file>",
	Short: "List the cascading filter options",
	Long: `Print the available values of each facet (plant, issue, class, category). The
options for a facet honor every other active filter but not the facet's own, so
the current choice stays listed among its alternatives.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := facetsFlags.load(args[0])
		if err != nil {
			return err
		}
		sel := facetsFlags.selection()
		opts := ledger.AllOptions(sel, ds.Ledger.Rows())
		out := cmd.OutOrStdout()
		if facetsJSON {
			payload := map[string]any{
				"selection":  sel,
				"options":    opts,
				"categories": ds.Ledger.CategoryVocabulary(),
				"classes":    ledger.ClassOptions,
				"progress":   ledger.ProgressOptions,
			}
			b, err := utils.PrettyJSON(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Filters: %s\n", describeSelection(sel))
		for _, f := range ledger.Facets {
			marker := ""
			if v := sel.Get(f); v != "" {
				marker = fmt.Sprintf(" (selected: %s)", v)
			}
			fmt.Fprintf(out, "\n[%s]%s\n", strings.ToUpper(string(f)), marker)
			if len(opts[f]) == 0 {
				fmt.Fprintln(out, "  (none)")
			}
			for _, o := range opts[f] {
				fmt.Fprintf(out, "  - %s\n", o)
			}
		}
		fmt.Fprintf(out, "\nCategory vocabulary: %s\n", strings.Join(ds.Ledger.CategoryVocabulary(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(facetsCmd)
	facetsFlags.register(facetsCmd)
	facetsCmd.Flags().BoolVar(&facetsJSON, "json", false, "print options as JSON")
}
