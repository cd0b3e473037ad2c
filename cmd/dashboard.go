package cmd

import (
	"fmt"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	dashFlags dataFlags
	dashJSON  bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <file>",
	Short: "Print dashboard metrics and chart datasets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dashFlags.load(args[0])
		if err != nil {
			return err
		}
		sel := dashFlags.selection()
		d := ledger.Aggregate(ds.Filtered(sel))
		out := cmd.OutOrStdout()
		if dashJSON {
			b, err := utils.PrettyJSON(d)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "# %s (%s)\n\n", ds.Source, describeSelection(sel))
		fmt.Fprint(out, d.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashFlags.register(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&dashJSON, "json", false, "print the dashboard as JSON")
}
