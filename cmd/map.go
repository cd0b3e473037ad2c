package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	mapFlags  dataFlags
	mapOutput string
)

var mapCmd = &cobra.Command{
	Use:   "map <file>",
	Short: "Infer the column mapping for a workbook",
	Long: `Decode the workbook, propose a source header for every canonical field and print it.
Use -o to save the mapping as YAML, edit it, and pass it back with --mapping.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := mapFlags.load(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sheet %q: %d columns, %d rows\n\n", ds.Table.Sheet, len(ds.Table.Headers), len(ds.Table.Records))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tSOURCE HEADER")
		for _, f := range ledger.CanonicalFields {
			src, ok := ds.Mapping.Source(f)
			if !ok {
				src = "(unmapped: default)"
			}
			fmt.Fprintf(tw, "%s\t%s\n", f, src)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if un := ds.Mapping.Unmapped(); len(un) > 0 {
			fmt.Fprintf(out, "\n%d field(s) unmapped: %s\n", len(un), strings.Join(un, ", "))
		}
		if mapOutput != "" {
			b, err := ledger.MarshalMapping(ds.Mapping)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(mapOutput, b); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n✓ Mapping written to %s\n", mapOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapFlags.register(mapCmd)
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "", "write the mapping as YAML to this path")
}
