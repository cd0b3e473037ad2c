package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/acm-ledger/internal/insight"
	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	auditFlags     dataFlags
	auditAI        aiFlags
	auditAllPlants bool
	auditJSON      bool
	auditExport    string
)

var auditCmd = &cobra.Command{
	Use:   "audit <file>",
	Short: "Audit a plant's action plans and annotate the ledger",
	Long: `Send every row of the selected plant (--plant) or of every plant (--all-plants) to the
configured model for a CTO-style audit. Each returned action audit is merged back
onto the row with the same chronic issue and action plan (ignoring case), filling
the CTO Question, Artifact and Tracking Priority columns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !auditAllPlants && strings.TrimSpace(auditFlags.plant) == "" {
			return fmt.Errorf("select a plant with --plant or use --all-plants")
		}
		ds, err := auditFlags.load(args[0])
		if err != nil {
			return err
		}
		all := ds.Ledger.Rows()
		plants := []string{strings.TrimSpace(auditFlags.plant)}
		if auditAllPlants {
			plants = insight.Plants(all)
		}
		an, provider, model, err := auditAI.analyst()
		if err != nil {
			return err
		}
		ctx, cancel := auditAI.context()
		defer cancel()
		fmt.Fprintf(cmd.ErrOrStderr(), "⚙ Auditing %d plant(s) with %s (%s) ...\n", len(plants), model, provider)
		reports, err := an.AuditPlants(ctx, plants, all)
		if err != nil {
			return explainAIError(err, provider, model)
		}
		annotated, matched := insight.ApplyAll(all, reports)
		log.Info("audit merged", "plants", len(plants), "matched_rows", matched)

		out := cmd.OutOrStdout()
		if auditJSON {
			b, err := utils.PrettyJSON(reports)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			for _, rep := range reports {
				writeReport(out, rep, auditFlags.issue)
			}
			sel := auditFlags.selection()
			if auditAllPlants {
				sel = sel.Clear(ledger.FacetPlant)
			}
			rows := auditFlags.ordered(ledger.FilteredRows(sel, annotated))
			fmt.Fprintf(out, "\nAnnotated %d row(s). Ledger (%s):\n\n", matched, describeSelection(sel))
			if err := writeGrouped(out, ledger.GroupRows(rows), 36); err != nil {
				return err
			}
		}
		if auditExport != "" {
			if err := writeExport(auditExport, annotated); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Annotated ledger exported to %s\n", auditExport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditFlags.register(auditCmd)
	auditAI.register(auditCmd)
	auditCmd.Flags().BoolVar(&auditAllPlants, "all-plants", false, "audit every plant concurrently (see audit_concurrency)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print the audit reports as JSON")
	auditCmd.Flags().StringVar(&auditExport, "export", "", "also export the annotated ledger (.xlsx or .csv)")
}

// writeReport prints one plant's verdict. issue narrows the listed audits.
func writeReport(w io.Writer, rep ledger.AuditReport, issue string) {
	fmt.Fprintf(w, "\n== %s: score %.0f/100 ==\n", rep.Plant, rep.OverallScore)
	if rep.ExecutiveVerdict != "" {
		fmt.Fprintf(w, "Verdict: %s\n", rep.ExecutiveVerdict)
	}
	if rep.CEOBrief != "" {
		fmt.Fprintf(w, "CEO brief: %s\n", rep.CEOBrief)
	}
	for _, f := range rep.RedFlags {
		fmt.Fprintf(w, "⚠ %s\n", f)
	}
	for _, a := range rep.ForIssue(issue) {
		fmt.Fprintf(w, "- %s [%s, risk %s, %s]\n", a.ActionTitle, a.QualityRating, a.RiskLevel, a.WorthTracking)
		if a.ChallengeQuery != "" {
			fmt.Fprintf(w, "    Q: %s\n", a.ChallengeQuery)
		}
		if a.StrategicAnchor != "" {
			fmt.Fprintf(w, "    Artifact: %s\n", a.StrategicAnchor)
		}
		if a.Recommendation != "" {
			fmt.Fprintf(w, "    Recommendation: %s\n", a.Recommendation)
		}
	}
}
