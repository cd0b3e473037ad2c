package cmd

import (
	"fmt"

	"github.com/KaramelBytes/acm-ledger/internal/insight"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	analyzeFlags  dataFlags
	analyzeAI     aiFlags
	analyzeJSON   bool
	analyzeOutput string
	analyzeDryRun bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Ask a model for an executive summary, KPIs and chart ideas",
	Long: `Send the first rows of the normalized (and filtered) ledger to the configured model and
print its summary, key metrics and proposed charts. Nothing is returned on failure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := analyzeFlags.load(args[0])
		if err != nil {
			return err
		}
		rows := analyzeFlags.ordered(ds.Filtered(analyzeFlags.selection()))
		out := cmd.OutOrStdout()
		if analyzeDryRun {
			n, limit := 20, 6000
			if cfg != nil {
				n, limit = cfg.SnippetRows, cfg.SnippetTokenLimit
			}
			snippet := insight.Snippet(rows, n, limit)
			fmt.Fprintf(out, "--dry-run: no API call will be made. Snippet (≈%d tokens):\n%s\n", utils.CountTokens(snippet), snippet)
			return nil
		}
		an, provider, model, err := analyzeAI.analyst()
		if err != nil {
			return err
		}
		ctx, cancel := analyzeAI.context()
		defer cancel()
		fmt.Fprintf(cmd.ErrOrStderr(), "⚙ Analyzing %d rows with %s (%s) ...\n", len(rows), model, provider)
		res, err := an.Analyze(ctx, rows, ds.Source)
		if err != nil {
			return explainAIError(err, provider, model)
		}
		var body string
		if analyzeJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			body = string(b) + "\n"
		} else {
			body = res.Markdown()
		}
		if analyzeOutput != "" {
			if err := utils.SafeWriteFile(analyzeOutput, []byte(body)); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Analysis written to %s\n", analyzeOutput)
			return nil
		}
		fmt.Fprint(out, body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeFlags.register(analyzeCmd)
	analyzeAI.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the analysis as JSON")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write the analysis to a file")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "print the row snippet without calling a model")
}
