package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/KaramelBytes/acm-ledger/internal/ledger"
	"github.com/KaramelBytes/acm-ledger/internal/utils"
	"github.com/spf13/cobra"
)

var (
	tlFlags        dataFlags
	tlJSON         bool
	tlNow          string
	tlQuarterWidth float64
)

// quarterCols is how many characters one quarter takes in the text chart.
const quarterCols = 8

// timelineBar is one row's bar in pixel space.
type timelineBar struct {
	Plant  string  `json:"plant"`
	Issue  string  `json:"issue"`
	Action string  `json:"actionPlan"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Open   bool    `json:"open"`
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <file>",
	Short: "Lay out action plans on a quarterly timeline",
	Long: `Bucket the filtered rows into calendar quarters spanning the earliest start date to
the latest end date (a missing end date counts as today) and print each row's bar
offset and width in pixels. Rows without a start date have no bar.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		if tlNow != "" {
			t, err := time.Parse("2006-01-02", tlNow)
			if err != nil {
				return fmt.Errorf("invalid --now %q (want YYYY-MM-DD): %w", tlNow, err)
			}
			now = t
		}
		width := tlQuarterWidth
		if width <= 0 && cfg != nil {
			width = cfg.QuarterWidthPx
		}
		ds, err := tlFlags.load(args[0])
		if err != nil {
			return err
		}
		rows := tlFlags.ordered(ds.Filtered(tlFlags.selection()))
		tl := ledger.LayoutTimeline(rows, now, width)
		bars := layoutBars(tl, rows, now)
		out := cmd.OutOrStdout()
		if tlJSON {
			b, err := utils.PrettyJSON(map[string]any{"timeline": tl, "bars": bars, "span": tl.Span()})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		return writeTimeline(out, tl, bars)
	},
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	tlFlags.register(timelineCmd)
	timelineCmd.Flags().BoolVar(&tlJSON, "json", false, "print quarters and bars as JSON")
	timelineCmd.Flags().StringVar(&tlNow, "now", "", "reference date YYYY-MM-DD (default today)")
	timelineCmd.Flags().Float64Var(&tlQuarterWidth, "quarter-width", 0, "pixel width of one quarter (default from config)")
}

func layoutBars(tl ledger.Timeline, rows []ledger.CanonicalRow, now time.Time) []timelineBar {
	bars := make([]timelineBar, 0, len(rows))
	for _, r := range rows {
		if r.Start.Date == nil {
			continue
		}
		end := r.End.Date
		open := end == nil
		if open {
			end = &now
		}
		left := tl.Position(r.Start.Date)
		bars = append(bars, timelineBar{
			Plant:  r.Plant,
			Issue:  r.Issue,
			Action: r.ActionPlan,
			Start:  r.Start.Label,
			End:    r.End.Label,
			Left:   left,
			Width:  math.Max(0, tl.Position(end)-left),
			Open:   open,
		})
	}
	return bars
}

func writeTimeline(w io.Writer, tl ledger.Timeline, bars []timelineBar) error {
	if len(tl.Quarters) == 0 {
		fmt.Fprintln(w, "No rows to lay out.")
		return nil
	}
	labels := make([]string, len(tl.Quarters))
	for i, q := range tl.Quarters {
		labels[i] = fmt.Sprintf("%-*s", quarterCols, q.Label)
	}
	fmt.Fprintf(w, "Quarters (%d x %gpx): %s\n\n", len(tl.Quarters), tl.Width, strings.Join(labels, ""))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLANT\tISSUE\tSTART\tEND\tLEFT(PX)\tWIDTH(PX)\tBAR")
	cols := len(tl.Quarters) * quarterCols
	for _, b := range bars {
		end := b.End
		if b.Open {
			end = "(open)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%.1f\t%s\n",
			clip(b.Plant, 24), clip(b.Issue, 28), b.Start, end, b.Left, b.Width, barString(tl.Width, b, cols))
	}
	return tw.Flush()
}

// barString draws a bar on a fixed-width character grid.
func barString(quarterWidth float64, b timelineBar, cols int) string {
	scale := float64(quarterCols) / quarterWidth
	from := int(math.Floor(b.Left * scale))
	to := int(math.Ceil((b.Left + b.Width) * scale))
	from = max(0, min(cols-1, from))
	to = max(from+1, min(cols, to))
	return "|" + strings.Repeat(" ", from) + strings.Repeat("#", to-from) + strings.Repeat(" ", max(0, cols-to)) + "|"
}
