package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/acm-ledger/internal/sheet"
)

// serialEpoch is the spreadsheet serial for 1970-01-01 in the 1900 date system,
// including the leap-year bug offset.
const serialEpoch = 25569

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// dateLayouts are tried in order for text cells. US month/day ordering wins
// over day/month for ambiguous slash dates.
var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"Jan 2006", "January 2006", "Jan-2006", "Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006", "2006-01",
}

// CoerceDate converts a cell into a calendar date. Numbers are read as
// spreadsheet serials; text is matched against common layouts. Blank, zero,
// and unparsable input yield nil.
func CoerceDate(c sheet.Cell) *time.Time {
	if c.IsNumber {
		return serialToDate(c.Number)
	}
	return parseDateText(c.Text)
}

func serialToDate(serial float64) *time.Time {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	secs := (serial - serialEpoch) * 86400
	// keep within what time.Time can format as a 4-digit year
	if secs < -62135596800 || secs > 253402300799 {
		return nil
	}
	whole, frac := math.Modf(secs)
	t := time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC()
	return &t
}

func parseDateText(s string) *time.Time {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			t = t.UTC()
			if t.Year() < 1 || t.Year() > 9999 {
				return nil
			}
			return &t
		}
	}
	return nil
}

// DateLabel formats a date as "Mar 2025". A nil date yields "".
func DateLabel(t *time.Time) string {
	if t == nil {
		return ""
	}
	u := t.UTC()
	return monthAbbrev[u.Month()-1] + " " + u.Format("2006")
}

// CoerceDateField resolves a cell into both the label and the internal date.
func CoerceDateField(c sheet.Cell) DateField {
	d := CoerceDate(c)
	return DateField{Label: DateLabel(d), Date: d}
}

// TimeOptions lists "Mon YYYY" labels for the year before, the year of, and
// the year after now, for pickers that edit Start/End labels.
func TimeOptions(now time.Time) []string {
	y := now.Year()
	out := make([]string, 0, 36)
	for _, year := range []int{y - 1, y, y + 1} {
		for _, m := range monthAbbrev {
			out = append(out, m+" "+strconv.Itoa(year))
		}
	}
	return out
}
