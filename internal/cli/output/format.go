package output

import (
	"math"
	"strings"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return "- **" + key + "**: " + value
}

// FormatList returns a comma-separated list, or "-" when empty.
func FormatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// FormatNumber renders a float for tables. NaN renders as an empty cell
// in CSV and as "NaN" elsewhere.
func FormatNumber(f float64, mode Mode) string {
	if math.IsNaN(f) && mode == ModeCSV {
		return ""
	}
	return core.FormatFloat(f)
}

// JSONNumber maps NaN and infinities to nil, which encoding/json renders
// as null.
func JSONNumber(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
