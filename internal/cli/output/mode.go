// Package output renders CLI results for terminals, markdown consumers,
// JSON pipelines and spreadsheets.
package output

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	// ModeAuto picks text on a terminal and markdown otherwise.
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
)

// Modes lists the accepted --output values.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON), string(ModeCSV)}
}
