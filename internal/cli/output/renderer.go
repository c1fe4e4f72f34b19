package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Renderer writes command output in the configured mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// EffectiveMode resolves ModeAuto against the terminal state.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the text mode styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the diagnostic writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a header styled for the effective mode.
func (r *Renderer) Header(level int, text string) {
	switch r.EffectiveMode() {
	case ModeText:
		style := r.styles.Header2
		if level == 1 {
			style = r.styles.Header1
		}
		r.Println(style.Render(text))
	case ModeMarkdown:
		r.Println(FormatHeader(level, text))
	}
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Success.Render("✓ " + msg))
		return
	}
	r.Println(msg)
}

// Warning writes a warning to the diagnostic writer.
func (r *Renderer) Warning(msg string) {
	if r.EffectiveMode() == ModeText {
		msg = r.styles.Warning.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, "warning: "+msg)
}

// Error writes an error line to the diagnostic writer.
func (r *Renderer) Error(msg string) {
	if r.EffectiveMode() == ModeText {
		msg = r.styles.Error.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, msg)
}

// Muted renders text in the muted style in text mode.
func (r *Renderer) Muted(text string) string {
	if r.EffectiveMode() == ModeText {
		return r.styles.Muted.Render(text)
	}
	return text
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under header in the effective mode: a box table in
// text mode, a pipe table in markdown, and plain CSV otherwise.
// JSON callers encode their own structures.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	switch r.EffectiveMode() {
	case ModeCSV:
		t.RenderCSV()
	case ModeMarkdown:
		t.RenderMarkdown()
	default:
		t.SetStyle(table.StyleLight)
		t.Render()
	}
}

// StatusLine writes a name with a status marker: success, error, warning
// or skipped.
func (r *Renderer) StatusLine(name, status, detail string) {
	marker := map[string]string{
		"success": "✓",
		"error":   "✗",
		"warning": "!",
		"skipped": "-",
	}[status]
	if marker == "" {
		marker = "•"
	}

	line := marker + " " + name
	if r.EffectiveMode() == ModeText {
		switch status {
		case "success":
			line = r.styles.Success.Render(marker) + " " + name
		case "error":
			line = r.styles.Error.Render(marker) + " " + name
		case "warning":
			line = r.styles.Warning.Render(marker) + " " + name
		}
	}
	if detail != "" {
		line += " " + r.Muted("("+detail+")")
	}
	r.Println(line)
}
