package output

import (
	"bytes"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeCSV, false, ModeCSV},
		{ModeText, false, ModeText},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_Table(t *testing.T) {
	header := []string{"field", "value"}
	rows := [][]string{{"b", "2"}, {"g", "15"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "| field | value |")
		assert.Contains(t, out.String(), "| g | 15 |")
		assert.False(t, ansiPattern.MatchString(out.String()))
	})

	t.Run("csv", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeCSV, false)
		r.Table(header, rows)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		assert.Equal(t, []string{"field,value", "b,2", "g,15"}, lines)
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, true)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "15")
	})
}

func TestRenderer_Messages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(1, "Evaluation Order")
	r.Success("logic is valid")
	r.Warning("3 rows")
	r.Error("bad field")

	assert.Equal(t, "# Evaluation Order\nlogic is valid\n", out.String())
	assert.Equal(t, "warning: 3 rows\nbad field\n", errOut.String())
	assert.Equal(t, "x", r.Muted("x"))
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(DepsOutput{Targets: []string{"l"}, Real: []string{"j"}, Order: []string{"j", "l"}}))
	assert.JSONEq(t, `{"targets":["l"],"real":["j"],"order":["j","l"]}`, out.String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "## Summary", FormatHeader(2, "Summary"))
	assert.Equal(t, "- **Fields**: 13", FormatKeyValue("Fields", "13"))
	assert.Equal(t, "-", FormatList(nil))
	assert.Equal(t, "a, b", FormatList([]string{"a", "b"}))

	assert.Equal(t, "", FormatNumber(math.NaN(), ModeCSV))
	assert.Equal(t, "NaN", FormatNumber(math.NaN(), ModeText))
	assert.Equal(t, "0.5", FormatNumber(0.5, ModeCSV))

	assert.Nil(t, JSONNumber(math.NaN()))
	assert.Nil(t, JSONNumber(math.Inf(1)))
	assert.Equal(t, 2.0, JSONNumber(2))
}

func TestRenderer_StatusLine(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.StatusLine("logic.yaml", "success", "")
	r.StatusLine("b", "error", "more operators than points")
	r.StatusLine("x", "unknown", "")
	assert.Equal(t, "✓ logic.yaml\n✗ b (more operators than points)\n• x\n", out.String())
}
