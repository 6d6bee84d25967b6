package output

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantBold bool
		wantFG   lipgloss.TerminalColor
		wantDim  bool
	}{
		{name: "module returns green", status: StatusModule, wantFG: ColorGreen},
		{name: "ignored returns faint", status: StatusIgnored, wantDim: true},
		{name: "failed returns bold red", status: StatusFailed, wantBold: true, wantFG: ColorBoldRed},
		{name: "unknown is unstyled", status: "other", wantFG: lipgloss.NoColor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := StatusStyle(tt.status)
			assert.Equal(t, tt.wantBold, style.GetBold())
			assert.Equal(t, tt.wantDim, style.GetFaint())
			if !tt.wantDim {
				assert.Equal(t, tt.wantFG, style.GetForeground())
			}
		})
	}
}

func TestFormatResultLine(t *testing.T) {
	line := FormatResultLine("src/page.cue", "app/client", StatusModule)
	assert.Contains(t, line, "src/page.cue")
	assert.Contains(t, line, "app/client")
	assert.Contains(t, line, StatusModule)

	noLayer := FormatResultLine("src/page.cue", "", StatusIgnored)
	assert.NotContains(t, noLayer, "[")
	assert.Contains(t, noLayer, StatusIgnored)
}

func TestFormatCheckmark(t *testing.T) {
	assert.Contains(t, FormatCheckmark("done"), "done")
	assert.Contains(t, FormatCheckmark("done"), "✔")
}
