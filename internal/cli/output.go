package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// fileOutcome is one line of the run summary.
type fileOutcome struct {
	Path     string
	Output   string
	Source   string
	Sections int
	Chunks   int
	Warnings []string
	Err      error
}

func formatOutcome(o fileOutcome) string {
	if o.Err != nil {
		return errorStyle.Render("✗ ") + o.Path + dimStyle.Render(": "+o.Err.Error())
	}
	line := successStyle.Render("✓ ") + o.Path +
		dimStyle.Render(fmt.Sprintf(" → %s (%s, %d sections, %d chunks)", o.Output, o.Source, o.Sections, o.Chunks))
	for _, w := range o.Warnings {
		line += "\n  " + warnStyle.Render("! ") + dimStyle.Render(w)
	}
	return line
}

func formatSummary(outcomes []fileOutcome) string {
	var ok, failed, secs int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		ok++
		secs += o.Sections
	}
	lines := []string{
		titleStyle.Render("guideparse"),
		fmt.Sprintf("%s %d", dimStyle.Render("files:   "), len(outcomes)),
		fmt.Sprintf("%s %d", dimStyle.Render("ok:      "), ok),
		fmt.Sprintf("%s %d", dimStyle.Render("failed:  "), failed),
		fmt.Sprintf("%s %d", dimStyle.Render("sections:"), secs),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func printOutcomes(w io.Writer, outcomes []fileOutcome) {
	for _, o := range outcomes {
		fmt.Fprintln(w, formatOutcome(o))
	}
	fmt.Fprintln(w, formatSummary(outcomes))
}
