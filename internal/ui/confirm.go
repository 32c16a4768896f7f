package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box and asks a yes/no question on in. Anything
// but "y" or "yes" declines, including EOF.
func Confirm(in io.Reader, out io.Writer, title string, warnings ...string) bool {
	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf(" %s  WARNING  ─  %s", WarningMarker, title)), ""}
	for _, w := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+w))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, boxStyle(GetTerminalWidth(), WarningColor).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprint(out, "Continue? [y/N]: ")

	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
