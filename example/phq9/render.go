package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/tbxark/phqintake/agent"
	"github.com/tbxark/phqintake/types"
)

var (
	styleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("#83a598"))
	styleHeader    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	styleAnswered  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ec07c"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb4934"))
)

type renderer struct {
	out   io.Writer
	color bool
}

func newRenderer(out *os.File) *renderer {
	return &renderer{
		out:   out,
		color: isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()),
	}
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *renderer) assistant(msg string) {
	fmt.Fprintf(r.out, "\n%s %s\n\n", r.style(styleHeader, "Assistant:"), r.style(styleAssistant, msg))
}

func (r *renderer) fail(err error) {
	fmt.Fprintln(r.out, r.style(styleError, "Error: "+err.Error()))
}

func (r *renderer) prompt() {
	fmt.Fprint(r.out, r.style(styleHeader, "You: "))
}

// results prints every item with its selected option and reasoning, then
// progress or the final score.
func (r *renderer) results(st agent.State, result agent.Result, scored bool) {
	var b strings.Builder
	b.WriteString(r.style(styleHeader, "Questionnaire") + "\n")
	for i, it := range st.Questionnaire {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, it.Question)
		option, ok := it.SelectedOption()
		if !ok {
			b.WriteString("    " + r.style(styleDim, "not answered yet") + "\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", r.style(styleAnswered, fmt.Sprintf("%s (%d)", option, *it.AnswerScore)))
		if it.Reasoning != nil && *it.Reasoning != "" {
			fmt.Fprintf(&b, "    %s\n", r.style(styleDim, fmt.Sprintf("%q", *it.Reasoning)))
		}
	}
	fmt.Fprintf(&b, "\nProgress: %d/%d\n", st.Questionnaire.Answered(), len(st.Questionnaire))
	if scored {
		fmt.Fprintf(&b, "Total score: %s\n", r.style(severityStyle(result.Severity), fmt.Sprintf("%d (%s)", result.Total, result.Severity)))
	}
	fmt.Fprintln(r.out, b.String())
}

func severityStyle(s types.Severity) lipgloss.Style {
	switch s {
	case types.SeveritySevere, types.SeverityModeratelySevere:
		return styleError
	case types.SeverityModerate:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#fabd2f"))
	default:
		return styleAnswered
	}
}
