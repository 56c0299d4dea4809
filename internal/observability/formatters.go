// Package observability provides formatted output for the CLI's human-readable mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/dorsta123/Case-Prep/internal/progress"
	"github.com/dorsta123/Case-Prep/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxTurnsToShow is how many trailing turns the transcript box lists
	maxTurnsToShow = 6
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Width is counted
// in runes so the borders line up for non-ASCII text.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the box's inner width.
func pad(line string) string {
	width := boxWidth - 4
	runes := []rune(line)
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-len(runes))
}

// PrintProgress outputs the progress estimate and how it was reached.
func (p *Printer) PrintProgress(b progress.Breakdown) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Estimate:         %5.1f%%\n\n", b.Total)
	fmt.Fprintf(&sb, "Candidate turns:  %d\n", b.CandidateTurns)
	fmt.Fprintf(&sb, "Base:             %5.1f\n", b.Base)
	fmt.Fprintf(&sb, "Milestones:       %5.1f", b.Milestone)
	if len(b.MatchedKeywords) > 0 {
		fmt.Fprintf(&sb, "  (%s)", strings.Join(b.MatchedKeywords, ", "))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Quant bonus:      %5.1f\n", b.Quant)
	if b.Closing {
		fmt.Fprintf(&sb, "Closing:          yes (floor %.0f)", progress.ClosingFloor)
	} else {
		sb.WriteString("Closing:          no")
	}
	p.printBox("CASE PROGRESS", sb.String())
}

// PrintTranscript outputs the most recent turns of a transcript.
func (p *Printer) PrintTranscript(t types.Transcript) {
	if len(t) == 0 {
		p.printBox("TRANSCRIPT", "(no turns yet)")
		return
	}

	var sb strings.Builder
	start := 0
	if len(t) > maxTurnsToShow {
		start = len(t) - maxTurnsToShow
		fmt.Fprintf(&sb, "... %d earlier turns\n", start)
	}
	for i, turn := range t[start:] {
		speaker := "Candidate"
		if turn.Role == types.RoleInterviewer {
			speaker = "Interviewer"
		}
		content := strings.Join(strings.Fields(turn.Content), " ")
		fmt.Fprintf(&sb, "%-11s  %s", speaker, content)
		if i < len(t)-start-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(fmt.Sprintf("TRANSCRIPT (%d turns)", len(t)), sb.String())
}

// PrintEvaluation outputs rubric scores and the feedback text.
func (p *Printer) PrintEvaluation(e *types.Evaluation) {
	if e == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall:          %5.1f\n", e.OverallScore)
	fmt.Fprintf(&sb, "Completion:       %5.1f\n", e.CompletionRate)
	fmt.Fprintf(&sb, "Structure:        %5.1f\n", e.Structure)
	fmt.Fprintf(&sb, "Business logic:   %5.1f\n", e.BusinessLogic)
	fmt.Fprintf(&sb, "Communication:    %5.1f\n", e.Communication)
	fmt.Fprintf(&sb, "Quant accuracy:   %5.1f", e.QuantAccuracy)
	if fb := strings.TrimSpace(e.Feedback); fb != "" {
		sb.WriteString("\n\n")
		sb.WriteString(fb)
	}
	p.printBox("EVALUATION", sb.String())
}
