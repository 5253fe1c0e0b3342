// Package console renders agent progress lines and reads answers from the operator.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Category tags a progress line.
type Category int

const (
	// AICall marks an LLM round trip.
	AICall Category = iota
	// UnitTest marks a validation check.
	UnitTest
	// Issue marks a rejected reply or other failure.
	Issue
)

func (c Category) String() string {
	switch c {
	case AICall:
		return "ai_call"
	case UnitTest:
		return "unit_test"
	case Issue:
		return "issue"
	default:
		return "unknown"
	}
}

// Narrator receives agent progress lines. Implementations must not block or fail the agent.
type Narrator interface {
	Print(category Category, position, statement string)
}

// Discard is a Narrator that drops every line.
var Discard Narrator = discard{}

type discard struct{}

func (discard) Print(Category, string, string) {}

// Printer writes coloured "Agent: <position>: <statement>" lines.
type Printer struct {
	mu         sync.Mutex
	out        io.Writer
	position   lipgloss.Style
	statements map[Category]lipgloss.Style
	question   lipgloss.Style
}

// NewPrinter creates a Printer for w. Colours are dropped automatically when w is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:      w,
		position: r.NewStyle().Foreground(lipgloss.Color("2")), // Green
		statements: map[Category]lipgloss.Style{
			AICall:   r.NewStyle().Foreground(lipgloss.Color("6")), // Cyan
			UnitTest: r.NewStyle().Foreground(lipgloss.Color("5")), // Magenta
			Issue:    r.NewStyle().Foreground(lipgloss.Color("1")), // Red
		},
		question: r.NewStyle().Foreground(lipgloss.Color("4")), // Blue
	}
}

// Print writes one progress line. Write errors are ignored.
func (p *Printer) Print(category Category, position, statement string) {
	style, ok := p.statements[category]
	if !ok {
		style = p.statements[AICall]
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "%s%s\n",
		p.position.Render(fmt.Sprintf("Agent: %s: ", position)),
		style.Render(statement))
}

// Ask prints question and returns the trimmed line read from in.
func (p *Printer) Ask(in io.Reader, question string) (string, error) {
	p.mu.Lock()
	_, _ = fmt.Fprintf(p.out, "\n%s\n", p.question.Render(question))
	p.mu.Unlock()

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
