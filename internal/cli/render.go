package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/feitianbubu/aistudio"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// progressLine redraws a single progress bar line in place
type progressLine struct {
	out   io.Writer
	label string
	bar   progress.Model

	mu   sync.Mutex
	last int
}

func newProgressLine(out io.Writer, label string) *progressLine {
	return &progressLine{
		out:   out,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		last:  -1,
	}
}

// Update is an aistudio.SessionConfig.OnProgress callback
func (p *progressLine) Update(_ aistudio.MediaKind, value int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == p.last {
		return
	}
	p.last = value
	fmt.Fprintf(p.out, "\r%s %s %3d%%", mutedStyle.Render(p.label), p.bar.ViewAs(float64(value)/100), value)
}

// Done ends the progress line
func (p *progressLine) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last >= 0 {
		fmt.Fprintln(p.out)
	}
}

func printTitle(out io.Writer, s string) {
	fmt.Fprintln(out, titleStyle.Render(s))
}

func printOK(out io.Writer, s string) {
	fmt.Fprintln(out, okStyle.Render("✓ "+s))
}

func printField(out io.Writer, name, value string) {
	fmt.Fprintf(out, "%s %s\n", mutedStyle.Render(name+":"), value)
}

func printFailure(out io.Writer, s string) {
	fmt.Fprintln(out, errorStyle.Render("✗ "+s))
}
