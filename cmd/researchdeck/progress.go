package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/smallnest/researchdeck/research"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8FAFC"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	roleStyles = map[research.Role]lipgloss.Style{
		research.RoleInvestigator: lipgloss.NewStyle().Foreground(lipgloss.Color("#38BDF8")),
		research.RoleCritic:       lipgloss.NewStyle().Foreground(lipgloss.Color("#F472B6")),
		research.RolePresenter:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308")),
	}
	statusStyles = map[research.Status]lipgloss.Style{
		research.StatusCompleted: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E")),
		research.StatusError:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
	}
	defaultStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
)

// progressPrinter is a research.Observer that prints status changes and new
// log entries as they happen.
type progressPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	status map[string]research.Status
	logs   map[string]int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{
		out:    out,
		status: make(map[string]research.Status),
		logs:   make(map[string]int),
	}
}

func (p *progressPrinter) OnSnapshot(objectives []research.Objective) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, o := range objectives {
		if prev, ok := p.status[o.ID]; !ok || prev != o.Status {
			p.status[o.ID] = o.Status
			fmt.Fprintf(p.out, "%s %s %s\n",
				dimStyle.Render(fmt.Sprintf("[%d/%d]", i+1, len(objectives))),
				titleStyle.Render(o.Title),
				styleStatus(o.Status).Render(string(o.Status)))
		}
		seen := p.logs[o.ID]
		if seen > len(o.Logs) {
			seen = 0
		}
		for _, entry := range o.Logs[seen:] {
			style, ok := roleStyles[entry.Role]
			if !ok {
				style = dimStyle
			}
			fmt.Fprintf(p.out, "      %s %s\n", style.Render(string(entry.Role)+":"), entry.Message)
		}
		p.logs[o.ID] = len(o.Logs)
	}
}

func styleStatus(s research.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return defaultStatusStyle
}

// printSummary writes a one-line outcome per objective.
func printSummary(out io.Writer, p *research.Project) {
	fmt.Fprintf(out, "\n%s %s\n", titleStyle.Render("Project"), p.ID)
	for i, o := range p.Objectives {
		audit := "-"
		if o.QualityAudit != nil {
			audit = fmt.Sprintf("%d/100 (%s risk)", o.QualityAudit.AuthenticityScore, o.QualityAudit.HallucinationRisk)
		}
		fmt.Fprintf(out, "  %d. %s  %s  sources=%d audit=%s\n",
			i+1, o.Title, styleStatus(o.Status).Render(string(o.Status)), len(o.Sources), audit)
	}
	if p.Report != nil {
		fmt.Fprintf(out, "\n%s\n%s\n", titleStyle.Render("Summary"), p.Report.Summary)
	}
}
