// Package viz renders sweep progress live in the terminal.
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/xylab/internal/sweep"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	flaggedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// PointMsg delivers one completed experiment point.
type PointMsg sweep.Result

// DoneMsg signals the sweep finished.
type DoneMsg struct{ Err error }

// Model tracks sweep progress for the live view.
type Model struct {
	total   int
	results []sweep.Result
	start   time.Time
	done    bool
	err     error
}

func NewModel(totalPoints int) Model {
	return Model{
		total:   totalPoints,
		results: make([]sweep.Result, 0, totalPoints),
		start:   time.Now(),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case PointMsg:
		m.results = append(m.results, sweep.Result(msg))
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("xy model sweep"))
	b.WriteString("\n")

	flagged := 0
	for _, r := range m.results {
		if r.LowConfidence {
			flagged++
		}
	}

	var stats strings.Builder
	stats.WriteString(labelStyle.Render("points") + valueStyle.Render(fmt.Sprintf("%d / %d", len(m.results), m.total)) + "\n")
	stats.WriteString(labelStyle.Render("elapsed") + valueStyle.Render(time.Since(m.start).Round(time.Second).String()) + "\n")
	if flagged > 0 {
		stats.WriteString(labelStyle.Render("low confidence") + flaggedStyle.Render(fmt.Sprintf("%d", flagged)) + "\n")
	}
	if len(m.results) > 0 {
		last := m.results[len(m.results)-1]
		stats.WriteString(labelStyle.Render("last point") +
			valueStyle.Render(fmt.Sprintf("%dx%d T=%.2f E=%.3f", last.Size, last.Size, last.Temp, last.MeanEnergy)) + "\n")
	}
	b.WriteString(statsStyle.Render(stats.String()))
	b.WriteString("\n")

	if g := m.graph(); g != "" {
		b.WriteString(graphStyle.Render(g))
		b.WriteString("\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString(flaggedStyle.Render("error: " + m.err.Error()))
		}
	} else {
		b.WriteString(helpStyle.Render("q: quit"))
	}
	b.WriteString("\n")

	return b.String()
}

// graph plots energy per spin against temperature for the size with
// the most completed points.
func (m Model) graph() string {
	bySize := make(map[int][]sweep.Result)
	for _, r := range m.results {
		bySize[r.Size] = append(bySize[r.Size], r)
	}

	best := 0
	for size, rs := range bySize {
		if len(rs) > len(bySize[best]) {
			best = size
		}
	}
	rs := bySize[best]
	if len(rs) < 2 {
		return ""
	}

	sort.Slice(rs, func(i, j int) bool { return rs[i].Temp < rs[j].Temp })
	data := make([]float64, len(rs))
	for i, r := range rs {
		data[i] = r.MeanEnergy
	}

	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("energy per spin vs T (%dx%d)", best, best)),
	)
}
