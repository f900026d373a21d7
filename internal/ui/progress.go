// Package ui renders the progress of a symbol table build in a terminal.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pasfront/internal/symbols"
)

// maxVisible bounds the unit list; older entries scroll away.
const maxVisible = 12

type progressModel struct {
	title      string
	events     <-chan symbols.Progress
	spinner    spinner.Model
	prog       progress.Model
	items      []unitItem
	index      map[string]int
	stageLabel string
	total      int
	width      int
	done       bool
}

type unitItem struct {
	path  string
	stage symbols.Stage
}

type eventMsg symbols.Progress
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders build progress.
// The model quits when events is closed.
func NewProgressModel(title string, events <-chan symbols.Progress) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(symbols.Progress(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	resolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	workingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	countsStyle   = lipgloss.NewStyle().Faint(true)
)

const stageColumn = 10

func (m *progressModel) View() string {
	header := m.title
	if m.stageLabel != "" {
		header += " (" + m.stageLabel + ")"
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(countsStyle.Render(m.counts()))
	b.WriteString("\n\n")

	pathWidth := max(m.width-stageColumn-4, 20)
	visible := m.items
	if hidden := len(visible) - maxVisible; hidden > 0 {
		fmt.Fprintf(&b, "  %*s %d more\n", stageColumn, "...", hidden)
		visible = visible[hidden:]
	}
	for _, item := range visible {
		label := styleStatus(item.stage).Render(fmt.Sprintf("%*s", stageColumn, item.stage))
		fmt.Fprintf(&b, "  %s %s\n", label, truncate(item.path, pathWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// counts summarises how many units reached each stage.
func (m *progressModel) counts() string {
	var n [symbols.StageResolved + 1]int
	for _, item := range m.items {
		if item.stage <= symbols.StageResolved {
			n[item.stage]++
		}
	}
	return fmt.Sprintf("%d units: %d parsed, %d declared, %d resolved",
		max(m.total, len(m.items)), n[symbols.StageParsed], n[symbols.StageDeclared], n[symbols.StageResolved])
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev symbols.Progress) tea.Cmd {
	m.total = max(m.total, ev.Total)
	m.stageLabel = fmt.Sprintf("%s %d/%d", ev.Stage, ev.Done, ev.Total)
	if ev.Path != "" {
		idx, ok := m.index[ev.Path]
		if !ok {
			idx = len(m.items)
			m.items = append(m.items, unitItem{path: displayPath(ev.Path)})
			m.index[ev.Path] = idx
		}
		if ev.Stage > m.items[idx].stage {
			m.items[idx].stage = ev.Stage
		}
	}
	return m.prog.SetPercent(m.percent())
}

// percent weighs every known unit by how far it got.
func (m *progressModel) percent() float64 {
	if m.total == 0 {
		return 0
	}
	sum := 0.0
	for _, item := range m.items {
		sum += progressFromStage(item.stage)
	}
	return min(sum/float64(m.total), 1)
}

func progressFromStage(stage symbols.Stage) float64 {
	switch stage {
	case symbols.StageParsed:
		return 0.4
	case symbols.StageDeclared:
		return 0.7
	case symbols.StageResolved:
		return 1.0
	default:
		return 0.0
	}
}

func styleStatus(stage symbols.Stage) lipgloss.Style {
	switch stage {
	case symbols.StageResolved:
		return resolvedStyle
	case symbols.StageParsed, symbols.StageDeclared:
		return workingStyle
	}
	return pendingStyle
}

func displayPath(path string) string {
	return filepath.ToSlash(path)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
