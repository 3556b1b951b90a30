package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tierwalk/internal/ir"
	"tierwalk/internal/unit"
)

type progressModel struct {
	title   string
	events  <-chan unit.Event
	spinner spinner.Model
	prog    progress.Model
	items   []funcItem
	index   map[string]int
	note    string
	width   int
	done    bool
}

type funcItem struct {
	name   string
	status string
	state  ir.State
}

type eventMsg unit.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders the tier state of
// every function in a unit as internal/unit's Driver moves them through
// Profiling, Compiling, and Compiled.
func NewProgressModel(title string, functions []string, events <-chan unit.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]funcItem, 0, len(functions))
	index := make(map[string]int, len(functions))
	for i, name := range functions {
		items = append(items, funcItem{name: name, status: "profiling", state: ir.Profiling})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := unit.Event(msg)
		cmd := m.applyEvent(ev)
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
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

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.note != "" {
		header = fmt.Sprintf("%s (%s)", header, m.note)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.name, nameWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		line := fmt.Sprintf("  %s %s", statusStyled, name)
		b.WriteString(line)
		b.WriteString("\n")
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

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev unit.Event) tea.Cmd {
	if ev.Function == "" {
		if ev.Note != "" {
			m.note = ev.Note
		}
		return nil
	}
	idx, ok := m.index[ev.Function]
	if !ok {
		return nil
	}
	m.items[idx].status = stateLabel(ev.State)
	m.items[idx].state = ev.State
	if ev.Note != "" {
		m.items[idx].status = ev.Note
	}

	if len(m.items) > 0 {
		total := 0.0
		for _, item := range m.items {
			total += progressFromState(item.state)
		}
		pct := total / float64(len(m.items))
		return m.prog.SetPercent(pct)
	}
	return nil
}

func progressFromState(state ir.State) float64 {
	switch state {
	case ir.Profiling:
		return 0.2
	case ir.Compiling:
		return 0.6
	case ir.Compiled:
		return 1.0
	default:
		return 0.0
	}
}

func stateLabel(state ir.State) string {
	switch state {
	case ir.Profiling:
		return "profiling"
	case ir.Compiling:
		return "compiling"
	case ir.Compiled:
		return "compiled"
	default:
		return "pending"
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "compiled":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "compiling", "profiling":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
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
