// Package tui provides a terminal monitor for a running joycon2midi bridge
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/joycon2midi/pkg/bridge"
	"github.com/james-see/joycon2midi/pkg/translator"
)

// Neon-on-dark color scheme
var (
	neonGreen  = lipgloss.Color("#39FF14")
	neonYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(neonGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	rowStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	activeStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(neonYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonGreen).
			Padding(1, 2)
)

// State represents the current monitor state
type State int

const (
	StateWaiting State = iota
	StateRunning
	StateStopped
)

// logLines is how many events the log pane shows
const logLines = 10

// BatchMsg carries one flushed batch from the bridge
type BatchMsg bridge.Batch

// StoppedMsg signals that the bridge loop returned
type StoppedMsg struct {
	Err error
}

// statsTickMsg refreshes the counters
type statsTickMsg time.Time

// eventKey identifies the channels an event can belong to
type eventKey struct {
	note   bool
	number uint8
}

// channelRow is one line of the channel table
type channelRow struct {
	spec  translator.ChannelSpec
	value string
	hot   bool
}

// Model represents the monitor model
type Model struct {
	state   State
	spinner spinner.Model
	stats   func() bridge.Stats
	batches <-chan bridge.Batch

	rows  []channelRow
	index map[eventKey][]int
	log   []string

	current bridge.Stats
	err     error
	width   int
}

// New creates a monitor for the given channels. stats is polled for the
// counters; batches, if not nil, feeds the live channel table.
func New(channels []translator.ChannelSpec, stats func() bridge.Stats, batches <-chan bridge.Batch) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonGreen)

	m := Model{
		state:   StateWaiting,
		spinner: s,
		stats:   stats,
		batches: batches,
		index:   make(map[eventKey][]int),
	}
	for i, spec := range channels {
		m.rows = append(m.rows, channelRow{spec: spec, value: "-"})
		key := eventKey{note: spec.Mode == translator.ModeEdge, number: spec.Destination}
		m.index[key] = append(m.index[key], i)
	}
	return m
}

// Init initializes the monitor model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, statsTick(), m.waitForBatch())
}

func statsTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func (m Model) waitForBatch() tea.Cmd {
	if m.batches == nil {
		return nil
	}
	ch := m.batches
	return func() tea.Msg {
		b, ok := <-ch
		if !ok {
			return nil
		}
		return BatchMsg(b)
	}
}

// Update handles monitor updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "c":
			m.log = nil
			for i := range m.rows {
				m.rows[i].hot = false
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statsTickMsg:
		if m.stats != nil {
			m.current = m.stats()
			if m.current.Started && m.state == StateWaiting {
				m.state = StateRunning
			}
		}
		if m.state == StateStopped {
			return m, nil
		}
		return m, statsTick()

	case BatchMsg:
		if m.state == StateWaiting {
			m.state = StateRunning
		}
		m.applyBatch(bridge.Batch(msg))
		return m, m.waitForBatch()

	case StoppedMsg:
		m.state = StateStopped
		m.err = msg.Err
		if m.stats != nil {
			m.current = m.stats()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) applyBatch(b bridge.Batch) {
	for i := range m.rows {
		m.rows[i].hot = false
	}
	for _, ev := range b.Events {
		key := eventKey{note: ev.Kind != translator.KindControlChange, number: ev.Number}
		for _, i := range m.index[key] {
			switch ev.Kind {
			case translator.KindNoteOn:
				m.rows[i].value = "on"
			case translator.KindNoteOff:
				m.rows[i].value = "off"
			default:
				m.rows[i].value = fmt.Sprintf("%d", ev.Value)
			}
			m.rows[i].hot = true
		}
		m.log = append(m.log, ev.String())
	}
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

// View renders the monitor
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" JOYCON2MIDI "))
	s.WriteString("\n")

	switch m.state {
	case StateWaiting:
		s.WriteString(boxStyle.Render(fmt.Sprintf("%s Waiting for controller...", m.spinner.View())))
	case StateRunning, StateStopped:
		s.WriteString(m.viewChannels())
		s.WriteString("\n")
		s.WriteString(m.viewStatus())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("c: clear log • q: quit"))

	return s.String()
}

func (m Model) viewChannels() string {
	var s strings.Builder

	for _, r := range m.rows {
		line := fmt.Sprintf("%-20s %-20s %3d  %s", r.spec.Name, r.spec.Mode, r.spec.Destination, r.value)
		if r.hot {
			s.WriteString(activeStyle.Render("▸ " + line))
		} else {
			s.WriteString(rowStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}

	if len(m.log) > 0 {
		s.WriteString("\n")
		for _, l := range m.log {
			s.WriteString(rowStyle.Render(l))
			s.WriteString("\n")
		}
	}

	return boxStyle.Render(strings.TrimRight(s.String(), "\n"))
}

func (m Model) viewStatus() string {
	st := m.current
	line := fmt.Sprintf("battery %d/4  snapshots %d  sent %d  dropped %d",
		st.Battery.Level, st.Snapshots, st.EventsSent, st.EventsDropped)
	if st.Battery.Charging {
		line += "  (charging)"
	}

	out := statusStyle.Render(line)
	if m.state == StateStopped {
		if m.err != nil {
			out += "\n" + errorStyle.Render(fmt.Sprintf("✗ Bridge stopped: %s", m.err.Error()))
		} else {
			out += "\n" + statusStyle.Render("Bridge stopped")
		}
	}
	return out
}

// Run starts the bridge and shows the monitor until the user quits or the
// bridge stops and the user dismisses it. It returns the bridge's error.
func Run(ctx context.Context, b *bridge.Bridge) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := make(chan bridge.Batch, 256)
	b.Observe(func(batch bridge.Batch) {
		select {
		case batches <- batch:
		default:
		}
	})

	p := tea.NewProgram(New(b.Channels(), b.Stats, batches), tea.WithAltScreen())

	done := make(chan error, 1)
	go func() {
		err := b.Run(ctx)
		p.Send(StoppedMsg{Err: err})
		done <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	return <-done
}
