// Package tui provides the Bubble Tea run view for troupe. It consumes the
// engine's event stream and shows the stage pipeline, role statuses, and a
// scrolling event log.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/troupe/internal/engine"
)

// Info describes the run the view is showing.
type Info struct {
	Workstream string
	Branch     string
}

// Model is the main Bubble Tea model for a run.
type Model struct {
	header   Header
	pipeline *Pipeline
	logPanel *ScrollablePanel
	spin     spinner.Model

	keys KeyMap

	// Event channel from the engine
	events <-chan engine.Event

	// State
	status      string
	completed   bool
	err         error
	quitting    bool
	initialized bool

	startTime time.Time

	width  int
	height int
}

// NewModel creates a run view consuming the given engine events.
func NewModel(info Info, stages [][]string, events <-chan engine.Event) Model {
	logPanel := NewScrollablePanel("Events")
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = roleRunningStyle
	return Model{
		header:    NewHeader(info.Workstream, info.Branch),
		pipeline:  NewPipeline(stages),
		logPanel:  &logPanel,
		spin:      sp,
		keys:      DefaultKeyMap(),
		events:    events,
		startTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenForEvents(), m.spin.Tick)
}

// listenForEvents returns a command that waits for the next engine event.
func (m Model) listenForEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return EventsClosedMsg{}
		}
		return EngineEventMsg{Event: event}
	}
}

// EngineEventMsg wraps an engine event for Bubble Tea.
type EngineEventMsg struct {
	Event engine.Event
}

// EventsClosedMsg signals that the event channel has closed.
type EventsClosedMsg struct{}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleScroll(msg)

	case EngineEventMsg:
		m.handleEngineEvent(msg.Event)
		cmds = append(cmds, m.listenForEvents())

	case EventsClosedMsg:
		// Event channel closed
		if !m.completed && m.err == nil {
			m.completed = true
			m.status = "Completed"
			m.header.SetStatus("Completed")
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		m.pipeline.SetSpinnerFrame(m.spin.View())
		if m.pipeline.Running() {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleScroll handles scroll key events.
func (m Model) handleScroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.logPanel.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logPanel.ScrollDown(1)
	}

	return m, nil
}

// handleEngineEvent processes one engine event.
func (m *Model) handleEngineEvent(event engine.Event) {
	switch event.Type {
	case engine.EventRunStarted:
		m.status = "Running"
		m.header.SetStatus("Running")
		m.header.SetRunID(event.RunID)
		m.logPanel.AppendLine(event.Message)

	case engine.EventStageStarted:
		marker := sectionDividerStyle.Render(fmt.Sprintf("─── %s ───", event.Message))
		m.logPanel.AppendLine("\n" + marker)

	case engine.EventRoleStarted:
		m.pipeline.SetState(event.Role, roleRunning)
		m.logPanel.AppendLine(systemMessageStyle.Render(event.Message))

	case engine.EventPromptAssembled:
		m.logPanel.AppendLine(systemMessageStyle.Render(event.Message))

	case engine.EventSessionCreated:
		line := event.Message
		if event.SessionURL != "" {
			line += " " + sessionLinkStyle.Render(event.SessionURL)
		}
		m.logPanel.AppendLine(line)

	case engine.EventRoleCompleted:
		m.pipeline.SetState(event.Role, roleDone)
		m.logPanel.AppendLine(event.Message)

	case engine.EventRoleFailed:
		m.pipeline.SetState(event.Role, roleFailed)
		m.logPanel.AppendLine(errorStyle.Render(fmt.Sprintf("✗ %s: %s", event.Role, event.Message)))

	case engine.EventPROpened:
		m.logPanel.AppendLine(doneMarkerStyle.Render(event.Message))

	case engine.EventRunCompleted:
		m.completed = true
		m.status = "Completed"
		m.header.SetStatus("Completed")
		doneMsg := doneMarkerStyle.Render(fmt.Sprintf("✓ %s (%s)", event.Message, formatDuration(time.Since(m.startTime))))
		m.logPanel.AppendLine("\n" + doneMsg)

	case engine.EventRunFailed:
		m.err = event.Err
		m.status = "Failed"
		m.header.SetStatus("Failed")
		m.logPanel.AppendLine("\n" + errorStyle.Render("✗ "+event.Message))

	case engine.EventError:
		m.logPanel.AppendLine(errorStyle.Render("✗ " + event.Message))
	}
}

// updateLayout updates component sizes based on window size.
func (m *Model) updateLayout() {
	m.header.SetWidth(m.width)
	m.pipeline.SetWidth(m.width)

	// Header and pipeline claim their own lines; the log gets the rest.
	reservedHeight := 3 + len(m.pipeline.stages) + 2
	availableHeight := m.height - reservedHeight
	if availableHeight < 10 {
		availableHeight = 10
	}
	m.logPanel.SetSize(m.width, availableHeight)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.initialized {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(m.header.View())
	s.WriteString("\n")
	s.WriteString(m.pipeline.View())
	s.WriteString("\n")
	s.WriteString(m.logPanel.View())

	return lipgloss.NewStyle().MaxWidth(m.width).Render(s.String())
}

// IsCompleted returns whether the run has completed.
func (m Model) IsCompleted() bool {
	return m.completed
}

// Error returns any run-fatal error the view has seen.
func (m Model) Error() error {
	return m.err
}

// Run starts the TUI and blocks until the user quits or the run ends.
func Run(info Info, stages [][]string, events <-chan engine.Event) error {
	m := NewModel(info, stages, events)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
