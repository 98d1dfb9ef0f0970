// ABOUTME: Bubble Tea terminal chat with the top-level document agent
// ABOUTME: Questions run as commands so the UI stays responsive while the agents work
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Chatter keeps one conversation with the documents
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
	Reset()
}

type turn struct {
	user   string
	answer string
	err    error
	took   time.Duration
}

type answerMsg struct {
	answer string
	err    error
	took   time.Duration
}

// Model is the Bubble Tea model for the chat
type Model struct {
	chatter  Chatter
	title    string
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []turn
	waiting  bool
	status   string
	ready    bool
}

// New creates a chat model. summary is shown under the header.
func New(chatter Chatter, summary string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents (/reset to start over, ctrl+c to quit)"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return Model{
		chatter:  chatter,
		title:    summary,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		status:   "Ready.",
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frame := historyBoxStyle.GetFrameSize()
		_, inputFrame := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + inputFrame + 1 // header + summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-frame)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		if len(m.turns) == 0 {
			return m, nil
		}
		last := &m.turns[len(m.turns)-1]
		last.answer, last.err, last.took = msg.answer, msg.err, msg.took
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Answered in %s.", msg.took.Round(100*time.Millisecond))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		switch msg.String() {
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" || m.waiting {
		return m, nil
	}
	m.input.SetValue("")

	if q == "/reset" {
		m.chatter.Reset()
		m.turns = nil
		m.status = "Conversation cleared."
		m.refresh()
		return m, nil
	}

	m.turns = append(m.turns, turn{user: q})
	m.waiting = true
	m.status = "Thinking..."
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(q))
}

func (m Model) ask(q string) tea.Cmd {
	chatter, timeout := m.chatter, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		answer, err := chatter.Chat(ctx, q)
		return answerMsg{answer: answer, err: err, took: time.Since(start)}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// View renders the chat layout
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Orpheo")
	summary := dimStyle.Render(m.title)
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + historyBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.turns) == 0 {
		return dimStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(t.user)
		b.WriteString("\n")
		switch {
		case t.err != nil:
			b.WriteString(errorStyle.Render("Error: " + t.err.Error()))
		case t.answer == "" && i == len(m.turns)-1 && m.waiting:
			b.WriteString(dimStyle.Render("..."))
		default:
			b.WriteString(agentStyle.Render("Orpheo: "))
			b.WriteString(t.answer)
		}
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	agentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Run starts the chat program on the terminal
func Run(chatter Chatter, summary string, timeout time.Duration) error {
	_, err := tea.NewProgram(New(chatter, summary, timeout), tea.WithAltScreen()).Run()
	return err
}
