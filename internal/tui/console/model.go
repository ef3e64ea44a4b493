// Package console is an interactive terminal host for the engine. The
// bubbletea update loop is the logic thread: lines are dispatched and the
// engine is ticked from Update.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/format"
)

const (
	maxLines   = 2000
	maxHistory = 100
)

// Config configures the console
type Config struct {
	Engine       *engine.Engine
	Formatter    *format.Formatter
	CallerID     string
	CallerName   string
	TickInterval time.Duration
	Title        string
}

// tickMsg drives Engine.Tick
type tickMsg time.Time

// transcript collects delivered text between updates
type transcript struct {
	lines   []string
	pending bool
	prompt  string
	waiting bool
}

func (t *transcript) add(text string) {
	t.lines = append(t.lines, strings.Split(text, "\n")...)
	if over := len(t.lines) - maxLines; over > 0 {
		t.lines = t.lines[over:]
	}
	t.pending = true
}

// Caller is the console user; it implements command.Caller
type Caller struct {
	id, name string
	out      *transcript
}

func (c *Caller) ID() string   { return c.id }
func (c *Caller) Name() string { return c.name }

// Deliver appends the formatted response to the transcript
func (c *Caller) Deliver(resp *command.Response, text string) {
	if text != "" {
		c.out.add(text)
	}
	c.out.waiting = resp.InputRequested || resp.Continued
	c.out.prompt = resp.Prompt
}

// Model is the bubbletea model of the console
type Model struct {
	width  int
	height int
	ready  bool

	engine    *engine.Engine
	formatter *format.Formatter
	caller    *Caller
	out       *transcript
	interval  time.Duration
	last      time.Time
	title     string

	viewport viewport.Model
	input    textinput.Model

	history []string
	cursor  int
}

// New creates the console model
func New(cfg Config) *Model {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 50 * time.Millisecond
	}
	if cfg.Formatter == nil {
		cfg.Formatter = format.NewStdout()
	}
	if cfg.CallerID == "" {
		cfg.CallerID = "console"
	}
	if cfg.CallerName == "" {
		cfg.CallerName = cfg.CallerID
	}
	if cfg.Title == "" {
		cfg.Title = "cmdkit console"
	}

	ti := textinput.New()
	ti.Placeholder = "type a command, help lists them"
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	out := &transcript{}
	return &Model{
		engine:    cfg.Engine,
		formatter: cfg.Formatter,
		caller:    &Caller{id: cfg.CallerID, name: cfg.CallerName, out: out},
		out:       out,
		interval:  cfg.TickInterval,
		title:     cfg.Title,
		input:     ti,
	}
}

// Caller returns the console caller
func (m *Model) Caller() *Caller { return m.caller }

// Announce shows a broadcast; it implements commands.Announcer
func (m *Model) Announce(from, message string) {
	m.out.add(m.formatter.Announcement(from, message))
}

// Init starts the tick loop
func (m *Model) Init() tea.Cmd {
	m.last = time.Now()
	return tea.Batch(textinput.Blink, m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if quit := m.submit(); quit {
				return m, tea.Quit
			}
			m.refresh()
			return m, nil
		case tea.KeyUp:
			m.recall(-1)
			return m, nil
		case tea.KeyDown:
			m.recall(1)
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 1
		footerHeight := 5 // input box + status bar
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(1, msg.Height-headerHeight-footerHeight))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(1, msg.Height-headerHeight-footerHeight)
		}
		m.input.Width = max(10, msg.Width-8)
		m.out.pending = true
		m.refresh()

	case tickMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.engine.Tick(now.Sub(m.last))
		}
		m.last = now
		m.refresh()
		cmds = append(cmds, m.tick())
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit dispatches the input line; it reports whether to quit
func (m *Model) submit() bool {
	line := m.input.Value()
	m.input.Reset()

	waiting := m.out.waiting
	if !waiting {
		switch strings.TrimSpace(line) {
		case "":
			return false
		case "exit", "quit":
			return true
		}
	}
	m.out.add(m.formatter.Echo(line))
	if strings.TrimSpace(line) != "" && !waiting {
		m.remember(line)
	}
	m.out.waiting = false
	m.out.prompt = ""
	m.engine.Dispatch(m.caller, command.ChannelConsole, line)
	return false
}

func (m *Model) remember(line string) {
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
		if len(m.history) > maxHistory {
			m.history = m.history[1:]
		}
	}
	m.cursor = len(m.history)
}

func (m *Model) recall(step int) {
	if len(m.history) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+step, 0), len(m.history))
	if m.cursor == len(m.history) {
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.cursor])
	m.input.CursorEnd()
}

func (m *Model) refresh() {
	if !m.ready || !m.out.pending {
		return
	}
	m.viewport.SetContent(strings.Join(m.out.lines, "\n"))
	m.viewport.GotoBottom()
	m.out.pending = false
}

// Transcript returns every line shown so far
func (m *Model) Transcript() []string {
	return append([]string(nil), m.out.lines...)
}

// View renders the console
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	box := InputStyle
	if m.out.waiting {
		box = AwaitingInputStyle
	}
	status := fmt.Sprintf("%s | %d running | ↑↓ history | esc quit", m.caller.name, m.engine.Runners().Live())
	if m.out.waiting && m.out.prompt != "" {
		status = m.out.prompt
	}
	return strings.Join([]string{
		TitleStyle.Render(m.title),
		m.viewport.View(),
		box.Width(max(10, m.width-2)).Render(m.input.View()),
		StatusBarStyle.Width(m.width).Render(status),
	}, "\n")
}
