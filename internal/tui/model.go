package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/internal/game"
)

const (
	paneScores = iota
	paneInput
)

// SharedMsg reports the result of the finish hook.
type SharedMsg struct {
	ID  string
	Err error
}

// PublishedMsg reports the result of the change hook.
type PublishedMsg struct {
	Err error
}

// FinishHook runs after a game has been archived, typically to share it.
type FinishHook func(archived *game.Game) tea.Cmd

// ChangeHook runs after every accepted change with a snapshot of the game.
type ChangeHook func(g *game.Game) tea.Cmd

// Option configures a Model.
type Option func(*Model)

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) { m.logger = logger.WithPrefix("tui") }
}

// WithFinishHook sets the command run once the game is archived. The model
// quits when the hook answers with a SharedMsg.
func WithFinishHook(hook FinishHook) Option {
	return func(m *Model) { m.onFinish = hook }
}

// WithChangeHook sets the command run after every accepted change.
func WithChangeHook(hook ChangeHook) Option {
	return func(m *Model) { m.onChange = hook }
}

// Model is the interactive scorekeeper: score view on the left, standings on
// the right and a command line at the bottom.
type Model struct {
	ctrl     *game.Controller
	logger   *log.Logger
	onFinish FinishHook
	onChange ChangeHook

	scores viewport.Model
	input  textinput.Model

	status      string
	statusStyle lipgloss.Style
	focusedPane int

	width       int
	height      int
	initialized bool
	quitting    bool
	finished    bool
}

// New creates a model driving ctrl.
func New(ctrl *game.Controller, opts ...Option) *Model {
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		ctrl:        ctrl,
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		scores:      vp,
		input:       ti,
		statusStyle: InfoStyle,
		focusedPane: paneInput,
	}
	for _, opt := range opts {
		opt(m)
	}
	if ctrl.ReadOnly() {
		m.setStatus("Demo game: try view chart, view top, view celebration, view analytics", InfoStyle)
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case PublishedMsg:
		if msg.Err != nil {
			m.setStatus("Live update failed: "+msg.Err.Error(), WarningStyle)
		}

	case SharedMsg:
		if msg.Err != nil {
			m.setStatus("Sharing failed: "+msg.Err.Error(), ErrorStyle)
		} else if msg.ID != "" {
			m.setStatus("Shared as "+msg.ID, SuccessStyle)
		}
		if m.finished {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == paneScores {
				m.focusedPane = paneInput
				m.input.Focus()
			} else {
				m.focusedPane = paneScores
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == paneInput {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if cmd := m.submit(line); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == paneScores {
				m.scores.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == paneScores {
				m.scores.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == paneScores {
				m.scores.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == paneScores {
				m.scores.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == paneScores {
				m.scores.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == paneScores {
				m.scores.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == paneInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.scores, cmd = m.scores.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit runs one command line and returns a command when the program should
// stop or the finish hook must run.
func (m *Model) submit(line string) tea.Cmd {
	if line == "" {
		return nil
	}
	out, err := Execute(m.ctrl, line)
	if err != nil {
		m.logger.Debug("Command failed", "line", line, "error", err)
		m.setStatus(err.Error(), ErrorStyle)
		return nil
	}
	switch {
	case out.Rejected:
		m.setStatus(out.Message, WarningStyle)
	case out.Message != "":
		m.setStatus(out.Message, SuccessStyle)
	default:
		m.setStatus("", InfoStyle)
	}
	m.refresh()

	var cmds []tea.Cmd
	if m.onChange != nil && !out.Rejected && !m.ctrl.ReadOnly() {
		cmds = append(cmds, m.onChange(m.ctrl.Game()))
	}
	switch {
	case out.Finished != nil:
		m.finished = true
		if m.onFinish != nil {
			return tea.Batch(append(cmds, m.onFinish(out.Finished))...)
		}
		m.quitting = true
		return tea.Batch(append(cmds, tea.Quit)...)
	case out.Quit:
		m.quitting = true
		return tea.Batch(append(cmds, tea.Quit)...)
	}
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func (m *Model) refresh() {
	m.scores.SetContent(ScoreView(m.ctrl.Game()))
}

// Status is the last feedback line shown under the input.
func (m *Model) Status() string { return m.status }

// Quitting reports whether the model asked the program to exit.
func (m *Model) Quitting() bool { return m.quitting }

// Hint gives live feedback on the values typed so far: their total and, when
// only the last player is missing, the bet the ±1 rule forbids them.
func (m *Model) Hint() string {
	g := m.ctrl.Game()
	fields := strings.Fields(m.input.Value())
	if len(fields) == 0 {
		return ""
	}
	values, err := ParseValues(fields)
	if err != nil {
		return ""
	}

	total := 0
	for _, v := range values {
		total += v
	}
	hint := fmt.Sprintf("Total %d of %d", total, g.Round())

	n := g.PlayerCount()
	if g.Step() == game.StepPlaceBets && len(values) == n-1 {
		padded := append(values, 0)
		if forbidden := game.ImpossibleValues(padded, n-1, g); len(forbidden) > 0 {
			hint += fmt.Sprintf("  %s may not bet %d", g.Players()[n-1], forbidden[0])
		}
	}
	return hint
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == paneInput {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	actionPane := actionStyle.Render(actionContent)

	g := m.ctrl.Game()
	sidebarContent := Scoreboard(g)
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.refresh()
	m.scores.Width = max(m.width-sidebarWidth-4, 1)
	m.scores.Height = paneHeight
	if !m.initialized && m.scores.Width > 1 && m.scores.Height > 1 {
		m.scores.GotoTop()
		m.initialized = true
	}

	scoreStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.scores.Width).
		Height(paneHeight)
	if m.focusedPane == paneScores {
		scoreStyle = scoreStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	scorePane := scoreStyle.Render(m.scores.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, scorePane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) renderActionPane() string {
	g := m.ctrl.Game()
	var b strings.Builder
	b.WriteString(Header(g))
	b.WriteString("\n")

	switch g.Step() {
	case game.StepPlaceBets:
		m.input.Placeholder = fmt.Sprintf("Bets for %s", strings.Join(g.Players(), ", "))
	case game.StepEnterTricks:
		m.input.Placeholder = fmt.Sprintf("Tricks for %s", strings.Join(g.Players(), ", "))
	case game.StepCelebration:
		m.input.Placeholder = "finish, continue or view celebration"
	default:
		m.input.Placeholder = "quit"
	}
	if m.ctrl.ReadOnly() {
		m.input.Placeholder = "view chart|top|celebration|analytics, quit"
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if hint := m.Hint(); hint != "" {
		b.WriteString(PromptStyle.Render(hint))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	if m.focusedPane == paneScores {
		b.WriteString(InfoStyle.Render("Scores focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		b.WriteString(InfoStyle.Render("Tab to scroll scores • Enter to submit • help for commands • Ctrl+C to quit"))
	}
	return b.String()
}
