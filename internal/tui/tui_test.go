package tui

import (
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	saves    int
	archived []*game.Game
	cleared  int
}

func (m *memoryStore) Save(*game.Game) error { m.saves++; return nil }
func (m *memoryStore) ClearActive() error    { m.cleared++; return nil }
func (m *memoryStore) Archive(g *game.Game) error {
	m.archived = append(m.archived, g.Clone())
	return nil
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

var threePlayers = []string{"Ann", "Bob", "Cid"}

func newController(t *testing.T, rules game.Rules, rounds int) (*game.Controller, *memoryStore) {
	t.Helper()
	rules.CustomRounds = true
	g, err := game.NewGame(game.Setup{Players: threePlayers, Rules: rules, Rounds: rounds},
		time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	store := &memoryStore{}
	return game.NewController(g, store, game.WithLogger(quietLogger())), store
}

func run(t *testing.T, ctrl *game.Controller, line string) Outcome {
	t.Helper()
	out, err := Execute(ctrl, line)
	require.NoError(t, err, line)
	require.False(t, out.Rejected, out.Message)
	return out
}

// typeLine types text into the model and presses enter.
func typeLine(m *Model, text string) tea.Cmd {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestExecutePlaysRounds(t *testing.T) {
	ctrl, store := newController(t, game.Rules{PlusMinusOne: true}, 2)

	run(t, ctrl, "1 0 0")
	assert.Equal(t, game.StepEnterTricks, ctrl.Game().Step())
	run(t, ctrl, "0 1 0")
	assert.Equal(t, 2, ctrl.Game().Round())

	out, err := Execute(ctrl, "1 1 0")
	require.NoError(t, err)
	assert.True(t, out.Rejected)
	assert.Contains(t, out.Message, "cannot equal")

	run(t, ctrl, "1 1 1")
	run(t, ctrl, "1 1 0")
	assert.Equal(t, game.StepCelebration, ctrl.Game().Step())

	out = run(t, ctrl, "finish")
	require.NotNil(t, out.Finished)
	assert.True(t, out.Finished.IsArchived())
	assert.Len(t, store.archived, 1)
}

func TestExecuteCommands(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 5)
	run(t, ctrl, "1 0 0")
	run(t, ctrl, "1 0 0")

	run(t, ctrl, "color red")
	c, ok := ctrl.Game().Color(2)
	require.True(t, ok)
	assert.Equal(t, game.Red, c)
	run(t, ctrl, "color none")
	_, ok = ctrl.Game().Color(2)
	assert.False(t, ok)

	run(t, ctrl, "dealer 3")
	assert.Equal(t, 2, ctrl.Game().Dealer())

	run(t, ctrl, "rename 2 Bobby Tables")
	assert.Equal(t, "Bobby Tables", ctrl.Game().Players()[1])

	run(t, ctrl, "edit 1 2 tricks 1")
	run(t, ctrl, "edit 1 1 tricks 0")
	assert.Equal(t, []int{0, 1, 0}, ctrl.Game().Tricks()[0])

	run(t, ctrl, "view analytics")
	assert.Equal(t, game.ScoreViewAnalytics, ctrl.Game().ScoreView())

	run(t, ctrl, "rule pm1 on")
	run(t, ctrl, "rule alt on")
	assert.True(t, ctrl.Game().Rules().PlusMinusOne)
	assert.True(t, ctrl.Game().Rules().AlternateScoring)

	out := run(t, ctrl, "end")
	assert.False(t, out.Discarded)
	assert.Equal(t, game.StepCelebration, ctrl.Game().Step())
	run(t, ctrl, "continue")
	assert.Equal(t, game.StepPlaceBets, ctrl.Game().Step())

	assert.True(t, run(t, ctrl, "quit").Quit)
	assert.Equal(t, Help, run(t, ctrl, "help").Message)
}

func TestExecuteErrors(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 5)

	for _, line := range []string{
		"dance",
		"color purple",
		"dealer 9",
		"dealer x",
		"edit 1 1 bet 0",
		"edit 1 1 score 3",
		"view pie",
		"rule pm1 maybe",
		"1 x 0",
		"finish",
		"continue",
	} {
		_, err := Execute(ctrl, line)
		assert.Error(t, err, line)
	}

	out, err := Execute(ctrl, "   ")
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
}

func TestExecuteEndWithoutRoundsDiscards(t *testing.T) {
	ctrl, store := newController(t, game.Rules{}, 5)
	out := run(t, ctrl, "end")
	assert.True(t, out.Discarded)
	assert.True(t, out.Quit)
	assert.Equal(t, 1, store.cleared)
}

func TestExecuteReadOnly(t *testing.T) {
	ctrl := game.NewController(game.Demo(game.ScoreViewChart, time.Now()), nil)

	_, err := Execute(ctrl, "1 1 1 1")
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = Execute(ctrl, "dealer 1")
	assert.ErrorIs(t, err, ErrReadOnly)

	run(t, ctrl, "view top")
	assert.Equal(t, game.ScoreViewTopPlayers, ctrl.Game().ScoreView())
}

func TestModelSubmitsInput(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 3)
	m := New(ctrl, WithLogger(quietLogger()))

	typeLine(m, "1 0 0")
	assert.Equal(t, game.StepEnterTricks, ctrl.Game().Step())
	assert.Empty(t, m.input.Value(), "input is cleared after enter")

	typeLine(m, "0 0 0")
	assert.Contains(t, m.Status(), "Total tricks must equal 1")
	assert.Equal(t, game.StepEnterTricks, ctrl.Game().Step())

	typeLine(m, "dealer 7")
	assert.Equal(t, game.ErrPlayerOutOfRange.Error(), m.Status())
}

func TestModelHint(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{PlusMinusOne: true}, 3)
	run(t, ctrl, "1 0 0")
	run(t, ctrl, "1 0 0")

	m := New(ctrl)
	m.input.SetValue("1 1")
	assert.Equal(t, "Total 2 of 2  Cid may not bet 0", m.Hint())

	m.input.SetValue("0 1")
	assert.Equal(t, "Total 1 of 2  Cid may not bet 1", m.Hint())

	m.input.SetValue("1")
	assert.Equal(t, "Total 1 of 2", m.Hint())

	m.input.SetValue("one")
	assert.Empty(t, m.Hint())
}

func TestModelFinishRunsHook(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 1)
	var shared *game.Game
	m := New(ctrl, WithLogger(quietLogger()), WithFinishHook(func(g *game.Game) tea.Cmd {
		shared = g
		return func() tea.Msg { return SharedMsg{ID: "01HF0000000000000000000000"} }
	}))

	typeLine(m, "0 0 1")
	typeLine(m, "1 0 0")
	require.Equal(t, game.StepCelebration, ctrl.Game().Step())

	cmd := typeLine(m, "finish")
	require.NotNil(t, cmd)
	require.NotNil(t, shared)
	assert.False(t, m.Quitting(), "waits for the hook")

	m.Update(cmd())
	assert.True(t, m.Quitting())
	assert.Equal(t, "Shared as 01HF0000000000000000000000", m.Status())
}

func TestModelQuitKeys(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 3)
	m := New(ctrl)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.Quitting())
	assert.Empty(t, m.View())
}

func TestModelView(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 3)
	m := New(ctrl)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	for _, name := range threePlayers {
		assert.Contains(t, view, name)
	}
	assert.Contains(t, view, "Round 1 of 3")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneScores, m.focusedPane)
	assert.Contains(t, m.View(), "Scores focused")
}

func TestModelDemoIsReadOnly(t *testing.T) {
	ctrl := game.NewController(game.Demo(game.ScoreViewChart, time.Now()), nil)
	m := New(ctrl)
	assert.Contains(t, m.Status(), "Demo game")

	typeLine(m, "1 1 1 1")
	assert.Equal(t, ErrReadOnly.Error(), m.Status())

	typeLine(m, "view celebration")
	assert.Equal(t, game.ScoreViewCelebration, ctrl.Game().ScoreView())
}

func TestModelChangeHook(t *testing.T) {
	ctrl, _ := newController(t, game.Rules{}, 3)
	var published []int
	m := New(ctrl, WithChangeHook(func(g *game.Game) tea.Cmd {
		published = append(published, g.CompletedRounds())
		return func() tea.Msg { return PublishedMsg{} }
	}))

	typeLine(m, "1 0 0")
	typeLine(m, "5 5 5")
	typeLine(m, "1 0 0")
	assert.Equal(t, []int{0, 1}, published, "rejected input is not published")

	m.Update(PublishedMsg{Err: assert.AnError})
	assert.Contains(t, m.Status(), "Live update failed")
}
