package game

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	saved    []*Game
	archived []*Game
	cleared  int
	saveErr  error
}

func (m *memoryStore) Save(g *Game) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, g.Clone())
	return nil
}

func (m *memoryStore) ClearActive() error {
	m.cleared++
	return nil
}

func (m *memoryStore) Archive(g *Game) error {
	m.archived = append(m.archived, g.Clone())
	return nil
}

func (m *memoryStore) last() *Game {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestController(t *testing.T, players []string, rounds int, opts ...ControllerOption) (*Controller, *memoryStore) {
	t.Helper()
	g, err := NewGame(Setup{
		Players: players,
		Dealer:  0,
		Rules:   Rules{CustomRounds: true},
		Rounds:  rounds,
	}, quartz.NewMock(t).Now(), nil)
	require.NoError(t, err)

	store := &memoryStore{}
	opts = append([]ControllerOption{WithLogger(testLogger())}, opts...)
	return NewController(g, store, opts...), store
}

func playRound(t *testing.T, c *Controller, bets, tricks []int) {
	t.Helper()
	v, err := c.ConfirmBets(bets)
	require.NoError(t, err)
	require.True(t, v.Valid, v.Message)
	v, err = c.ConfirmTricks(tricks)
	require.NoError(t, err)
	require.True(t, v.Valid, v.Message)
}

var fourPlayers = []string{"Ann", "Bob", "Cid", "Dee"}

// fiveRounds is a valid five round game for four players.
var fiveRounds = []struct{ bets, tricks []int }{
	{[]int{0, 0, 1, 0}, []int{0, 0, 1, 0}},
	{[]int{1, 0, 1, 0}, []int{1, 0, 1, 0}},
	{[]int{1, 1, 1, 1}, []int{1, 1, 1, 0}},
	{[]int{2, 0, 1, 0}, []int{2, 0, 1, 1}},
	{[]int{1, 1, 1, 1}, []int{2, 1, 1, 1}},
}

func playFiveRounds(t *testing.T, c *Controller) {
	t.Helper()
	for _, r := range fiveRounds {
		playRound(t, c, r.bets, r.tricks)
	}
}

func TestConfirmBets(t *testing.T) {
	t.Run("moves to trick entry and saves", func(t *testing.T) {
		c, store := newTestController(t, fourPlayers, 10)

		v, err := c.ConfirmBets([]int{1, 0, 0, 0})
		require.NoError(t, err)
		assert.True(t, v.Valid)

		g := c.Game()
		assert.Equal(t, StepEnterTricks, g.Step())
		assert.Equal(t, [][]int{{1, 0, 0, 0}}, g.Bets())
		require.NotNil(t, store.last())
		assert.Equal(t, StepEnterTricks, store.last().Step())
	})

	t.Run("rejected bets leave state untouched", func(t *testing.T) {
		c, store := newTestController(t, fourPlayers, 10)
		playRound(t, c, []int{0, 0, 0, 0}, []int{1, 0, 0, 0})
		require.NoError(t, c.SetPlusMinusOne(true))
		saves := len(store.saved)

		v, err := c.ConfirmBets([]int{1, 1, 0, 0})
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonRuleViolation, v.Reason)
		assert.Equal(t, StepPlaceBets, c.Game().Step())
		assert.Len(t, c.Game().Bets(), 1)
		assert.Len(t, store.saved, saves)
	})

	t.Run("wrong step is an error", func(t *testing.T) {
		c, _ := newTestController(t, fourPlayers, 10)
		_, err := c.ConfirmTricks([]int{1, 0, 0, 0})
		assert.ErrorIs(t, err, ErrWrongStep)
	})
}

func TestConfirmTricksScoresRound(t *testing.T) {
	c, store := newTestController(t, fourPlayers, 10)
	playRound(t, c, []int{1, 0, 0, 0}, []int{1, 0, 0, 0})

	g := c.Game()
	assert.Equal(t, []int{30, 20, 20, 20}, g.CurrentScores())
	assert.Equal(t, []int{20, 10, 10, 10}, g.CurrentAltScores())
	assert.Equal(t, 2, g.Round())
	assert.Equal(t, 1, g.Dealer())
	assert.Equal(t, StepPlaceBets, g.Step())
	assert.Equal(t, DisplayScoreOverview, g.Display())
	assert.Equal(t, 2, store.last().Round())
}

func TestConfirmTricksRejectsWrongTotal(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 10)
	_, err := c.ConfirmBets([]int{1, 0, 0, 0})
	require.NoError(t, err)

	v, err := c.ConfirmTricks([]int{1, 1, 0, 0})
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, ReasonTotalMismatch, v.Reason)
	assert.Equal(t, "Total tricks must equal 1", v.Message)
	assert.Empty(t, c.Game().Tricks())
	assert.Equal(t, StepEnterTricks, c.Game().Step())
}

func TestRoundOneHasNoBaseline(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 10)
	playRound(t, c, []int{0, 1, 0, 0}, []int{0, 0, 1, 0})

	g := c.Game()
	assert.Equal(t, g.ScoreChange()[0], g.Score()[0])
	assert.Equal(t, g.AltScoreChange()[0], g.AltScore()[0])
}

func TestScoreConsistency(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 5)
	playFiveRounds(t, c)

	g := c.Game()
	for _, tables := range [][2][][]int{
		{g.Score(), g.ScoreChange()},
		{g.AltScore(), g.AltScoreChange()},
	} {
		totals, changes := tables[0], tables[1]
		require.Len(t, totals, 5)
		assert.Equal(t, changes[0], totals[0])
		for r := 1; r < len(totals); r++ {
			for p := range totals[r] {
				assert.Equal(t, totals[r-1][p]+changes[r][p], totals[r][p], "round %d player %d", r+1, p)
			}
		}
	}
}

func TestDealerReturnsAfterFullCycle(t *testing.T) {
	g, err := NewGame(Setup{Players: fourPlayers, Dealer: 2}, quartz.NewMock(t).Now(), nil)
	require.NoError(t, err)
	c := NewController(g, &memoryStore{}, WithLogger(testLogger()))

	for round := 1; round <= 4; round++ {
		tricks := []int{round, 0, 0, 0}
		playRound(t, c, []int{0, 0, 0, 0}, tricks)
	}
	assert.Equal(t, 2, c.Game().Dealer())
	assert.Equal(t, 5, c.Game().Round())
}

func TestLastRoundCelebrates(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 5)
	playFiveRounds(t, c)

	g := c.Game()
	assert.Equal(t, StepCelebration, g.Step())
	assert.Equal(t, 5, g.Round())
	assert.True(t, g.IsFinished())
	assert.False(t, g.CanAdvanceRound())
}

func TestContinuePlaying(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 5)
	playFiveRounds(t, c)
	dealer := c.Game().Dealer()

	require.NoError(t, c.ContinuePlaying())

	g := c.Game()
	assert.Equal(t, UnlimitedRounds, g.MaxRounds())
	assert.True(t, g.Unlimited())
	assert.Equal(t, 6, g.Round())
	assert.Equal(t, (dealer+1)%4, g.Dealer())
	assert.Equal(t, StepPlaceBets, g.Step())
	assert.Equal(t, ScoreViewChart, g.ScoreView())
	assert.True(t, g.CanAdvanceRound())

	playRound(t, c, []int{0, 0, 0, 0}, []int{6, 0, 0, 0})
	assert.Equal(t, 7, c.Game().Round(), "unlimited games never celebrate on their own")

	assert.ErrorIs(t, c.ContinuePlaying(), ErrWrongStep)
}

func TestEndGame(t *testing.T) {
	t.Run("discards a game without completed rounds", func(t *testing.T) {
		c, store := newTestController(t, fourPlayers, 10)
		_, err := c.ConfirmBets([]int{0, 0, 0, 0})
		require.NoError(t, err)

		outcome, err := c.EndGame()
		require.NoError(t, err)
		assert.Equal(t, EndDiscarded, outcome)
		assert.Equal(t, 1, store.cleared)
	})

	t.Run("celebrates after at least one round", func(t *testing.T) {
		c, store := newTestController(t, fourPlayers, 10)
		playRound(t, c, []int{0, 0, 0, 0}, []int{1, 0, 0, 0})
		_, err := c.ConfirmBets([]int{1, 0, 0, 0})
		require.NoError(t, err)

		outcome, err := c.EndGame()
		require.NoError(t, err)
		assert.Equal(t, EndCelebrating, outcome)
		assert.Equal(t, StepCelebration, c.Game().Step())
		assert.Zero(t, store.cleared)

		// resuming picks up the unfinished round
		require.NoError(t, c.ContinuePlaying())
		assert.Equal(t, 2, c.Game().Round())
		assert.Equal(t, StepPlaceBets, c.Game().Step())
	})
}

func TestFinishArchivesGame(t *testing.T) {
	clock := quartz.NewMock(t)
	c, store := newTestController(t, fourPlayers, 5, WithClock(clock))
	playFiveRounds(t, c)

	archived, err := c.Finish()
	require.NoError(t, err)

	ended, ok := archived.EndedAt()
	require.True(t, ok)
	assert.Equal(t, clock.Now().UnixMilli(), ended.UnixMilli())
	assert.True(t, archived.IsArchived())
	require.Len(t, store.archived, 1)
	assert.Equal(t, archived.Score(), store.archived[0].Score())
	assert.Equal(t, 1, store.cleared)

	fresh, _ := newTestController(t, fourPlayers, 5)
	_, err = fresh.Finish()
	assert.ErrorIs(t, err, ErrWrongStep, "only a celebrating game can be finished")
}

func TestEditHistoricalCellRecomputesForward(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 5)
	playFiveRounds(t, c)
	before := c.Game()

	// Bob bet 0 and took 0 in round two; a bet of 2 turns +20 into -20.
	require.NoError(t, c.EditHistoricalCell(2, 1, FieldBet, 2))
	after := c.Game()

	assert.Equal(t, 2, after.Bets()[1][1])
	for r := 0; r < 5; r++ {
		for p := 0; p < 4; p++ {
			switch {
			case p != 1 || r < 1:
				assert.Equal(t, before.Score()[r][p], after.Score()[r][p], "score r%d p%d", r+1, p)
				assert.Equal(t, before.ScoreChange()[r][p], after.ScoreChange()[r][p])
				assert.Equal(t, before.AltScore()[r][p], after.AltScore()[r][p])
			case r == 1:
				assert.Equal(t, -20, after.ScoreChange()[r][p])
				assert.Equal(t, before.Score()[r][p]-40, after.Score()[r][p])
			default:
				assert.Equal(t, before.ScoreChange()[r][p], after.ScoreChange()[r][p], "later deltas stay")
				assert.Equal(t, before.Score()[r][p]-40, after.Score()[r][p], "later totals shift")
			}
		}
	}
}

func TestEditHistoricalCellBounds(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 5)
	playRound(t, c, []int{0, 0, 0, 0}, []int{1, 0, 0, 0})

	assert.ErrorIs(t, c.EditHistoricalCell(2, 0, FieldTricks, 1), ErrRoundOutOfRange)
	assert.ErrorIs(t, c.EditHistoricalCell(1, 4, FieldBet, 1), ErrPlayerOutOfRange)
	assert.ErrorIs(t, c.EditHistoricalCell(1, 0, FieldBet, -1), ErrInvalidValue)
	assert.ErrorIs(t, c.EditHistoricalCell(0, 0, FieldBet, 1), ErrRoundOutOfRange)
}

func TestEditPlayer(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 5)
	playFiveRounds(t, c)

	err := c.EditPlayer(0, PlayerEdit{
		Name:   "Anna",
		Bets:   map[int]int{3: 0},
		Tricks: map[int]int{3: 0, 4: 2},
	})
	require.NoError(t, err)

	g := c.Game()
	assert.Equal(t, "Anna", g.Players()[0])
	assert.Equal(t, 20, g.ScoreChange()[2][0])
	totals, changes := g.Score(), g.ScoreChange()
	for r := 1; r < 5; r++ {
		assert.Equal(t, totals[r-1][0]+changes[r][0], totals[r][0])
	}

	assert.ErrorIs(t, c.EditPlayer(0, PlayerEdit{Name: "x"}), ErrInvalidName)
	assert.Equal(t, "Anna", c.Game().Players()[0])
}

func TestSaveFailureRollsBack(t *testing.T) {
	c, store := newTestController(t, fourPlayers, 10)
	store.saveErr = errors.New("disk full")

	_, err := c.ConfirmBets([]int{1, 0, 0, 0})
	require.Error(t, err)
	assert.Equal(t, StepPlaceBets, c.Game().Step())
	assert.Empty(t, c.Game().Bets())
}

func TestReadOnlyControllerNeverSaves(t *testing.T) {
	c := NewController(Demo(ScoreViewAnalytics, quartz.NewMock(t).Now()), nil, ReadOnly())
	assert.True(t, c.ReadOnly())

	v, err := c.ConfirmBets([]int{2, 2, 2, 1})
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, StepEnterTricks, c.Game().Step())
}

func TestSettings(t *testing.T) {
	c, _ := newTestController(t, fourPlayers, 10)

	require.NoError(t, c.SetDealer(3))
	assert.Equal(t, 3, c.Game().Dealer())
	assert.ErrorIs(t, c.SetDealer(4), ErrPlayerOutOfRange)

	require.NoError(t, c.RenamePlayer(1, "Bobby"))
	assert.Equal(t, "Bobby", c.Game().Players()[1])
	assert.ErrorIs(t, c.RenamePlayer(9, "Zed"), ErrPlayerOutOfRange)

	require.NoError(t, c.SetRoundColor(1, Red))
	color, ok := c.Game().Color(1)
	assert.True(t, ok)
	assert.Equal(t, Red, color)
	assert.ErrorIs(t, c.SetRoundColor(1, "purple"), ErrInvalidColor)
	require.NoError(t, c.RemoveRoundColor(1))
	assert.Empty(t, c.Game().Colors())

	require.NoError(t, c.SetAlternateScoring(true))
	assert.True(t, c.Game().Rules().AlternateScoring)

	require.NoError(t, c.ShowInput())
	assert.Equal(t, DisplayInput, c.Game().Display())
	require.NoError(t, c.ShowOverview())
	assert.Equal(t, DisplayScoreOverview, c.Game().Display())

	require.NoError(t, c.SetScoreView(ScoreViewAnalytics))
	assert.Equal(t, ScoreViewAnalytics, c.Game().ScoreView())
	assert.Error(t, c.SetScoreView(2))
}
