package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorsReturnCopies(t *testing.T) {
	g := Demo(ScoreViewChart, time.Unix(0, 0))

	players := g.Players()
	players[0] = "Vader"
	bets := g.Bets()
	bets[0][0] = 99
	colors := g.Colors()
	colors[1] = Blue

	assert.Equal(t, "Darth Maul", g.Players()[0])
	assert.Equal(t, 0, g.Bets()[0][0])
	assert.Empty(t, g.Colors())
}

func TestCurrentScores(t *testing.T) {
	g := gameAt(1, Rules{})
	assert.Equal(t, []int{0, 0, 0}, g.CurrentScores(), "zeros before any round")
	assert.Equal(t, []int{0, 0, 0}, g.CurrentAltScores())

	g.AddScore([]int{30, 20, -10})
	g.AddAltScore([]int{20, 10, -10})
	assert.Equal(t, []int{30, 20, -10}, g.CurrentScores())

	g.NextRound()
	assert.Equal(t, []int{30, 20, -10}, g.CurrentScores(), "falls back to the last scored row")
	assert.Equal(t, []int{20, 10, -10}, g.CurrentAltScores())
}

func TestWinnersTie(t *testing.T) {
	g := gameAt(1, Rules{})
	g.AddScore([]int{40, 40, 10})
	g.AddAltScore([]int{10, 20, 30})
	assert.Equal(t, []string{"Ann", "Bob"}, g.Winners())

	g.SetRules(Rules{AlternateScoring: true})
	assert.Equal(t, []string{"Cid"}, g.Winners())
}

func TestRoundMutatorsWriteCurrentRow(t *testing.T) {
	g := gameAt(1, Rules{})
	g.SetRoundBets([]int{1, 0, 0})
	g.SetRoundBets([]int{0, 1, 0})
	assert.Equal(t, [][]int{{0, 1, 0}}, g.Bets(), "same round overwrites")

	g.SetRoundTricks([]int{0, 1, 0})
	g.NextRound()
	g.SetRoundBets([]int{2, 0, 0})
	assert.Len(t, g.Bets(), 2)
	bets, ok := g.RoundBets()
	require.True(t, ok)
	assert.Equal(t, []int{2, 0, 0}, bets)
	assert.Equal(t, 1, g.CompletedRounds())
}

func TestSetDealerAndRenameBounds(t *testing.T) {
	g := gameAt(1, Rules{})
	require.NoError(t, g.SetDealer(2))
	assert.Equal(t, 2, g.Dealer())
	assert.ErrorIs(t, g.SetDealer(3), ErrPlayerOutOfRange)
	assert.ErrorIs(t, g.SetDealer(-1), ErrPlayerOutOfRange)

	require.NoError(t, g.RenamePlayer(0, "Anna"))
	assert.Equal(t, "Anna", g.Players()[0])
	assert.ErrorIs(t, g.RenamePlayer(3, "Zed"), ErrPlayerOutOfRange)
}

func TestColors(t *testing.T) {
	g := gameAt(3, Rules{})
	require.NoError(t, g.SetColor(2, Green))
	assert.ErrorIs(t, g.SetColor(2, "teal"), ErrInvalidColor)
	assert.ErrorIs(t, g.SetColor(0, Red), ErrRoundOutOfRange)

	c, ok := g.Color(2)
	assert.True(t, ok)
	assert.Equal(t, Green, c)

	g.RemoveColor(2)
	_, ok = g.Color(2)
	assert.False(t, ok)
}

func TestLeaderboard(t *testing.T) {
	g := Demo(ScoreViewTopPlayers, time.Unix(0, 0))
	rows := g.Leaderboard()

	require.Len(t, rows, 4)
	assert.Equal(t, "Han Solo", rows[0].Name)
	assert.Equal(t, 200, rows[0].Score)
	assert.True(t, rows[0].Leader)
	assert.True(t, rows[0].Dealer)
	assert.False(t, rows[0].HasBet, "round eight has no bets yet")
	assert.Equal(t, "Andor", rows[1].Name)
	assert.Equal(t, "Rey", rows[2].Name)
	assert.Equal(t, "Darth Maul", rows[3].Name)
	assert.Equal(t, 4, rows[3].Place)
}

func TestDemoTablesAreConsistent(t *testing.T) {
	g := Demo(ScoreViewAnalytics, time.Unix(0, 0))

	assert.Equal(t, []int{70, 110, 200, 120}, g.CurrentScores())
	assert.Equal(t, ScoreViewAnalytics, g.ScoreView())
	assert.Len(t, g.AltScore(), 7)
	assert.Equal(t, []int{20, 20, 30, 20}, g.ScoreChange()[0])
	assert.Equal(t, []int{10, 10, 20, 10}, g.AltScoreChange()[0], "alternative tables are derived, not copied")
}

func TestRounds(t *testing.T) {
	g := Demo(ScoreViewChart, time.Unix(0, 0))
	require.NoError(t, g.SetColor(3, Yellow))
	g.SetRoundBets([]int{1, 2, 3, 1})

	rounds := g.Rounds()
	require.Len(t, rounds, 8)
	assert.Equal(t, Yellow, rounds[2].Color)
	assert.True(t, rounds[6].Scored)
	assert.Equal(t, []int{70, 110, 200, 120}, rounds[6].Totals)
	assert.False(t, rounds[7].Scored)
	assert.Nil(t, rounds[7].Totals)
}

func TestArchivedStripsTransientFields(t *testing.T) {
	g := Demo(ScoreViewChart, time.Unix(0, 0))
	a := g.Archived()
	assert.True(t, a.IsArchived())
	assert.False(t, g.IsArchived())
	assert.Equal(t, g.Score(), a.Score())
}
