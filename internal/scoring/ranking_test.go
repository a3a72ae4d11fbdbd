package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankSharesPlacesOnTies(t *testing.T) {
	rankings := Rank([]string{"Ann", "Bob", "Cid", "Dee"}, []int{50, 80, 50, 10})

	require.Len(t, rankings, 4)
	assert.Equal(t, "Bob", rankings[0].Name)
	assert.Equal(t, 1, rankings[0].Place)
	assert.Equal(t, "Ann", rankings[1].Name)
	assert.Equal(t, 2, rankings[1].Place)
	assert.Equal(t, "Cid", rankings[2].Name)
	assert.Equal(t, 2, rankings[2].Place)
	assert.Equal(t, "Dee", rankings[3].Name)
	assert.Equal(t, 4, rankings[3].Place)
}

func TestPlaces(t *testing.T) {
	assert.Equal(t, []int{2, 1, 2, 4}, Places([]int{50, 80, 50, 10}))
}

func TestWinners(t *testing.T) {
	assert.Nil(t, Winners(nil, nil))
	assert.Equal(t, []string{"Ann"}, Winners([]string{"Ann", "Bob"}, []int{10, 5}))
	assert.Equal(t, []string{"Ann", "Cid"}, Winners([]string{"Ann", "Bob", "Cid"}, []int{40, -10, 40}))
	assert.Equal(t, []string{"Bob"}, Winners([]string{"Ann", "Bob"}, []int{-30, -10}))
}

func TestPlayerRounds(t *testing.T) {
	bets := [][]int{{0, 1}, {1, 1}, {2, 0}}
	tricks := [][]int{{0, 0}, {1, 2}}

	stats := PlayerRounds(bets, tricks, 0)
	assert.Equal(t, 2, stats.TotalRounds, "round without tricks is ignored")
	assert.Equal(t, 2, stats.CorrectPredictions)
	assert.InDelta(t, 100.0, stats.AccuracyPercentage, 0.001)
	assert.InDelta(t, 0.5, stats.AverageBet, 0.001)
	require.NotNil(t, stats.BestRound)
	assert.Equal(t, RoundScore{Round: 2, Score: 30}, *stats.BestRound)
	assert.Equal(t, RoundScore{Round: 1, Score: 20}, *stats.WorstRound)

	other := PlayerRounds(bets, tricks, 1)
	assert.Equal(t, 0, other.CorrectPredictions)
	assert.InDelta(t, 1.0, other.AverageTricks, 0.001)

	empty := PlayerRounds(nil, nil, 0)
	assert.Zero(t, empty.TotalRounds)
	assert.Nil(t, empty.BestRound)
}
