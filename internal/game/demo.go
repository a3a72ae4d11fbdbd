package game

import "time"

// Demo returns a game seven rounds into a twelve round match, used for the
// showcase screens. Pair it with a ReadOnly controller.
func Demo(view ScoreView, now time.Time) *Game {
	g := &Game{
		dealer:    2,
		rules:     Rules{PlusMinusOne: true},
		round:     8,
		maxRounds: 12,
		players:   []string{"Darth Maul", "Rey", "Han Solo", "Andor"},
		bets: [][]int{
			{0, 0, 1, 0},
			{1, 1, 0, 0},
			{0, 1, 2, 0},
			{0, 1, 0, 1},
			{2, 0, 1, 0},
			{0, 4, 1, 0},
			{2, 1, 1, 0},
		},
		tricks: [][]int{
			{0, 0, 1, 0},
			{1, 0, 0, 0},
			{0, 0, 2, 1},
			{1, 1, 0, 1},
			{0, 1, 1, 0},
			{1, 4, 1, 0},
			{2, 1, 1, 0},
		},
		colors:    map[int]RoundColor{},
		step:      StepPlaceBets,
		display:   DisplayScoreOverview,
		scoreView: view,
		startedAt: now.Add(-time.Hour),
	}
	g.recompute(1)
	return g
}
