package game

import "github.com/lox/wizardscore/internal/scoring"

// PlayerRow is one line of the live standings.
type PlayerRow struct {
	Index int
	Name  string
	Score int
	// Bet is the current round's bet; HasBet is false until bets are placed.
	Bet    int
	HasBet bool
	Place  int
	Dealer bool
	Leader bool
}

// Leaderboard ranks the players by the active scoring system, best first.
// Ties share a place and keep seating order.
func (g *Game) Leaderboard() []PlayerRow {
	bets, hasBets := g.RoundBets()
	rankings := scoring.Rank(g.players, g.ActiveScores())
	rows := make([]PlayerRow, len(rankings))
	for i, r := range rankings {
		row := PlayerRow{
			Index:  r.Index,
			Name:   r.Name,
			Score:  r.Score,
			Place:  r.Place,
			Dealer: r.Index == g.dealer,
			Leader: r.Place == 1 && g.CompletedRounds() > 0,
		}
		if hasBets && r.Index < len(bets) {
			row.Bet = bets[r.Index]
			row.HasBet = true
		}
		rows[i] = row
	}
	return rows
}

// RoundSummary is one row of the round-by-round table.
type RoundSummary struct {
	Round   int
	Color   RoundColor
	Bets    []int
	Tricks  []int
	Changes []int
	Totals  []int
	Scored  bool
}

// Rounds lists every round that has at least bets, with the deltas and
// totals of the active scoring system.
func (g *Game) Rounds() []RoundSummary {
	totals, changes := g.ActiveScoreTables()
	out := make([]RoundSummary, 0, len(g.bets))
	for i, bets := range g.Bets() {
		s := RoundSummary{Round: i + 1, Color: g.colors[i+1], Bets: bets}
		if i < len(g.tricks) {
			s.Tricks = append([]int(nil), g.tricks[i]...)
			s.Changes = changes[i]
			s.Totals = totals[i]
			s.Scored = true
		}
		out = append(out, s)
	}
	return out
}
