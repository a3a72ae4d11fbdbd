package scoring

import "sort"

// Ranking is one player's place in a standings table.
type Ranking struct {
	Index int // position in the original player order
	Name  string
	Score int
	Place int
}

// Rank orders players by score, highest first. Players with equal scores
// share a place and the next place skips accordingly (1, 1, 3).
// The sort is stable so tied players keep their seating order.
func Rank(names []string, scores []int) []Ranking {
	rankings := make([]Ranking, len(names))
	for i, name := range names {
		score := 0
		if i < len(scores) {
			score = scores[i]
		}
		rankings[i] = Ranking{Index: i, Name: name, Score: score}
	}

	sort.SliceStable(rankings, func(a, b int) bool {
		return rankings[a].Score > rankings[b].Score
	})

	place := 1
	for i := range rankings {
		if i > 0 && rankings[i].Score < rankings[i-1].Score {
			place = i + 1
		}
		rankings[i].Place = place
	}
	return rankings
}

// Places returns each player's place indexed by original seat.
func Places(scores []int) []int {
	names := make([]string, len(scores))
	places := make([]int, len(scores))
	for _, r := range Rank(names, scores) {
		places[r.Index] = r.Place
	}
	return places
}

// Winners returns every player tied for the highest score.
func Winners(names []string, scores []int) []string {
	if len(names) == 0 || len(scores) == 0 {
		return nil
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	var winners []string
	for i, name := range names {
		if i < len(scores) && scores[i] == best {
			winners = append(winners, name)
		}
	}
	return winners
}

// RoundScore identifies a single round's classic score.
type RoundScore struct {
	Round int
	Score int
}

// PlayerRoundStats summarises one player's bets and tricks within a game.
type PlayerRoundStats struct {
	TotalRounds        int
	CorrectPredictions int
	AccuracyPercentage float64
	AverageBet         float64
	AverageTricks      float64
	BestRound          *RoundScore
	WorstRound         *RoundScore
}

// PlayerRounds computes per-game statistics for one player from the bet and
// trick tables. Rounds without tricks yet are ignored.
func PlayerRounds(bets, tricks [][]int, player int) PlayerRoundStats {
	var stats PlayerRoundStats
	if player < 0 {
		return stats
	}

	var betSum, trickSum int
	for r := 0; r < len(bets) && r < len(tricks); r++ {
		if player >= len(bets[r]) || player >= len(tricks[r]) {
			continue
		}
		bet, trick := bets[r][player], tricks[r][player]
		score := Classic(bet, trick)

		stats.TotalRounds++
		betSum += bet
		trickSum += trick
		if bet == trick {
			stats.CorrectPredictions++
		}
		if stats.BestRound == nil || score > stats.BestRound.Score {
			stats.BestRound = &RoundScore{Round: r + 1, Score: score}
		}
		if stats.WorstRound == nil || score < stats.WorstRound.Score {
			stats.WorstRound = &RoundScore{Round: r + 1, Score: score}
		}
	}

	if stats.TotalRounds > 0 {
		n := float64(stats.TotalRounds)
		stats.AccuracyPercentage = float64(stats.CorrectPredictions) / n * 100
		stats.AverageBet = float64(betSum) / n
		stats.AverageTricks = float64(trickSum) / n
	}
	return stats
}
