// Package analytics aggregates per-player statistics across archived games.
package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/scoring"
)

// PlayerStats is one player's record across every counted game. Players are
// grouped case-insensitively; Name keeps the spelling first seen.
type PlayerStats struct {
	Name            string
	GamesPlayed     int
	Wins            int
	WinPercentage   float64
	TotalPoints     int
	AveragePoints   float64
	AveragePosition float64
	BestPosition    int
	WorstPosition   int
	TotalRounds     int
	AverageRounds   float64
	HighestScore    int
	LowestScore     int
	BestGameID      string
	WorstGameID     string
	// HasBets is false when no scored round was seen; the bet averages are
	// then meaningless.
	HasBets bool
	// AverageBet and AverageBetDeviation are rounded to two decimals. A
	// positive deviation means the player bets more tricks than they take.
	AverageBet          float64
	AverageBetDeviation float64
}

// Report is the result of Compute.
type Report struct {
	Players []PlayerStats
	// Counted and Skipped split the input games by whether they had a
	// completed round.
	Counted int
	Skipped int
}

type accumulator struct {
	name      string
	positions []int
	scores    []int
	gameIDs   []string
	wins      int
	rounds    int
	betSum    int
	devSum    int
	betRounds int
}

// Compute aggregates games. Games without a completed round are skipped.
func Compute(games []*game.Game) Report {
	var (
		report Report
		order  []string
		acc    = make(map[string]*accumulator)
	)

	for _, g := range games {
		if g.CompletedRounds() < 1 {
			report.Skipped++
			continue
		}
		report.Counted++

		players := g.Players()
		scores := g.ActiveScores()
		places := scoring.Places(scores)
		winners := g.Winners()
		bets, tricks := g.Bets(), g.Tricks()

		for i, name := range players {
			key := strings.ToLower(name)
			a, ok := acc[key]
			if !ok {
				a = &accumulator{name: name}
				acc[key] = a
				order = append(order, key)
			}
			a.positions = append(a.positions, places[i])
			a.scores = append(a.scores, scores[i])
			a.gameIDs = append(a.gameIDs, g.ID())
			a.rounds += g.CompletedRounds()
			if slices.Contains(winners, name) {
				a.wins++
			}
			for r := 0; r < len(bets) && r < len(tricks); r++ {
				if i < len(bets[r]) && i < len(tricks[r]) {
					a.betSum += bets[r][i]
					a.devSum += bets[r][i] - tricks[r][i]
					a.betRounds++
				}
			}
		}
	}

	for _, key := range order {
		report.Players = append(report.Players, acc[key].stats())
	}
	return report
}

func (a *accumulator) stats() PlayerStats {
	n := len(a.scores)
	s := PlayerStats{
		Name:          a.name,
		GamesPlayed:   n,
		Wins:          a.wins,
		TotalRounds:   a.rounds,
		BestPosition:  slices.Min(a.positions),
		WorstPosition: slices.Max(a.positions),
		HighestScore:  slices.Max(a.scores),
		LowestScore:   slices.Min(a.scores),
	}
	for _, v := range a.scores {
		s.TotalPoints += v
	}
	posSum := 0
	for _, p := range a.positions {
		posSum += p
	}
	s.WinPercentage = float64(a.wins) / float64(n) * 100
	s.AveragePoints = float64(s.TotalPoints) / float64(n)
	s.AveragePosition = float64(posSum) / float64(n)
	s.AverageRounds = float64(a.rounds) / float64(n)
	s.BestGameID = a.gameIDs[slices.Index(a.scores, s.HighestScore)]
	s.WorstGameID = a.gameIDs[slices.Index(a.scores, s.LowestScore)]

	if a.betRounds > 0 {
		s.HasBets = true
		s.AverageBet = round2(float64(a.betSum) / float64(a.betRounds))
		s.AverageBetDeviation = round2(float64(a.devSum) / float64(a.betRounds))
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortKey names a column players can be ordered by.
type SortKey string

const (
	SortGamesPlayed     SortKey = "games"
	SortWinPercentage   SortKey = "win-rate"
	SortAveragePosition SortKey = "avg-position"
	SortAveragePoints   SortKey = "avg-points"
	SortWins            SortKey = "wins"
	SortBestPosition    SortKey = "best-position"
	SortHighestScore    SortKey = "highest"
	SortLowestScore     SortKey = "lowest"
	SortName            SortKey = "name"
)

// SortOption pairs a key with its natural direction.
type SortOption struct {
	Key       SortKey
	Label     string
	Ascending bool
}

// SortOptions lists the orderings offered to the user, default first.
func SortOptions() []SortOption {
	return []SortOption{
		{SortGamesPlayed, "Most Games Played", false},
		{SortWinPercentage, "Highest Win %", false},
		{SortAveragePosition, "Best Average Position", true},
		{SortAveragePoints, "Highest Average Points", false},
		{SortWins, "Most Wins", false},
		{SortBestPosition, "Best Position Ever", true},
		{SortHighestScore, "Highest Single Score", false},
		{SortLowestScore, "Lowest Single Score", true},
		{SortName, "Name (A-Z)", true},
	}
}

// ParseSortKey accepts any key from SortOptions.
func ParseSortKey(s string) (SortOption, error) {
	for _, opt := range SortOptions() {
		if string(opt.Key) == s {
			return opt, nil
		}
	}
	return SortOption{}, fmt.Errorf("unknown sort key %q", s)
}

// Sorted returns a copy of players ordered by opt. Ties keep input order.
func Sorted(players []PlayerStats, opt SortOption) []PlayerStats {
	out := slices.Clone(players)
	slices.SortStableFunc(out, func(a, b PlayerStats) int {
		var c int
		if opt.Key == SortName {
			c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		} else {
			c = cmp.Compare(value(a, opt.Key), value(b, opt.Key))
		}
		if !opt.Ascending {
			c = -c
		}
		return c
	})
	return out
}

// Top returns at most limit players ordered by opt.
func Top(players []PlayerStats, opt SortOption, limit int) []PlayerStats {
	out := Sorted(players, opt)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func value(s PlayerStats, key SortKey) float64 {
	switch key {
	case SortGamesPlayed:
		return float64(s.GamesPlayed)
	case SortWinPercentage:
		return s.WinPercentage
	case SortAveragePosition:
		return s.AveragePosition
	case SortAveragePoints:
		return s.AveragePoints
	case SortWins:
		return float64(s.Wins)
	case SortBestPosition:
		return float64(s.BestPosition)
	case SortHighestScore:
		return float64(s.HighestScore)
	case SortLowestScore:
		return float64(s.LowestScore)
	}
	return 0
}
