package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lox/wizardscore/internal/analytics"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/history"
	"github.com/lox/wizardscore/internal/scoring"
)

// Header is the one-line round banner.
func Header(g *game.Game) string {
	var b strings.Builder
	if g.Unlimited() {
		fmt.Fprintf(&b, "Round %d", g.Round())
	} else {
		fmt.Fprintf(&b, "Round %d of %d", g.Round(), g.MaxRounds())
	}
	if c, ok := g.Color(g.Round()); ok {
		b.WriteString(" ")
		b.WriteString(RoundColorStyle(c).Render("[" + string(c) + "]"))
	}
	players := g.Players()
	if d := g.Dealer(); d >= 0 && d < len(players) {
		fmt.Fprintf(&b, "  Dealer: %s", players[d])
	}
	fmt.Fprintf(&b, "  %s", phase(g))
	if flags := ruleFlags(g.Rules()); flags != "" {
		b.WriteString("  ")
		b.WriteString(InfoStyle.Render(flags))
	}
	return RoundInfoStyle.Render(b.String())
}

func phase(g *game.Game) string {
	switch g.Step() {
	case game.StepPlaceBets:
		return "Place bets"
	case game.StepEnterTricks:
		return "Enter tricks"
	case game.StepCelebration:
		return "Game over"
	default:
		return "Finished"
	}
}

func ruleFlags(r game.Rules) string {
	var flags []string
	if r.PlusMinusOne {
		flags = append(flags, "±1")
	}
	if r.Expansion {
		flags = append(flags, "expansion")
	}
	if r.CrowdChaos {
		flags = append(flags, "crowd chaos")
	}
	if r.AlternateScoring {
		flags = append(flags, "alt scoring")
	}
	return strings.Join(flags, ", ")
}

// Scoreboard renders the live standings.
func Scoreboard(g *game.Game) string {
	rows := g.Leaderboard()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(InfoStyle).
		Headers("#", "Player", "Score", "Bet")
	for _, r := range rows {
		name := r.Name
		if r.Dealer {
			name += " " + DealerStyle.Render("(D)")
		}
		if r.Leader {
			name = LeaderStyle.Render("★ ") + name
		}
		bet := "-"
		if r.HasBet {
			bet = strconv.Itoa(r.Bet)
		}
		t.Row(strconv.Itoa(r.Place), name, strconv.Itoa(r.Score), bet)
	}
	return t.Render()
}

// RoundsTable renders one row per round with each player's bet/tricks and
// running total in the active scoring system.
func RoundsTable(g *game.Game) string {
	headers := append([]string{"Rnd"}, g.Players()...)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(InfoStyle).
		Headers(headers...)
	for _, r := range g.Rounds() {
		label := strconv.Itoa(r.Round)
		if r.Color != "" {
			label = RoundColorStyle(r.Color).Render(label)
		}
		row := []string{label}
		for p := range r.Bets {
			if !r.Scored {
				row = append(row, fmt.Sprintf("%d/-", r.Bets[p]))
				continue
			}
			cell := fmt.Sprintf("%d/%d %+d =%d", r.Bets[p], r.Tricks[p], r.Changes[p], r.Totals[p])
			if r.Bets[p] == r.Tricks[p] {
				cell = SuccessStyle.Render(cell)
			} else {
				cell = ErrorStyle.Render(cell)
			}
			row = append(row, cell)
		}
		t.Row(row...)
	}
	return t.Render()
}

// Podium names the winners and the final standings.
func Podium(g *game.Game) string {
	var b strings.Builder
	winners := g.Winners()
	switch len(winners) {
	case 0:
		b.WriteString(InfoStyle.Render("No rounds played"))
	case 1:
		b.WriteString(LeaderStyle.Render("🏆 " + winners[0] + " wins!"))
	default:
		b.WriteString(LeaderStyle.Render("🏆 Tie: " + strings.Join(winners, ", ")))
	}
	b.WriteString("\n")
	for _, r := range scoring.Rank(g.Players(), g.ActiveScores()) {
		fmt.Fprintf(&b, "%d. %s  %d\n", r.Place, r.Name, r.Score)
	}
	return b.String()
}

// PlayerAnalysis renders per-player round statistics for the current game.
func PlayerAnalysis(g *game.Game) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(InfoStyle).
		Headers("Player", "Correct", "Accuracy", "Avg bet", "Avg tricks", "Best", "Worst")
	bets, tricks := g.Bets(), g.Tricks()
	for i, name := range g.Players() {
		s := scoring.PlayerRounds(bets, tricks, i)
		best, worst := "-", "-"
		if s.BestRound != nil {
			best = fmt.Sprintf("R%d %+d", s.BestRound.Round, s.BestRound.Score)
		}
		if s.WorstRound != nil {
			worst = fmt.Sprintf("R%d %+d", s.WorstRound.Round, s.WorstRound.Score)
		}
		t.Row(
			name,
			fmt.Sprintf("%d/%d", s.CorrectPredictions, s.TotalRounds),
			fmt.Sprintf("%.0f%%", s.AccuracyPercentage),
			fmt.Sprintf("%.2f", s.AverageBet),
			fmt.Sprintf("%.2f", s.AverageTricks),
			best,
			worst,
		)
	}
	return t.Render()
}

// ScoreView renders the overview selected on the game.
func ScoreView(g *game.Game) string {
	switch g.ScoreView() {
	case game.ScoreViewTopPlayers:
		return Scoreboard(g)
	case game.ScoreViewCelebration:
		return Podium(g)
	case game.ScoreViewAnalytics:
		return PlayerAnalysis(g)
	default:
		return RoundsTable(g)
	}
}

// Status is the full non-interactive view of a game.
func Status(g *game.Game) string {
	parts := []string{Header(g), Scoreboard(g)}
	if g.CompletedRounds() > 0 || len(g.Bets()) > 0 {
		parts = append(parts, RoundsTable(g))
	}
	if g.Step() == game.StepCelebration {
		parts = append(parts, Podium(g))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// HistoryList renders archive summaries, newest first.
func HistoryList(a history.Archive) string {
	if len(a.Entries) == 0 {
		return InfoStyle.Render("No finished games yet.")
	}
	var b strings.Builder
	for i, e := range a.Entries {
		s := history.Summarize(e.Game)
		id := e.Game.ID()
		if id == "" {
			id = "not shared"
		}
		fmt.Fprintf(&b, "%s %s  %d Minutes  %d rounds  %s\n",
			HeaderStyle.Render(fmt.Sprintf(" %d ", i+1)), s.Date, s.Minutes, s.Rounds, InfoStyle.Render(id))
		for _, r := range s.Standings {
			line := fmt.Sprintf("   %d. %-15s %5d", r.Place, r.Name, r.Score)
			if r.Place == 1 {
				line = LeaderStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	if a.Skipped > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d corrupt game(s) skipped", a.Skipped)))
		b.WriteString("\n")
	}
	return b.String()
}

// StatsTable renders cross-game player statistics.
func StatsTable(players []analytics.PlayerStats) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(InfoStyle).
		Headers("Player", "Games", "Wins", "Win %", "Avg pts", "Avg pos", "Best", "High", "Low", "Avg bet", "Bet dev")
	for _, p := range players {
		avgBet, dev := "-", "-"
		if p.HasBets {
			avgBet = fmt.Sprintf("%.2f", p.AverageBet)
			dev = fmt.Sprintf("%+.2f", p.AverageBetDeviation)
		}
		t.Row(
			p.Name,
			strconv.Itoa(p.GamesPlayed),
			strconv.Itoa(p.Wins),
			fmt.Sprintf("%.0f", p.WinPercentage),
			fmt.Sprintf("%.1f", p.AveragePoints),
			fmt.Sprintf("%.2f", p.AveragePosition),
			strconv.Itoa(p.BestPosition),
			strconv.Itoa(p.HighestScore),
			strconv.Itoa(p.LowestScore),
			avgBet,
			dev,
		)
	}
	return t.Render()
}
