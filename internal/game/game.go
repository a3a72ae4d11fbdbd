package game

import (
	"maps"
	"slices"
	"time"

	"github.com/lox/wizardscore/internal/scoring"
)

// Game is the complete state of one game. Read accessors return copies so
// callers cannot change state behind the controller's back.
type Game struct {
	dealer    int
	rules     Rules
	round     int
	maxRounds int
	players   []string

	bets           [][]int
	tricks         [][]int
	score          [][]int
	scoreChange    [][]int
	altScore       [][]int
	altScoreChange [][]int
	colors         map[int]RoundColor

	step      Step
	display   Display
	scoreView ScoreView

	startedAt time.Time
	endedAt   time.Time
	id        string
}

// Dealer returns the seat index of the current dealer.
func (g *Game) Dealer() int { return g.dealer }

// Rules returns the active house rules.
func (g *Game) Rules() Rules { return g.rules }

// Round returns the current round number, starting at 1.
func (g *Game) Round() int { return g.round }

// MaxRounds returns the planned number of rounds or UnlimitedRounds.
func (g *Game) MaxRounds() int { return g.maxRounds }

// Unlimited reports whether the game continues without a round limit.
func (g *Game) Unlimited() bool { return g.maxRounds >= UnlimitedRounds }

// Players returns the player names in seating order.
func (g *Game) Players() []string { return slices.Clone(g.players) }

// PlayerCount returns the number of seats.
func (g *Game) PlayerCount() int { return len(g.players) }

// Bets returns the bet rows, one per round that has bets.
func (g *Game) Bets() [][]int { return cloneTable(g.bets) }

// Tricks returns the trick rows, one per completed round.
func (g *Game) Tricks() [][]int { return cloneTable(g.tricks) }

// Score returns the cumulative classic totals per completed round.
func (g *Game) Score() [][]int { return cloneTable(g.score) }

// ScoreChange returns the classic points earned in each round.
func (g *Game) ScoreChange() [][]int { return cloneTable(g.scoreChange) }

// AltScore returns the cumulative alternative totals per completed round.
func (g *Game) AltScore() [][]int { return cloneTable(g.altScore) }

// AltScoreChange returns the alternative points earned in each round.
func (g *Game) AltScoreChange() [][]int { return cloneTable(g.altScoreChange) }

// Colors returns the sparse round → colour map.
func (g *Game) Colors() map[int]RoundColor { return maps.Clone(g.colors) }

// Color returns the colour of a round, if one was set.
func (g *Game) Color(round int) (RoundColor, bool) {
	c, ok := g.colors[round]
	return c, ok
}

// Step returns the current phase.
func (g *Game) Step() Step { return g.step }

// Display returns which screen is shown.
func (g *Game) Display() Display { return g.display }

// ScoreView returns the selected score overview.
func (g *Game) ScoreView() ScoreView { return g.scoreView }

// StartedAt returns when the game was set up.
func (g *Game) StartedAt() time.Time { return g.startedAt }

// EndedAt returns the time the game was finished; ok is false while playing.
func (g *Game) EndedAt() (t time.Time, ok bool) {
	return g.endedAt, !g.endedAt.IsZero()
}

// ID returns the share id assigned by the remote endpoint.
func (g *Game) ID() string { return g.id }

// HasID reports whether the game has been shared.
func (g *Game) HasID() bool { return g.id != "" }

// CompletedRounds returns how many rounds have tricks entered.
func (g *Game) CompletedRounds() int { return len(g.tricks) }

// RoundBets returns the bets of the current round, if already placed.
func (g *Game) RoundBets() ([]int, bool) {
	if g.round-1 < len(g.bets) {
		return slices.Clone(g.bets[g.round-1]), true
	}
	return nil, false
}

// SetRoundBets stores the bets of the current round. It performs no rule
// validation.
func (g *Game) SetRoundBets(bets []int) {
	g.bets = setRow(g.bets, g.round-1, bets)
}

// SetRoundTricks stores the tricks of the current round. It performs no rule
// validation.
func (g *Game) SetRoundTricks(tricks []int) {
	g.tricks = setRow(g.tricks, g.round-1, tricks)
}

// AddScore stores the classic totals of the current round.
func (g *Game) AddScore(values []int) {
	g.score = setRow(g.score, g.round-1, values)
}

// AddScoreChange stores the classic points earned in the current round.
func (g *Game) AddScoreChange(values []int) {
	g.scoreChange = setRow(g.scoreChange, g.round-1, values)
}

// AddAltScore stores the alternative totals of the current round.
func (g *Game) AddAltScore(values []int) {
	g.altScore = setRow(g.altScore, g.round-1, values)
}

// AddAltScoreChange stores the alternative points earned in the current round.
func (g *Game) AddAltScoreChange(values []int) {
	g.altScoreChange = setRow(g.altScoreChange, g.round-1, values)
}

// NextRound advances the round counter by one. Step and dealer are left to
// the controller.
func (g *Game) NextRound() {
	g.round++
}

// SetDealer moves the dealer button to the given seat.
func (g *Game) SetDealer(index int) error {
	if index < 0 || index >= len(g.players) {
		return ErrPlayerOutOfRange
	}
	g.dealer = index
	return nil
}

// RenamePlayer changes a player's display name without touching seating.
func (g *Game) RenamePlayer(index int, name string) error {
	if index < 0 || index >= len(g.players) {
		return ErrPlayerOutOfRange
	}
	g.players[index] = name
	return nil
}

// SetColor tags a round with a colour.
func (g *Game) SetColor(round int, color RoundColor) error {
	if !color.Valid() {
		return ErrInvalidColor
	}
	if round < 1 {
		return ErrRoundOutOfRange
	}
	g.colors[round] = color
	return nil
}

// RemoveColor clears the colour tag of a round.
func (g *Game) RemoveColor(round int) {
	delete(g.colors, round)
}

// SetRules replaces the house rules.
func (g *Game) SetRules(r Rules) { g.rules = r }

// SetStep sets the current phase.
func (g *Game) SetStep(s Step) { g.step = s }

// SetDisplay selects the screen.
func (g *Game) SetDisplay(d Display) { g.display = d }

// SetScoreView selects the score overview.
func (g *Game) SetScoreView(v ScoreView) { g.scoreView = v }

// SetMaxRounds sets the round limit.
func (g *Game) SetMaxRounds(n int) { g.maxRounds = n }

// SetEndedAt stamps the finish time.
func (g *Game) SetEndedAt(t time.Time) { g.endedAt = t }

// SetID records the share id.
func (g *Game) SetID(id string) { g.id = id }

// CurrentScores returns the classic totals after the last completed round,
// or zeros before the first round is scored.
func (g *Game) CurrentScores() []int {
	return g.lastRow(g.score)
}

// CurrentAltScores is CurrentScores for the alternative system.
func (g *Game) CurrentAltScores() []int {
	return g.lastRow(g.altScore)
}

// ActiveScores returns the current totals of the scoring system selected by
// the rules.
func (g *Game) ActiveScores() []int {
	if g.rules.AlternateScoring {
		return g.CurrentAltScores()
	}
	return g.CurrentScores()
}

// ActiveScoreTables returns the cumulative and per-round tables of the
// selected scoring system.
func (g *Game) ActiveScoreTables() (totals, changes [][]int) {
	if g.rules.AlternateScoring {
		return g.AltScore(), g.AltScoreChange()
	}
	return g.Score(), g.ScoreChange()
}

// Winners returns every player tied for the highest score in the active
// scoring system.
func (g *Game) Winners() []string {
	return scoring.Winners(g.players, g.ActiveScores())
}

// IsFinished reports whether the last planned round was scored and the game
// is celebrating.
func (g *Game) IsFinished() bool {
	return g.round >= g.maxRounds && g.step == StepCelebration
}

// CanAdvanceRound reports whether another round may be played.
func (g *Game) CanAdvanceRound() bool {
	return g.round < g.maxRounds || g.Unlimited()
}

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	c := *g
	c.players = slices.Clone(g.players)
	c.bets = cloneTable(g.bets)
	c.tricks = cloneTable(g.tricks)
	c.score = cloneTable(g.score)
	c.scoreChange = cloneTable(g.scoreChange)
	c.altScore = cloneTable(g.altScore)
	c.altScoreChange = cloneTable(g.altScoreChange)
	c.colors = maps.Clone(g.colors)
	if c.colors == nil {
		c.colors = map[int]RoundColor{}
	}
	return &c
}

// Archived returns a copy without the transient UI fields, the shape stored in
// the history.
func (g *Game) Archived() *Game {
	c := g.Clone()
	c.step = StepFinished
	c.display = DisplayFinished
	c.scoreView = ScoreViewFinished
	return c
}

// IsArchived reports whether the transient fields were stripped.
func (g *Game) IsArchived() bool {
	return g.step == StepFinished
}

func (g *Game) lastRow(table [][]int) []int {
	if len(table) == 0 {
		return make([]int, len(g.players))
	}
	last := min(g.round-1, len(table)-1)
	if last < 0 {
		return make([]int, len(g.players))
	}
	return slices.Clone(table[last])
}

func setRow(table [][]int, index int, values []int) [][]int {
	for len(table) <= index {
		table = append(table, nil)
	}
	table[index] = slices.Clone(values)
	return table
}

func cloneTable(table [][]int) [][]int {
	out := make([][]int, len(table))
	for i, row := range table {
		out[i] = slices.Clone(row)
	}
	return out
}
