package game

import "fmt"

// UnlimitedRounds is the max_rounds sentinel used once players decide to keep
// playing past the planned number of rounds. It matches the largest integer a
// JSON number can carry exactly.
const UnlimitedRounds = 1<<53 - 1

// Step is the input phase of the current round.
type Step int

const (
	// StepFinished marks an archived game whose transient fields were stripped.
	StepFinished Step = iota
	StepPlaceBets
	StepEnterTricks
	StepCelebration
)

func (s Step) String() string {
	switch s {
	case StepFinished:
		return "finished"
	case StepPlaceBets:
		return "place bets"
	case StepEnterTricks:
		return "enter tricks"
	case StepCelebration:
		return "celebration"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Display is the screen the game was last showing.
type Display int

const (
	DisplayFinished Display = iota
	DisplayScoreOverview
	DisplayInput
)

// ScoreView is the selected score overview.
type ScoreView int

const (
	ScoreViewFinished    ScoreView = 0
	ScoreViewChart       ScoreView = 1
	ScoreViewTopPlayers  ScoreView = 3
	ScoreViewCelebration ScoreView = 4
	ScoreViewAnalytics   ScoreView = 5
)

// Valid reports whether v is a known score view, the finished sentinel excluded.
func (v ScoreView) Valid() bool {
	switch v {
	case ScoreViewChart, ScoreViewTopPlayers, ScoreViewCelebration, ScoreViewAnalytics:
		return true
	}
	return false
}

// RoundColor is the optional trump colour tag of a round.
type RoundColor string

const (
	Blue   RoundColor = "blue"
	Red    RoundColor = "red"
	Green  RoundColor = "green"
	Yellow RoundColor = "yellow"
)

// Colors lists every round colour in picker order.
var Colors = []RoundColor{Blue, Red, Green, Yellow}

// Valid reports whether c is one of the four round colours.
func (c RoundColor) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// Rules are the house rules chosen at setup. They can be toggled while
// playing.
type Rules struct {
	// PlusMinusOne forbids the total of bets from equalling the round size.
	PlusMinusOne bool
	RandomDealer bool
	// Expansion allows the total of tricks to differ from the round size.
	Expansion    bool
	CustomRounds bool
	// CrowdChaos lifts the player limits.
	CrowdChaos bool
	// AlternateScoring selects the alternative counting system for standings.
	AlternateScoring bool
}

// Names lists the enabled rules by their config names.
func (r Rules) Names() []string {
	var names []string
	for _, rule := range []struct {
		on   bool
		name string
	}{
		{r.PlusMinusOne, "plus_minus_one"},
		{r.RandomDealer, "random_dealer"},
		{r.Expansion, "expansion"},
		{r.CustomRounds, "custom_rounds"},
		{r.CrowdChaos, "crowd_chaos"},
		{r.AlternateScoring, "alternate_scoring"},
	} {
		if rule.on {
			names = append(names, rule.name)
		}
	}
	return names
}

// Field names a cell of the round tables that can be edited after the fact.
type Field int

const (
	FieldBet Field = iota
	FieldTricks
)

func (f Field) String() string {
	switch f {
	case FieldBet:
		return "bet"
	case FieldTricks:
		return "tricks"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField maps a user supplied field name to a Field.
func ParseField(s string) (Field, error) {
	switch s {
	case "bet", "bets":
		return FieldBet, nil
	case "trick", "tricks":
		return FieldTricks, nil
	}
	return 0, fmt.Errorf("unknown field %q (want bet or tricks)", s)
}
