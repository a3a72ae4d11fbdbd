package game

import (
	"fmt"

	"github.com/lox/wizardscore/internal/scoring"
)

// Reason classifies a rejected input.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonRuleViolation: the bets add up to the round size under the ±1 rule.
	ReasonRuleViolation
	// ReasonTotalMismatch: the tricks do not add up to the round size.
	ReasonTotalMismatch
	// ReasonMalformed: wrong number of values or a negative value.
	ReasonMalformed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRuleViolation:
		return "rule_violation"
	case ReasonTotalMismatch:
		return "total_mismatch"
	case ReasonMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Validation is the outcome of checking one round of input. A rejected input
// is an expected, user-facing condition and is reported as a value.
type Validation struct {
	Valid   bool
	Reason  Reason
	Message string
	// Total is the sum of the proposed values, for live feedback.
	Total int
}

func accepted(total int) Validation {
	return Validation{Valid: true, Total: total}
}

func rejected(reason Reason, total int, format string, args ...any) Validation {
	return Validation{Reason: reason, Message: fmt.Sprintf(format, args...), Total: total}
}

// ValidateBets checks proposed bets for the current round. It never mutates g.
func ValidateBets(bets []int, g *Game) Validation {
	if v, ok := checkShape(bets, g); !ok {
		return v
	}
	total := sum(bets)
	if g.round == 1 {
		return accepted(total)
	}
	if g.rules.PlusMinusOne && total == g.round {
		return rejected(ReasonRuleViolation, total, "Total bets cannot equal the number of cards")
	}
	return accepted(total)
}

// ValidateTricks checks proposed tricks for the current round. With the
// expansion rule any non-negative total is allowed.
func ValidateTricks(tricks []int, g *Game) Validation {
	if v, ok := checkShape(tricks, g); !ok {
		return v
	}
	total := sum(tricks)
	if !g.rules.Expansion && total != g.round {
		return rejected(ReasonTotalMismatch, total, "Total tricks must equal %d", g.round)
	}
	return accepted(total)
}

// ValidateInput dispatches on the current step.
func ValidateInput(values []int, g *Game) Validation {
	switch g.step {
	case StepPlaceBets:
		return ValidateBets(values, g)
	case StepEnterTricks:
		return ValidateTricks(values, g)
	default:
		return rejected(ReasonMalformed, sum(values), "No input expected while %s", g.step)
	}
}

// ImpossibleValues lists the values player may not bet given the other
// players' current bets. Only the ±1 rule forbids values, and only from round
// two onwards.
func ImpossibleValues(values []int, player int, g *Game) []int {
	if player < 0 || player >= len(values) {
		return nil
	}
	others := make([]int, 0, len(values)-1)
	for i, v := range values {
		if i != player {
			others = append(others, v)
		}
	}
	bet, ok := scoring.ProhibitedBet(others, g.round, g.rules.PlusMinusOne)
	if !ok || bet > g.round {
		return nil
	}
	return []int{bet}
}

func checkShape(values []int, g *Game) (Validation, bool) {
	total := sum(values)
	if len(values) != len(g.players) {
		return rejected(ReasonMalformed, total, "Expected %d values, got %d", len(g.players), len(values)), false
	}
	for i, v := range values {
		if v < 0 {
			return rejected(ReasonMalformed, total, "%s: %v", g.players[i], ErrInvalidValue), false
		}
	}
	return Validation{}, true
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
