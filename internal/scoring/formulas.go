// Package scoring implements the Wizard round scoring rules and the
// aggregate helpers built on top of them.
package scoring

// Classic scores one player's round under the standard Wizard rules.
// A correct bet earns 20 points plus 10 per trick; a miss costs 10 points per
// trick of deviation.
func Classic(bet, tricks int) int {
	if bet == tricks {
		return 20 + bet*10
	}
	return -10 * abs(bet-tricks)
}

// Alternative scores one player's round under the alternative counting
// system. Every trick won is worth 10 points. A correct bet adds 10 points per
// card dealt in the round; a miss subtracts a triangular penalty of
// 10*d*(d+1)/2 where d is the deviation.
func Alternative(bet, tricks, round int) int {
	base := tricks * 10
	if bet == tricks {
		return base + round*10
	}
	d := abs(bet - tricks)
	return base - 10*d*(d+1)/2
}

// RoundResult holds the per-player outcome of one round in both systems.
type RoundResult struct {
	Scores        []int
	ScoreChanges  []int
	AltScores     []int
	AltScoreDelta []int
}

// Round scores every player of a round. prevClassic and prevAlt are the
// cumulative totals after the previous round; when round is 1 or either
// baseline is missing the totals equal the round deltas.
func Round(bets, tricks []int, round int, prevClassic, prevAlt []int) RoundResult {
	n := len(bets)
	res := RoundResult{
		Scores:        make([]int, n),
		ScoreChanges:  make([]int, n),
		AltScores:     make([]int, n),
		AltScoreDelta: make([]int, n),
	}
	baseline := round > 1 && len(prevClassic) >= n && len(prevAlt) >= n

	for i := 0; i < n; i++ {
		trick := 0
		if i < len(tricks) {
			trick = tricks[i]
		}
		classic := Classic(bets[i], trick)
		alt := Alternative(bets[i], trick, round)
		res.ScoreChanges[i] = classic
		res.AltScoreDelta[i] = alt

		if baseline {
			res.Scores[i] = prevClassic[i] + classic
			res.AltScores[i] = prevAlt[i] + alt
		} else {
			res.Scores[i] = classic
			res.AltScores[i] = alt
		}
	}
	return res
}

// Totals sums per-round changes into a per-player total.
func Totals(changes [][]int) []int {
	if len(changes) == 0 {
		return nil
	}
	totals := make([]int, len(changes[0]))
	for _, row := range changes {
		for i := range totals {
			if i < len(row) {
				totals[i] += row[i]
			}
		}
	}
	return totals
}

// ProhibitedBet returns the bet that would make the total of bets equal the
// round size under the ±1 rule. ok is false when the rule is inactive, in round
// one, or when no non-negative bet would hit the forbidden total.
func ProhibitedBet(bets []int, round int, plusMinusOne bool) (bet int, ok bool) {
	if !plusMinusOne || round == 1 {
		return 0, false
	}
	prohibited := round - sum(bets)
	if prohibited < 0 {
		return 0, false
	}
	return prohibited, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
