package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// absent marks a key missing from the decoded object so that errors can tell
// "missing" apart from an explicit null.
type absent struct{}

// Decode parses a persisted game document. Any failure is a *ValidationError.
func Decode(data []byte) (*Game, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ValidationError{Field: "$", Err: err}
	}
	if dec.More() {
		return nil, &ValidationError{Field: "$", Err: errors.New("trailing data after game object")}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, typeError("$", "object", raw)
	}
	return FromMap(obj)
}

// FromMap builds a Game from an already decoded JSON object. Numbers may be
// json.Number, float64 or integer-valued strings.
func FromMap(m map[string]any) (*Game, error) {
	d := decoder{m: m}
	g := &Game{colors: map[int]RoundColor{}}

	g.dealer = d.number("dealer")
	g.rules = Rules{
		PlusMinusOne:     d.flag("rule_1"),
		RandomDealer:     d.flag("rule_random_dealer"),
		Expansion:        d.flag("rule_expansion"),
		CustomRounds:     d.flag("rule_custom_rounds"),
		CrowdChaos:       d.flag("rule_crowdchaos"),
		AlternateScoring: d.flag("rule_altcount"),
	}
	g.round = d.number("round")
	g.maxRounds = d.number("max_rounds")
	g.players = d.names("players")
	g.bets = d.counts("bets")
	g.tricks = d.counts("tricks")
	g.score = d.table("score")
	g.scoreChange = d.table("score_change")

	if d.has("alt_score") {
		g.altScore = d.table("alt_score")
	} else {
		g.altScore = cloneTable(g.score)
	}
	if d.has("alt_score_change") {
		g.altScoreChange = d.table("alt_score_change")
	} else {
		g.altScoreChange = cloneTable(g.scoreChange)
	}
	if d.has("color") {
		g.colors = d.colors("color")
	}

	g.startedAt = time.UnixMilli(d.number64("time_started"))
	archived := d.has("time_ended")
	if archived {
		g.endedAt = time.UnixMilli(d.number64("time_ended"))
	}
	if d.has("id") {
		g.id = d.text("id")
	}

	if d.has("step") || !archived {
		g.step = Step(d.number("step"))
	}
	if d.has("display") || !archived {
		g.display = Display(d.number("display"))
	}
	if d.has("score_display") || !archived {
		g.scoreView = ScoreView(d.number("score_display"))
	}

	if d.err != nil {
		return nil, d.err
	}
	if err := g.checkStructure(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkStructure verifies the cross-field invariants the typed decode cannot.
func (g *Game) checkStructure() error {
	n := len(g.players)
	switch {
	case g.round < 1:
		return structuralError("round", "must be at least 1", g.round)
	case g.maxRounds < 1:
		return structuralError("max_rounds", "must be at least 1", g.maxRounds)
	case n < 2:
		return structuralError("players", "need at least 2 players", g.players)
	case g.dealer < 0 || g.dealer >= n:
		return structuralError("dealer", "not a player index", g.dealer)
	case g.step < StepFinished || g.step > StepCelebration:
		return structuralError("step", "unknown step", int(g.step))
	case g.display < DisplayFinished || g.display > DisplayInput:
		return structuralError("display", "unknown display", int(g.display))
	case g.scoreView != ScoreViewFinished && !g.scoreView.Valid():
		return structuralError("score_display", "unknown score view", int(g.scoreView))
	}

	tables := []struct {
		field string
		rows  [][]int
	}{
		{"bets", g.bets},
		{"tricks", g.tricks},
		{"score", g.score},
		{"score_change", g.scoreChange},
		{"alt_score", g.altScore},
		{"alt_score_change", g.altScoreChange},
	}
	for _, t := range tables {
		for i, row := range t.rows {
			if len(row) != n {
				return structuralError(t.field+"["+strconv.Itoa(i)+"]", "row width does not match player count", row)
			}
		}
	}

	played := len(g.tricks)
	if len(g.bets) < played || len(g.bets) > played+1 {
		return structuralError("bets", "bets must cover every round with tricks and at most the current one", len(g.bets))
	}
	for _, t := range tables[2:] {
		if len(t.rows) != played {
			return structuralError(t.field, "score rows must match rounds with tricks", len(t.rows))
		}
	}

	// A game in play sits on the round after the last scored one. A
	// celebrated or archived game either scored its last round or was ended
	// before scoring the current one.
	switch g.step {
	case StepPlaceBets, StepEnterTricks:
		if g.round != played+1 {
			return structuralError("round", "must be the round after the last one with tricks", g.round)
		}
		if g.step == StepEnterTricks && len(g.bets) != g.round {
			return structuralError("bets", "the current round needs bets before tricks", len(g.bets))
		}
	default:
		if g.round != played && g.round != played+1 {
			return structuralError("round", "must be the last round with tricks or the one after it", g.round)
		}
	}
	return nil
}

// decoder records the first failure and turns every later lookup into a
// no-op, so FromMap can read fields top to bottom.
type decoder struct {
	m   map[string]any
	err error
}

func (d *decoder) has(key string) bool {
	_, ok := d.m[key]
	return ok
}

func (d *decoder) get(key string) any {
	v, ok := d.m[key]
	if !ok {
		return absent{}
	}
	return v
}

func (d *decoder) fail(err *ValidationError) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) flag(key string) bool {
	if d.err != nil || !d.has(key) {
		return false
	}
	b, ok := d.get(key).(bool)
	if !ok {
		d.fail(typeError(key, "boolean", d.get(key)))
	}
	return b
}

func (d *decoder) number64(key string) int64 {
	if d.err != nil {
		return 0
	}
	v, err := toInt(key, d.get(key))
	if err != nil {
		d.fail(err)
	}
	return v
}

func (d *decoder) number(key string) int {
	return int(d.number64(key))
}

func (d *decoder) text(key string) string {
	if d.err != nil {
		return ""
	}
	s, ok := d.get(key).(string)
	if !ok {
		d.fail(typeError(key, "string", d.get(key)))
	}
	return s
}

func (d *decoder) names(key string) []string {
	if d.err != nil {
		return nil
	}
	arr, ok := d.get(key).([]any)
	if !ok {
		d.fail(typeError(key, "array", d.get(key)))
		return nil
	}
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			d.fail(typeError(key+"["+strconv.Itoa(i)+"]", "string", v))
			return nil
		}
		out[i] = s
	}
	return out
}

func (d *decoder) table(key string) [][]int {
	if d.err != nil {
		return nil
	}
	arr, ok := d.get(key).([]any)
	if !ok {
		d.fail(typeError(key, "array", d.get(key)))
		return nil
	}
	out := make([][]int, len(arr))
	for i, rowValue := range arr {
		field := key + "[" + strconv.Itoa(i) + "]"
		row, ok := rowValue.([]any)
		if !ok {
			d.fail(typeError(field, "array", rowValue))
			return nil
		}
		out[i] = make([]int, len(row))
		for j, cell := range row {
			v, err := toInt(field+"["+strconv.Itoa(j)+"]", cell)
			if err != nil {
				d.fail(err)
				return nil
			}
			out[i][j] = int(v)
		}
	}
	return out
}

// counts reads a table whose cells are bets or tricks, which are never
// negative.
func (d *decoder) counts(key string) [][]int {
	out := d.table(key)
	for i, row := range out {
		for j, v := range row {
			if v < 0 {
				d.fail(structuralError(key+"["+strconv.Itoa(i)+"]["+strconv.Itoa(j)+"]", "must not be negative", v))
				return nil
			}
		}
	}
	return out
}

func (d *decoder) colors(key string) map[int]RoundColor {
	out := map[int]RoundColor{}
	if d.err != nil {
		return out
	}
	obj, ok := d.get(key).(map[string]any)
	if !ok {
		d.fail(typeError(key, "object", d.get(key)))
		return out
	}
	for k, v := range obj {
		round, err := strconv.Atoi(k)
		if err != nil || round < 1 {
			d.fail(structuralError(key, "keys must be round numbers", k))
			return out
		}
		s, ok := v.(string)
		if !ok {
			d.fail(typeError(key+"."+k, "string", v))
			return out
		}
		c := RoundColor(s)
		if !c.Valid() {
			d.fail(structuralError(key+"."+k, "unknown color", s))
			return out
		}
		out[round] = c
	}
	return out
}

// toInt accepts JSON numbers and integer-valued numeric strings.
func toInt(field string, v any) (int64, *ValidationError) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, typeError(field, "number", v)
		}
		f = parsed
	case float64:
		f = n
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, typeError(field, "number", v)
		}
		f = parsed
	default:
		return 0, typeError(field, "number", v)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > UnlimitedRounds {
		return 0, structuralError(field, "not an integer", v)
	}
	return int64(f), nil
}

type document struct {
	Dealer           int                `json:"dealer"`
	RulePlusMinusOne bool               `json:"rule_1"`
	RuleRandomDealer bool               `json:"rule_random_dealer"`
	RuleExpansion    bool               `json:"rule_expansion"`
	RuleCustomRounds bool               `json:"rule_custom_rounds"`
	RuleCrowdChaos   bool               `json:"rule_crowdchaos"`
	RuleAltCount     bool               `json:"rule_altcount"`
	Round            int                `json:"round"`
	MaxRounds        int                `json:"max_rounds"`
	Players          []string           `json:"players"`
	Bets             [][]int            `json:"bets"`
	Tricks           [][]int            `json:"tricks"`
	Score            [][]int            `json:"score"`
	ScoreChange      [][]int            `json:"score_change"`
	AltScore         [][]int            `json:"alt_score"`
	AltScoreChange   [][]int            `json:"alt_score_change"`
	Color            map[int]RoundColor `json:"color"`
	Step             *int               `json:"step,omitempty"`
	Display          *int               `json:"display,omitempty"`
	ScoreDisplay     *int               `json:"score_display,omitempty"`
	TimeStarted      int64              `json:"time_started"`
	TimeEnded        *int64             `json:"time_ended,omitempty"`
	ID               *string            `json:"id,omitempty"`
}

// MarshalJSON writes the persisted document. Archived games omit the
// transient step, display and score_display keys.
func (g *Game) MarshalJSON() ([]byte, error) {
	doc := document{
		Dealer:           g.dealer,
		RulePlusMinusOne: g.rules.PlusMinusOne,
		RuleRandomDealer: g.rules.RandomDealer,
		RuleExpansion:    g.rules.Expansion,
		RuleCustomRounds: g.rules.CustomRounds,
		RuleCrowdChaos:   g.rules.CrowdChaos,
		RuleAltCount:     g.rules.AlternateScoring,
		Round:            g.round,
		MaxRounds:        g.maxRounds,
		Players:          nonNil(g.players),
		Bets:             encodeTable(g.bets),
		Tricks:           encodeTable(g.tricks),
		Score:            encodeTable(g.score),
		ScoreChange:      encodeTable(g.scoreChange),
		AltScore:         encodeTable(g.altScore),
		AltScoreChange:   encodeTable(g.altScoreChange),
		Color:            map[int]RoundColor{},
		TimeStarted:      g.startedAt.UnixMilli(),
	}
	for round, c := range g.colors {
		doc.Color[round] = c
	}
	if !g.IsArchived() {
		step, display, view := int(g.step), int(g.display), int(g.scoreView)
		doc.Step, doc.Display, doc.ScoreDisplay = &step, &display, &view
	}
	if ended, ok := g.EndedAt(); ok {
		ms := ended.UnixMilli()
		doc.TimeEnded = &ms
	}
	if g.id != "" {
		id := g.id
		doc.ID = &id
	}
	return json.Marshal(doc)
}

// UnmarshalJSON replaces g with the decoded document.
func (g *Game) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

// Encode is json.Marshal(g) with the error already wrapped.
func Encode(g *Game) ([]byte, error) {
	data, err := g.MarshalJSON()
	if err != nil {
		return nil, &ValidationError{Field: "$", Err: err}
	}
	return data, nil
}

func encodeTable(table [][]int) [][]int {
	out := make([][]int, len(table))
	for i, row := range table {
		out[i] = nonNil(row)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
