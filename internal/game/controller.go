package game

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/wizardscore/internal/scoring"
)

// Store persists the active game and keeps the archive of finished games.
type Store interface {
	Save(g *Game) error
	ClearActive() error
	Archive(g *Game) error
}

// EndOutcome tells the caller what ending a game early did.
type EndOutcome int

const (
	// EndDiscarded: no round was completed, the game was thrown away.
	EndDiscarded EndOutcome = iota
	// EndCelebrating: the game jumped to the celebration screen.
	EndCelebrating
)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock sets the clock used for the end timestamp.
func WithClock(clock quartz.Clock) ControllerOption {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the controller logger.
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger.WithPrefix("controller") }
}

// ReadOnly turns every persistence call into a no-op. Used for the demo game.
func ReadOnly() ControllerOption {
	return func(c *Controller) { c.readOnly = true }
}

// Controller drives one game through its phases. Every transition validates
// first, mutates second and persists last; if persisting fails the in-memory
// state is rolled back so it never runs ahead of what was saved.
type Controller struct {
	game     *Game
	store    Store
	clock    quartz.Clock
	logger   *log.Logger
	readOnly bool
}

// NewController wraps g. store may be nil only for read-only controllers.
func NewController(g *Game, store Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		game:   g,
		store:  store,
		clock:  quartz.NewReal(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.readOnly = true
	}
	return c
}

// Game returns a snapshot of the current state.
func (c *Controller) Game() *Game { return c.game.Clone() }

// ReadOnly reports whether changes are persisted.
func (c *Controller) ReadOnly() bool { return c.readOnly }

// ConfirmBets validates and commits the bets of the current round.
func (c *Controller) ConfirmBets(bets []int) (Validation, error) {
	if c.game.step != StepPlaceBets {
		return Validation{}, fmt.Errorf("confirm bets: %w (step is %s)", ErrWrongStep, c.game.step)
	}
	v := ValidateBets(bets, c.game)
	if !v.Valid {
		c.logger.Debug("Bets rejected", "round", c.game.round, "reason", v.Reason, "total", v.Total)
		return v, nil
	}

	err := c.commit(func(g *Game) {
		g.SetRoundBets(bets)
		g.step = StepEnterTricks
		g.display = DisplayScoreOverview
	})
	if err != nil {
		return v, err
	}
	c.logger.Info("Bets placed", "round", c.game.round, "total", v.Total)
	return v, nil
}

// ConfirmTricks validates the tricks of the current round, scores it in both
// systems and moves on to the next round or the celebration.
func (c *Controller) ConfirmTricks(tricks []int) (Validation, error) {
	if c.game.step != StepEnterTricks {
		return Validation{}, fmt.Errorf("confirm tricks: %w (step is %s)", ErrWrongStep, c.game.step)
	}
	bets, ok := c.game.RoundBets()
	if !ok {
		return Validation{}, fmt.Errorf("confirm tricks: %w (no bets for round %d)", ErrWrongStep, c.game.round)
	}
	v := ValidateTricks(tricks, c.game)
	if !v.Valid {
		c.logger.Debug("Tricks rejected", "round", c.game.round, "reason", v.Reason, "total", v.Total)
		return v, nil
	}

	round := c.game.round
	err := c.commit(func(g *Game) {
		g.SetRoundTricks(tricks)
		prevClassic, prevAlt := g.previousTotals(round)
		res := scoring.Round(bets, tricks, round, prevClassic, prevAlt)
		g.AddScore(res.Scores)
		g.AddScoreChange(res.ScoreChanges)
		g.AddAltScore(res.AltScores)
		g.AddAltScoreChange(res.AltScoreDelta)

		if g.round >= g.maxRounds {
			g.step = StepCelebration
		} else {
			g.advance()
		}
		g.display = DisplayScoreOverview
	})
	if err != nil {
		return v, err
	}
	c.logger.Info("Round scored", "round", round, "step", c.game.step)
	return v, nil
}

// ContinuePlaying leaves the celebration and keeps playing with no round
// limit.
func (c *Controller) ContinuePlaying() error {
	if c.game.step != StepCelebration {
		return fmt.Errorf("continue playing: %w (step is %s)", ErrWrongStep, c.game.step)
	}
	return c.commit(func(g *Game) {
		if g.round >= g.maxRounds {
			g.maxRounds = UnlimitedRounds
		}
		// The celebrated round was scored; an early end may have stopped
		// mid-round, which is resumed instead.
		if len(g.tricks) >= g.round {
			g.advance()
		}
		g.step = StepPlaceBets
		g.display = DisplayScoreOverview
		g.scoreView = ScoreViewChart
	})
}

// EndGame stops the game early. A game without a single completed round is
// discarded; otherwise it goes straight to the celebration.
func (c *Controller) EndGame() (EndOutcome, error) {
	if c.game.CompletedRounds() == 0 {
		if !c.readOnly {
			if err := c.store.ClearActive(); err != nil {
				return EndDiscarded, fmt.Errorf("discard game: %w", err)
			}
		}
		c.logger.Info("Game discarded", "round", c.game.round)
		return EndDiscarded, nil
	}
	err := c.commit(func(g *Game) {
		g.step = StepCelebration
		g.display = DisplayScoreOverview
	})
	if err != nil {
		return EndCelebrating, err
	}
	return EndCelebrating, nil
}

// Finish stamps the end time, moves the game into the archive and clears the
// active slot. It returns the archived copy, which is what gets shared.
func (c *Controller) Finish() (*Game, error) {
	if c.game.step != StepCelebration {
		return nil, fmt.Errorf("finish: %w (step is %s)", ErrWrongStep, c.game.step)
	}
	if err := c.commit(func(g *Game) { g.endedAt = c.clock.Now() }); err != nil {
		return nil, err
	}
	archived := c.game.Archived()
	if c.readOnly {
		return archived, nil
	}
	if err := c.store.Archive(archived); err != nil {
		return nil, fmt.Errorf("archive game: %w", err)
	}
	if err := c.store.ClearActive(); err != nil {
		return nil, fmt.Errorf("clear active game: %w", err)
	}
	c.logger.Info("Game finished", "rounds", archived.CompletedRounds(), "winners", archived.Winners())
	return archived, nil
}

// EditHistoricalCell overwrites one bet or trick and recomputes every score
// table from that round onwards.
func (c *Controller) EditHistoricalCell(round, player int, field Field, value int) error {
	if err := c.checkCell(round, player, field, value); err != nil {
		return err
	}
	return c.commit(func(g *Game) {
		g.setCell(round, player, field, value)
		g.recompute(round)
	})
}

// PlayerEdit is a batch of changes for one player. Bets and Tricks map a
// round number to the new value.
type PlayerEdit struct {
	Name   string
	Bets   map[int]int
	Tricks map[int]int
}

// EditPlayer applies a rename and any number of cell edits with a single
// recomputation.
func (c *Controller) EditPlayer(player int, edit PlayerEdit) error {
	if player < 0 || player >= len(c.game.players) {
		return ErrPlayerOutOfRange
	}
	if edit.Name != "" {
		if err := ValidatePlayerName(edit.Name); err != nil {
			return err
		}
	}
	from := 0
	for round, value := range edit.Bets {
		if err := c.checkCell(round, player, FieldBet, value); err != nil {
			return err
		}
		from = earliest(from, round)
	}
	for round, value := range edit.Tricks {
		if err := c.checkCell(round, player, FieldTricks, value); err != nil {
			return err
		}
		from = earliest(from, round)
	}

	return c.commit(func(g *Game) {
		if edit.Name != "" {
			g.players[player] = edit.Name
		}
		for round, value := range edit.Bets {
			g.setCell(round, player, FieldBet, value)
		}
		for round, value := range edit.Tricks {
			g.setCell(round, player, FieldTricks, value)
		}
		if from > 0 {
			g.recompute(from)
		}
	})
}

// RenamePlayer changes a display name.
func (c *Controller) RenamePlayer(player int, name string) error {
	if err := ValidatePlayerName(name); err != nil {
		return err
	}
	if player < 0 || player >= len(c.game.players) {
		return ErrPlayerOutOfRange
	}
	return c.commit(func(g *Game) { g.players[player] = name })
}

// SetRoundColor tags a round with a trump colour.
func (c *Controller) SetRoundColor(round int, color RoundColor) error {
	if !color.Valid() {
		return ErrInvalidColor
	}
	if round < 1 || round > c.game.round {
		return ErrRoundOutOfRange
	}
	return c.commit(func(g *Game) { g.colors[round] = color })
}

// RemoveRoundColor clears a round's colour tag.
func (c *Controller) RemoveRoundColor(round int) error {
	return c.commit(func(g *Game) { g.RemoveColor(round) })
}

// SetDealer moves the dealer button by hand.
func (c *Controller) SetDealer(player int) error {
	if player < 0 || player >= len(c.game.players) {
		return ErrPlayerOutOfRange
	}
	return c.commit(func(g *Game) { g.dealer = player })
}

// SetPlusMinusOne toggles the rule that total bets may not equal the round size.
func (c *Controller) SetPlusMinusOne(on bool) error {
	return c.commit(func(g *Game) { g.rules.PlusMinusOne = on })
}

// SetExpansion toggles the rule that lets trick totals differ from the round size.
func (c *Controller) SetExpansion(on bool) error {
	return c.commit(func(g *Game) { g.rules.Expansion = on })
}

// SetAlternateScoring switches the standings between the classic and the
// alternative system. Both tables are always maintained.
func (c *Controller) SetAlternateScoring(on bool) error {
	return c.commit(func(g *Game) { g.rules.AlternateScoring = on })
}

// ShowInput switches to the input screen.
func (c *Controller) ShowInput() error {
	return c.commit(func(g *Game) { g.display = DisplayInput })
}

// ShowOverview switches to the score overview.
func (c *Controller) ShowOverview() error {
	return c.commit(func(g *Game) { g.display = DisplayScoreOverview })
}

// SetScoreView selects the score overview shown on the overview screen.
func (c *Controller) SetScoreView(v ScoreView) error {
	if !v.Valid() {
		return fmt.Errorf("score view %d: %w", int(v), ErrInvalidValue)
	}
	return c.commit(func(g *Game) { g.scoreView = v })
}

// commit applies mutate and persists. On a failed save the previous state is
// restored.
func (c *Controller) commit(mutate func(g *Game)) error {
	before := c.game.Clone()
	mutate(c.game)
	if c.readOnly {
		return nil
	}
	if err := c.store.Save(c.game); err != nil {
		*c.game = *before
		c.logger.Error("Failed to save game", "error", err)
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (c *Controller) checkCell(round, player int, field Field, value int) error {
	if player < 0 || player >= len(c.game.players) {
		return ErrPlayerOutOfRange
	}
	if value < 0 {
		return ErrInvalidValue
	}
	rows := len(c.game.bets)
	if field == FieldTricks {
		rows = len(c.game.tricks)
	} else if field != FieldBet {
		return fmt.Errorf("edit %s: %w", field, errors.ErrUnsupported)
	}
	if round < 1 || round > rows {
		return ErrRoundOutOfRange
	}
	return nil
}

// advance starts the next round and passes the dealer button on.
func (g *Game) advance() {
	g.NextRound()
	g.dealer = (g.dealer + 1) % len(g.players)
	g.step = StepPlaceBets
}

func (g *Game) setCell(round, player int, field Field, value int) {
	switch field {
	case FieldBet:
		g.bets[round-1][player] = value
	case FieldTricks:
		g.tricks[round-1][player] = value
	}
}

// previousTotals returns the cumulative totals before round, or nil for the
// first round.
func (g *Game) previousTotals(round int) (classic, alt []int) {
	if round < 2 {
		return nil, nil
	}
	if round-2 < len(g.score) {
		classic = g.score[round-2]
	}
	if round-2 < len(g.altScore) {
		alt = g.altScore[round-2]
	}
	return classic, alt
}

// recompute re-derives all four score tables from bets and tricks for every
// scored round starting at from.
func (g *Game) recompute(from int) {
	for r := max(from, 1); r <= len(g.tricks); r++ {
		prevClassic, prevAlt := g.previousTotals(r)
		res := scoring.Round(g.bets[r-1], g.tricks[r-1], r, prevClassic, prevAlt)
		g.score = setRow(g.score, r-1, res.Scores)
		g.scoreChange = setRow(g.scoreChange, r-1, res.ScoreChanges)
		g.altScore = setRow(g.altScore, r-1, res.AltScores)
		g.altScoreChange = setRow(g.altScoreChange, r-1, res.AltScoreDelta)
	}
}

func earliest(current, round int) int {
	if current == 0 || round < current {
		return round
	}
	return current
}
