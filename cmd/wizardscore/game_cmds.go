package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/wizardscore/cmd/wizardscore/shared"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/randutil"
	"github.com/lox/wizardscore/internal/storage"
	"github.com/lox/wizardscore/internal/tui"
)

// anyStep lets execute run in every step.
const anyStep game.Step = -1

var errGameInProgress = errors.New("a game is in progress: finish or end it, or pass --force")

// NewCmd starts a game. Rule flags switch rules on on top of the config
// defaults.
type NewCmd struct {
	Players        []string `arg:"" help:"Player names in seating order"`
	Dealer         int      `default:"1" help:"Dealer seat, 1-based; 0 draws at random"`
	Rounds         int      `help:"Play a custom number of rounds"`
	PlusMinusOne   bool     `name:"pm1" help:"Total bets may not equal the cards dealt"`
	RandomDealer   bool     `help:"Draw the first dealer at random"`
	Expansion      bool     `help:"Trick totals may differ from the cards dealt"`
	CrowdChaos     bool     `help:"Allow 2 or more than 6 players"`
	AltScoring     bool     `name:"alt-scoring" help:"Rank by the alternative scoring system"`
	IgnoreDefaults bool     `help:"Ignore rule defaults from the config"`
	Force          bool     `help:"Replace a game in progress"`
}

func (c *NewCmd) setup(defaults game.Rules) game.Setup {
	rules := defaults
	if c.IgnoreDefaults {
		rules = game.Rules{}
	}
	rules.PlusMinusOne = rules.PlusMinusOne || c.PlusMinusOne
	rules.RandomDealer = rules.RandomDealer || c.RandomDealer
	rules.Expansion = rules.Expansion || c.Expansion
	rules.CrowdChaos = rules.CrowdChaos || c.CrowdChaos
	rules.AlternateScoring = rules.AlternateScoring || c.AltScoring
	rules.CustomRounds = c.Rounds > 0

	dealer := c.Dealer - 1
	if c.Dealer == 0 {
		dealer = game.DealerRandom
	}
	return game.Setup{Players: c.Players, Dealer: dealer, Rules: rules, Rounds: c.Rounds}
}

func (c *NewCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	switch _, err := a.store.LoadActive(); {
	case err == nil && !c.Force:
		return errGameInProgress
	case err != nil && !errors.Is(err, storage.ErrNoActiveGame):
		a.logger.Warn("Replacing unreadable game", "error", err)
	}

	seed := randutil.Seed(g.Seed, a.clock)
	a.logger.Debug("Using seed", "seed", seed)

	gm, err := game.NewGame(c.setup(a.cfg.Rules()), a.clock.Now(), randutil.New(seed))
	if err != nil {
		return err
	}
	if err := a.store.Save(gm); err != nil {
		return err
	}
	if err := a.store.RememberPlayers(gm.Players()); err != nil {
		a.logger.Warn("Failed to remember players", "error", err)
	}
	a.logger.Info("Game started", "players", gm.Players(), "rounds", gm.MaxRounds(), "dealer", gm.Dealer())
	fmt.Fprintln(out, tui.Status(gm))
	return nil
}

// PlayersCmd lists every player name seen so far.
type PlayersCmd struct{}

func (c *PlayersCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.store.Players()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

type StatusCmd struct {
	View string `enum:"current,chart,top,celebration,analytics" default:"current" help:"Score view to print (${enum})"`
}

func (c *StatusCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	gm := ctrl.Game()
	fmt.Fprintln(out, tui.Status(gm))
	if c.View != "current" {
		v, err := tui.ParseScoreView(c.View)
		if err != nil {
			return err
		}
		gm.SetScoreView(v)
		fmt.Fprintln(out, tui.ScoreView(gm))
	}
	return nil
}

// execute runs one command line against the game in progress and prints the
// result.
func execute(g *Globals, out io.Writer, step game.Step, line string) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	if step != anyStep && ctrl.Game().Step() != step {
		return fmt.Errorf("%w: waiting for %s", game.ErrWrongStep, ctrl.Game().Step())
	}

	res, err := tui.Execute(ctrl, line)
	if err != nil {
		return err
	}
	if res.Rejected {
		return errors.New(res.Message)
	}
	if res.Message != "" {
		fmt.Fprintln(out, tui.SuccessStyle.Render(res.Message))
	}
	if !res.Discarded {
		fmt.Fprintln(out, tui.Status(ctrl.Game()))
	}
	return nil
}

func joinValues(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

type BetsCmd struct {
	Values []int `arg:"" help:"One bet per player, in seating order"`
}

func (c *BetsCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, game.StepPlaceBets, joinValues(c.Values))
}

type TricksCmd struct {
	Values []int `arg:"" help:"Tricks taken per player, in seating order"`
}

func (c *TricksCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, game.StepEnterTricks, joinValues(c.Values))
}

type ContinueCmd struct{}

func (c *ContinueCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, game.StepCelebration, "continue")
}

type EndCmd struct{}

func (c *EndCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, anyStep, "end")
}

type EditCmd struct {
	Round  int    `arg:"" help:"Round number"`
	Player int    `arg:"" help:"Player seat, 1-based"`
	Field  string `arg:"" enum:"bet,tricks" help:"bet or tricks"`
	Value  int    `arg:"" help:"New value"`
}

func (c *EditCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, anyStep, fmt.Sprintf("edit %d %d %s %d", c.Round, c.Player, c.Field, c.Value))
}

type RenameCmd struct {
	Player int      `arg:"" help:"Player seat, 1-based"`
	Name   []string `arg:"" help:"New name"`
}

func (c *RenameCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, anyStep, fmt.Sprintf("rename %d %s", c.Player, strings.Join(c.Name, " ")))
}

type DealerCmd struct {
	Player int `arg:"" help:"Player seat, 1-based"`
}

func (c *DealerCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, anyStep, fmt.Sprintf("dealer %d", c.Player))
}

type ColorCmd struct {
	Color string `arg:"" enum:"blue,red,green,yellow,none,random" help:"${enum}"`
}

func (c *ColorCmd) Run(g *Globals, out io.Writer) error {
	color := c.Color
	if color == "random" {
		rng := randutil.New(randutil.Seed(g.Seed, clockOf(g)))
		color = string(randutil.Pick(rng, game.Colors))
	}
	return execute(g, out, anyStep, "color "+color)
}

type RuleCmd struct {
	Rule  string `arg:"" enum:"pm1,expansion,alt" help:"${enum}"`
	State string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *RuleCmd) Run(g *Globals, out io.Writer) error {
	return execute(g, out, anyStep, fmt.Sprintf("rule %s %s", c.Rule, c.State))
}

// FinishCmd archives the game and shares it when a share endpoint is set.
type FinishCmd struct{}

func (c *FinishCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	archived, err := ctrl.Finish()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.Podium(archived))

	if a.remote == nil {
		return nil
	}
	id, err := a.shareFinished(context.Background(), archived)
	if err != nil {
		fmt.Fprintln(out, tui.WarningStyle.Render("Not shared, run wizardscore sync later: "+err.Error()))
		return nil
	}
	fmt.Fprintln(out, tui.SuccessStyle.Render("Shared as "+id))
	return nil
}

// PlayCmd runs the interactive scorekeeper.
type PlayCmd struct {
	Live bool `help:"Publish every change so others can follow with wizardscore watch"`
}

func (c *PlayCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.openWith(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	ctx := shared.SetupSignalHandler(a.logger)

	opts := []tui.Option{tui.WithLogger(a.logger)}
	if a.remote != nil {
		opts = append(opts, tui.WithFinishHook(func(archived *game.Game) tea.Cmd {
			return func() tea.Msg {
				id, err := a.shareFinished(ctx, archived)
				return tui.SharedMsg{ID: id, Err: err}
			}
		}))
	}
	if c.Live {
		live, err := a.startLive(ctx, ctrl.Game())
		if err != nil {
			return err
		}
		defer live.close()
		fmt.Fprintf(out, "Live game id: %s\n", live.id)
		opts = append(opts, tui.WithChangeHook(live.publish))
	}

	m := tui.New(ctrl, opts...)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	if status := m.Status(); status != "" {
		fmt.Fprintln(out, status)
	}
	return nil
}

// DemoCmd shows the built-in sample game. Nothing is saved.
type DemoCmd struct {
	View  string `enum:"chart,top,celebration,analytics" default:"chart" help:"Score view (${enum})"`
	Print bool   `help:"Print once instead of opening the interactive view"`
}

func (c *DemoCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.openWith(!c.Print)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := tui.ParseScoreView(c.View)
	if err != nil {
		return err
	}
	demo := game.Demo(v, a.clock.Now())
	if c.Print {
		fmt.Fprintln(out, tui.Status(demo))
		fmt.Fprintln(out, tui.ScoreView(demo))
		return nil
	}

	ctrl := game.NewController(demo, nil, game.ReadOnly(), game.WithLogger(a.logger))
	_, err = tea.NewProgram(tui.New(ctrl, tui.WithLogger(a.logger)), tea.WithAltScreen()).Run()
	return err
}
