package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/wizardscore/cmd/wizardscore/shared"
	"github.com/lox/wizardscore/internal/config"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/history"
	"github.com/lox/wizardscore/internal/share"
	"github.com/lox/wizardscore/internal/storage"
	"github.com/lox/wizardscore/internal/tui"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config  string `short:"c" type:"path" default:"${config_file}" help:"HCL config file"`
	Dir     string `type:"path" help:"Data directory (overrides config)"`
	Share   string `name:"share-url" help:"Share endpoint (overrides config)"`
	Debug   bool   `help:"Enable debug logging"`
	NoColor bool   `name:"no-color" help:"Disable colour output"`
	Seed    int64  `help:"Deterministic RNG seed for random draws (optional)"`

	clock quartz.Clock
}

// app is everything a command needs, built once from the globals.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	clock  quartz.Clock
	store  *storage.FileStore
	remote *share.Client
	closer io.Closer
}

var errNoRemote = errors.New("sharing is disabled: set share.url in the config or pass --share-url")

func (g *Globals) open() (*app, error) {
	return g.openWith(false)
}

// openWith builds the app. Interactive commands without a log file get a
// quiet logger so log lines do not tear the screen.
func (g *Globals) openWith(interactive bool) (*app, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Dir != "" {
		cfg.Storage.Dir = g.Dir
	}
	if g.Share != "" {
		cfg.Share.URL = g.Share
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if g.NoColor {
		tui.DisableColor()
	}

	a := &app{cfg: cfg, clock: clockOf(g), logger: shared.Quiet(), closer: io.NopCloser(nil)}
	if !interactive || cfg.Log.File != "" {
		a.logger, a.closer, err = shared.SetupLogger(cfg.Log.Level, g.Debug, cfg.Log.File)
		if err != nil {
			return nil, err
		}
	}
	a.store = storage.NewFileStore(cfg.Storage.Dir, a.logger)

	if cfg.Share.URL != "" {
		a.remote, err = share.NewClient(cfg.Share.URL,
			share.WithClientLogger(a.logger),
			share.WithConcurrency(cfg.Share.Concurrency))
		if err != nil {
			return nil, err
		}
	}
	a.logger.Debug("Opened data directory", "dir", cfg.Storage.Dir, "share", cfg.Share.URL)
	return a, nil
}

func clockOf(g *Globals) quartz.Clock {
	if g.clock != nil {
		return g.clock
	}
	return quartz.NewReal()
}

func (a *app) Close() error { return a.closer.Close() }

// controller loads the game in progress.
func (a *app) controller() (*game.Controller, error) {
	g, err := a.store.LoadActive()
	if errors.Is(err, storage.ErrNoActiveGame) {
		return nil, errors.New("no game in progress, start one with: wizardscore new <players...>")
	}
	if err != nil {
		return nil, err
	}
	return game.NewController(g, a.store, game.WithClock(a.clock), game.WithLogger(a.logger)), nil
}

func (a *app) syncer() (*history.Syncer, error) {
	if a.remote == nil {
		return nil, errNoRemote
	}
	return history.NewSyncer(a.store, a.remote, a.logger, a.cfg.Share.Concurrency), nil
}

// shareTimeout bounds one share operation.
func (a *app) shareTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.ShareTimeout())
}

// shareFinished uploads a freshly archived game. Failures are not fatal: the
// game stays in the archive for a later sync.
func (a *app) shareFinished(ctx context.Context, archived *game.Game) (string, error) {
	s, err := a.syncer()
	if err != nil {
		return "", err
	}
	ctx, cancel := a.shareTimeout(ctx)
	defer cancel()
	return s.Share(ctx, archived)
}
