package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/cmd/wizardscore/shared"
	"github.com/lox/wizardscore/internal/config"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/share"
	"github.com/lox/wizardscore/internal/tui"
	"github.com/redis/go-redis/v9"
)

// ServeCmd runs the share endpoint. Flags override the server block of the
// config.
type ServeCmd struct {
	Addr        string `help:"Listen address (host:port)"`
	Store       string `help:"Backing store: memory, redis or postgres"`
	RedisAddr   string `help:"Redis address"`
	PostgresDSN string `name:"postgres-dsn" help:"Postgres connection string"`
	NATSURL     string `name:"nats-url" help:"NATS server relaying live frames between instances"`
}

func (c *ServeCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg.Server
	if c.Store != "" {
		cfg.Store = c.Store
	}
	if c.RedisAddr != "" {
		cfg.RedisAddr = c.RedisAddr
	}
	if c.PostgresDSN != "" {
		cfg.PostgresDSN = c.PostgresDSN
	}
	if c.NATSURL != "" {
		cfg.NATSURL = c.NATSURL
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	addr := c.Addr
	if addr == "" {
		addr = a.cfg.ServerAddress()
	}

	ctx := shared.SetupSignalHandler(a.logger)

	store, closeStore, err := openShareStore(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []share.ServerOption{
		share.WithServerLogger(a.logger),
		share.WithServerClock(a.clock),
	}
	if cfg.NATSURL != "" {
		relay, err := share.NewNATSRelay(cfg.NATSURL, share.NATSOptions{
			Subject:       cfg.NATSSubject,
			MaxReconnects: -1,
		}, a.logger)
		if err != nil {
			return err
		}
		defer relay.Close()
		opts = append(opts, share.WithRelay(relay))
	}

	a.logger.Info("Starting wizardscore share server", "address", addr, "store", cfg.Store, "relay", cfg.NATSURL != "")
	srv := share.NewServer(store, opts...)
	defer srv.Close()
	return srv.ListenAndServe(ctx, addr)
}

// openShareStore connects the configured backing store. The returned func
// releases its connections.
func openShareStore(ctx context.Context, cfg *config.ServerSettings, logger *log.Logger) (share.Store, func(), error) {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		closer := func() {
			if err := rdb.Close(); err != nil {
				logger.Error("Failed to close redis client", "error", err)
			}
		}
		if err := rdb.Ping(connectCtx).Err(); err != nil {
			closer()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return share.NewRedisStore(rdb, cfg.RedisPrefix, ttl), closer, nil

	case "postgres":
		pool, err := share.ConnectPostgres(connectCtx, cfg.PostgresDSN, share.PostgresOptions{
			MaxConns:        int32(cfg.PostgresMaxConns),
			MaxConnLifetime: time.Hour,
		})
		if err != nil {
			return nil, nil, err
		}
		store, err := share.NewPostgresStore(connectCtx, pool, ttl)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if ttl > 0 {
			if n, err := store.Purge(connectCtx); err != nil {
				logger.Warn("Failed to purge expired shares", "error", err)
			} else if n > 0 {
				logger.Info("Purged expired shares", "count", n)
			}
		}
		return store, pool.Close, nil
	}
	return share.NewMemoryStore(), func() {}, nil
}

// WatchCmd prints a live game every time it changes.
type WatchCmd struct {
	ID string `arg:"" help:"Live game id"`
}

func (c *WatchCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()
	if a.remote == nil {
		return errNoRemote
	}

	ctx := shared.SetupSignalHandler(a.logger)
	err = a.remote.Watch(ctx, c.ID, func(msg share.Message) error {
		if msg.Type == share.MessageDeleted {
			fmt.Fprintln(out, tui.InfoStyle.Render("The live game has ended."))
			return nil
		}
		gm, err := game.Decode(msg.Game)
		if err != nil {
			a.logger.Warn("Skipping unreadable live frame", "error", err)
			return nil
		}
		fmt.Fprintln(out, tui.Status(gm))
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// liveSession mirrors the game in progress to a share id.
type liveSession struct {
	app *app
	ctx context.Context
	id  string
}

func (a *app) startLive(ctx context.Context, g *game.Game) (*liveSession, error) {
	if a.remote == nil {
		return nil, errNoRemote
	}
	uploadCtx, cancel := a.shareTimeout(ctx)
	defer cancel()
	id, err := a.remote.Upload(uploadCtx, g)
	if err != nil {
		return nil, fmt.Errorf("start live game: %w", err)
	}
	a.logger.Info("Live game started", "id", id)
	return &liveSession{app: a, ctx: ctx, id: id}, nil
}

func (l *liveSession) publish(g *game.Game) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := l.app.shareTimeout(l.ctx)
		defer cancel()
		return tui.PublishedMsg{Err: l.app.remote.Update(ctx, l.id, g)}
	}
}

// close ends the live game; watchers get a final deleted frame.
func (l *liveSession) close() {
	ctx, cancel := l.app.shareTimeout(context.Background())
	defer cancel()
	if err := l.app.remote.Delete(ctx, l.id); err != nil {
		l.app.logger.Warn("Failed to close live game", "id", l.id, "error", err)
	}
}
