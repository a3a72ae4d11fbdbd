package main

import (
	"context"
	"fmt"
	"io"

	"github.com/lox/wizardscore/internal/analytics"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/history"
	"github.com/lox/wizardscore/internal/shareid"
	"github.com/lox/wizardscore/internal/tui"
)

type HistoryCmd struct{}

func (c *HistoryCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	archive, err := history.Load(a.store, a.logger)
	if err != nil {
		return err
	}
	fmt.Fprint(out, tui.HistoryList(archive))
	return nil
}

// StatsCmd prints player statistics over the archive.
type StatsCmd struct {
	Sort  string `default:"games" enum:"games,win-rate,avg-position,avg-points,wins,best-position,highest,lowest,name" help:"Sort column (${enum})"`
	Limit int    `default:"0" help:"Show at most this many players (0 for all)"`
}

func (c *StatsCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	archive, err := history.Load(a.store, a.logger)
	if err != nil {
		return err
	}
	games := make([]*game.Game, len(archive.Entries))
	for i, e := range archive.Entries {
		games[i] = e.Game
	}
	report := analytics.Compute(games)
	if len(report.Players) == 0 {
		fmt.Fprintln(out, tui.InfoStyle.Render("No finished games with a completed round yet."))
		return nil
	}

	opt, err := analytics.ParseSortKey(c.Sort)
	if err != nil {
		return err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = -1
	}
	fmt.Fprintln(out, tui.HeaderStyle.Render(" "+opt.Label+" "))
	fmt.Fprintln(out, tui.StatsTable(analytics.Top(report.Players, opt, limit)))
	fmt.Fprintf(out, "%d games counted", report.Counted)
	if skipped := report.Skipped + archive.Skipped; skipped > 0 {
		fmt.Fprintf(out, ", %d skipped", skipped)
	}
	fmt.Fprintln(out)
	return nil
}

// SyncCmd uploads archived games that have no share id yet.
type SyncCmd struct{}

func (c *SyncCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.syncer()
	if err != nil {
		return err
	}
	res, err := s.Sync(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d uploaded, %d failed\n", res.Uploaded, res.Failed)
	return nil
}

// BundleCmd shares every shared archived game under one id.
type BundleCmd struct{}

func (c *BundleCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.syncer()
	if err != nil {
		return err
	}
	ctx, cancel := a.shareTimeout(context.Background())
	defer cancel()
	id, err := s.UploadAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}

type ImportCmd struct {
	ID string `arg:"" help:"Shared game or bundle id"`
}

func (c *ImportCmd) Run(g *Globals, out io.Writer) error {
	if err := shareid.Validate(c.ID); err != nil {
		return err
	}
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.syncer()
	if err != nil {
		return err
	}
	res, err := s.Import(context.Background(), c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d imported, %d already archived", res.Imported, res.Duplicates)
	if res.Failed > 0 {
		fmt.Fprintf(out, ", %d could not be fetched", res.Failed)
	}
	fmt.Fprintln(out)
	return nil
}

// DeleteCmd removes an archived game by its number in `history`.
type DeleteCmd struct {
	Number int `arg:"" help:"Game number as listed by history"`
}

func (c *DeleteCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	archive, err := history.Load(a.store, a.logger)
	if err != nil {
		return err
	}
	if c.Number < 1 || c.Number > len(archive.Entries) {
		return fmt.Errorf("no game %d, history lists %d", c.Number, len(archive.Entries))
	}
	entry := archive.Entries[c.Number-1]

	if a.remote == nil {
		if entry.Game.HasID() {
			a.logger.Warn("Sharing is disabled, the shared copy is kept", "id", entry.Game.ID())
		}
		if err := a.store.RemoveArchived(entry.Index); err != nil {
			return err
		}
	} else {
		s, err := a.syncer()
		if err != nil {
			return err
		}
		ctx, cancel := a.shareTimeout(context.Background())
		defer cancel()
		if err := s.Delete(ctx, entry); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Deleted game %d\n", c.Number)
	return nil
}

// ExportCmd writes the archive as JSON or YAML.
type ExportCmd struct {
	Format string `default:"yaml" enum:"json,yaml" help:"Output format (${enum})"`
	Tables bool   `help:"Include every round's bets, tricks and scores"`
}

func (c *ExportCmd) Run(g *Globals, out io.Writer) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	archive, err := history.Load(a.store, a.logger)
	if err != nil {
		return err
	}
	return history.Export(out, archive, c.Format, c.Tables)
}
