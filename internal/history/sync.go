package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/share"
	"golang.org/x/sync/errgroup"
)

// Store is the local archive as the syncer needs it.
type Store interface {
	Source
	Archive(g *game.Game) error
	ReplaceArchived(index int, g *game.Game) error
	RemoveArchived(index int) error
}

// Remote is the subset of share.Client the syncer uses.
type Remote interface {
	Upload(ctx context.Context, g *game.Game) (string, error)
	UploadBundle(ctx context.Context, ids []string) (string, error)
	FetchAll(ctx context.Context, id string) (share.FetchResult, error)
	Delete(ctx context.Context, id string) error
}

// Syncer uploads archived games that never got a share id, imports shared
// games and deletes games locally and remotely.
type Syncer struct {
	store       Store
	remote      Remote
	logger      *log.Logger
	concurrency int
}

// NewSyncer returns a Syncer. concurrency bounds parallel uploads.
func NewSyncer(store Store, remote Remote, logger *log.Logger, concurrency int) *Syncer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Syncer{store: store, remote: remote, logger: logger.WithPrefix("sync"), concurrency: concurrency}
}

// SyncResult counts what Sync did.
type SyncResult struct {
	Uploaded int
	Failed   int
}

// Sync uploads every archived game without a share id and writes the
// returned id back. Upload failures are counted and left for the next run.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	archive, err := Load(s.store, s.logger)
	if err != nil {
		return SyncResult{}, err
	}

	var pending []Entry
	for _, e := range archive.Entries {
		if !e.Game.HasID() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return SyncResult{}, nil
	}

	ids := make([]string, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, e := range pending {
		g.Go(func() error {
			id, err := s.remote.Upload(gctx, e.Game)
			if err != nil {
				s.logger.Warn("Failed to upload archived game", "index", e.Index, "error", err)
				return nil
			}
			ids[i] = id
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	for i, e := range pending {
		if ids[i] == "" {
			res.Failed++
			continue
		}
		e.Game.SetID(ids[i])
		if err := s.store.ReplaceArchived(e.Index, e.Game); err != nil {
			return res, fmt.Errorf("record share id: %w", err)
		}
		res.Uploaded++
		s.logger.Info("Uploaded archived game", "index", e.Index, "id", ids[i])
	}
	return res, nil
}

// Share uploads a game that Finish already archived and records the returned
// id on the archived copy. On failure the copy stays unshared for Sync.
func (s *Syncer) Share(ctx context.Context, g *game.Game) (string, error) {
	id, err := s.remote.Upload(ctx, g)
	if err != nil {
		s.logger.Warn("Failed to upload finished game", "error", err)
		return "", err
	}

	archive, err := Load(s.store, s.logger)
	if err != nil {
		return "", err
	}
	for _, e := range archive.Entries {
		if !e.Game.HasID() && e.Game.StartedAt().Equal(g.StartedAt()) && equalPlayers(e.Game, g) {
			e.Game.SetID(id)
			if err := s.store.ReplaceArchived(e.Index, e.Game); err != nil {
				return "", fmt.Errorf("record share id: %w", err)
			}
			return id, nil
		}
	}
	shared := g.Clone()
	shared.SetID(id)
	return id, s.store.Archive(shared)
}

// ImportResult counts what Import did.
type ImportResult struct {
	Imported   int
	Duplicates int
	Failed     int
}

// Import fetches id (a game or a bundle) and archives every game whose
// share id is not already archived.
func (s *Syncer) Import(ctx context.Context, id string) (ImportResult, error) {
	fetched, err := s.remote.FetchAll(ctx, id)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch %s: %w", id, err)
	}

	archive, err := Load(s.store, s.logger)
	if err != nil {
		return ImportResult{}, err
	}
	known := make(map[string]bool)
	for _, e := range archive.Entries {
		if e.Game.HasID() {
			known[e.Game.ID()] = true
		}
	}

	res := ImportResult{Failed: fetched.Failed}
	for _, g := range fetched.Games {
		if known[g.ID()] {
			s.logger.Info("Game already archived", "id", g.ID())
			res.Duplicates++
			continue
		}
		if err := s.store.Archive(g.Archived()); err != nil {
			return res, err
		}
		known[g.ID()] = true
		res.Imported++
	}
	return res, nil
}

// Delete removes the archive entry at index and, when it was shared, the
// remote copy. A remote failure is logged and returned but the local entry
// is already gone.
func (s *Syncer) Delete(ctx context.Context, e Entry) error {
	if err := s.store.RemoveArchived(e.Index); err != nil {
		return err
	}
	if !e.Game.HasID() {
		return nil
	}
	err := s.remote.Delete(ctx, e.Game.ID())
	var serr *share.StatusError
	if errors.As(err, &serr) && serr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		s.logger.Warn("Failed to delete shared game", "id", e.Game.ID(), "error", err)
		return fmt.Errorf("delete shared game: %w", err)
	}
	return nil
}

// UploadAll shares every archived game that has an id as one bundle and
// returns the bundle id.
func (s *Syncer) UploadAll(ctx context.Context) (string, error) {
	archive, err := Load(s.store, s.logger)
	if err != nil {
		return "", err
	}
	var ids []string
	for _, e := range archive.Entries {
		if e.Game.HasID() {
			ids = append(ids, e.Game.ID())
		}
	}
	if len(ids) == 0 {
		return "", errors.New("no shared games to bundle")
	}
	return s.remote.UploadBundle(ctx, ids)
}

func equalPlayers(a, b *game.Game) bool {
	return slices.Equal(a.Players(), b.Players())
}
