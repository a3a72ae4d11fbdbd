// Package storage keeps the active game, the archive of finished games and
// the list of known player names as JSON documents in a data directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/internal/fileutil"
	"github.com/lox/wizardscore/internal/game"
)

const (
	ActiveFile  = "game.json"
	ArchiveFile = "recent_games.json"
	PlayersFile = "playerlist.json"
)

// ErrNoActiveGame is returned by LoadActive when no game is in progress.
var ErrNoActiveGame = errors.New("no active game")

// Error is a failed read or write of a store document. Gameplay must not
// continue as if the operation succeeded.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FileStore is the local store. It is safe for concurrent use so background
// uploads can write share ids back while the game is being saved.
type FileStore struct {
	dir    string
	logger *log.Logger
	mu     sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &FileStore{dir: dir, logger: logger.WithPrefix("storage")}
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name) }

// LoadActive reads the game in progress. A malformed document is returned as
// a *game.ValidationError so the caller can reset instead of rendering
// partial data.
func (s *FileStore) LoadActive() (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(ActiveFile)
	data, ok, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	if !ok {
		return nil, ErrNoActiveGame
	}
	g, err := game.Decode(data)
	if err != nil {
		s.logger.Error("Active game is malformed", "path", path, "error", err)
		return nil, err
	}
	return g, nil
}

// Save writes the active game.
func (s *FileStore) Save(g *game.Game) error {
	data, err := game.Encode(g)
	if err != nil {
		return &Error{Op: "encode", Path: s.path(ActiveFile), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ActiveFile, data)
}

// ClearActive removes the game in progress.
func (s *FileStore) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(ActiveFile)
	if err := fileutil.RemoveIfExists(path); err != nil {
		return &Error{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Archive appends a finished game. A game whose share id is already archived
// replaces that entry instead.
func (s *FileStore) Archive(g *game.Game) error {
	data, err := game.Encode(g)
	if err != nil {
		return &Error{Op: "encode", Path: s.path(ArchiveFile), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readArchive()
	if err != nil {
		return err
	}
	if g.HasID() {
		if i := indexOfID(entries, g.ID()); i >= 0 {
			entries[i] = data
			return s.writeArchive(entries)
		}
	}
	return s.writeArchive(append(entries, data))
}

// ArchivedRaw returns every archived document undecoded, oldest first.
// Entries that no longer decode are kept so they are never lost by a rewrite.
func (s *FileStore) ArchivedRaw() ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readArchive()
}

// ReplaceArchived overwrites the archive entry at index.
func (s *FileStore) ReplaceArchived(index int, g *game.Game) error {
	data, err := game.Encode(g)
	if err != nil {
		return &Error{Op: "encode", Path: s.path(ArchiveFile), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readArchive()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return &Error{Op: "replace", Path: s.path(ArchiveFile), Err: fmt.Errorf("index %d out of range", index)}
	}
	entries[index] = data
	return s.writeArchive(entries)
}

// RemoveArchived deletes the archive entry at index.
func (s *FileStore) RemoveArchived(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readArchive()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return &Error{Op: "remove", Path: s.path(ArchiveFile), Err: fmt.Errorf("index %d out of range", index)}
	}
	return s.writeArchive(slices.Delete(entries, index, index+1))
}

// Players returns the remembered player names in the order they were first
// seen.
func (s *FileStore) Players() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readPlayers()
}

// RememberPlayers adds names to the player list, skipping exact duplicates.
func (s *FileStore) RememberPlayers(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known, err := s.readPlayers()
	if err != nil {
		return err
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(known, name) {
			known = append(known, name)
		}
	}
	data, err := json.Marshal(known)
	if err != nil {
		return &Error{Op: "encode", Path: s.path(PlayersFile), Err: err}
	}
	return s.write(PlayersFile, data)
}

func (s *FileStore) readPlayers() ([]string, error) {
	path := s.path(PlayersFile)
	data, ok, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	if !ok {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, &Error{Op: "decode", Path: path, Err: err}
	}
	return names, nil
}

func (s *FileStore) readArchive() ([]json.RawMessage, error) {
	path := s.path(ArchiveFile)
	data, ok, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	if !ok {
		return []json.RawMessage{}, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &Error{Op: "decode", Path: path, Err: err}
	}
	return entries, nil
}

func (s *FileStore) writeArchive(entries []json.RawMessage) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return &Error{Op: "encode", Path: s.path(ArchiveFile), Err: err}
	}
	return s.write(ArchiveFile, data)
}

func (s *FileStore) write(name string, data []byte) error {
	path := s.path(name)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return &Error{Op: "write", Path: path, Err: err}
	}
	s.logger.Debug("Wrote document", "path", path, "bytes", len(data))
	return nil
}

// indexOfID finds an archived entry by share id without decoding the whole
// game.
func indexOfID(entries []json.RawMessage, id string) int {
	for i, raw := range entries {
		var probe struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(raw, &probe) == nil && probe.ID == id {
			return i
		}
	}
	return -1
}
