// Package share implements the remote endpoint finished games are uploaded
// to, the client the scorekeeper uses to talk to it, and live spectating of a
// shared game over websockets.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/shareid"
)

// StatusBundle is the non-standard status a GET answers with when the id
// names a bundle. The body is a JSON array of game ids.
const StatusBundle = 210

// maxBodyBytes bounds uploaded documents.
const maxBodyBytes = 1 << 20

// Server serves the share endpoint at "/", live spectating at "/live" and a
// health check at "/health".
type Server struct {
	store    Store
	ids      *shareid.Generator
	idSource shareid.RandSource
	clock    quartz.Clock
	upgrader websocket.Upgrader
	hub      *hub
	relay    Relay
	stopSub  func()
	logger   *log.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

type ServerOption func(*Server)

func WithServerClock(clock quartz.Clock) ServerOption {
	return func(s *Server) { s.clock = clock }
}

func WithServerLogger(logger *log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithIDSource makes generated ids deterministic.
func WithIDSource(source shareid.RandSource) ServerOption {
	return func(s *Server) { s.idSource = source }
}

// WithRelay fans live frames out through r instead of only to local
// watchers.
func WithRelay(r Relay) ServerOption {
	return func(s *Server) { s.relay = r }
}

// NewServer returns a running server. Close stops its watcher hub.
func NewServer(store Store, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:  store,
		clock:  quartz.NewReal(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Spectator pages may be served from anywhere
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = shareid.NewGenerator(s.clock, s.idSource)
	s.logger = s.logger.WithPrefix("share")
	s.hub = newHub(s.logger)
	go s.hub.run(ctx)

	if s.relay != nil {
		stop, err := s.relay.Subscribe(func(msg *Message) {
			s.hub.broadcast(msg.ID, msg)
		})
		if err != nil {
			s.logger.Error("Relay unavailable, serving local watchers only", "error", err)
			s.relay = nil
		} else {
			s.stopSub = stop
		}
	}
	return s
}

// Close disconnects every watcher.
func (s *Server) Close() {
	if s.stopSub != nil {
		s.stopSub()
	}
	s.cancel()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleShare)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting share server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down share server")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPut:
		s.handleUpdate(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var entry Entry
	switch {
	case r.PostForm.Has("game"):
		doc, err := checkGame(r.PostForm.Get("game"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		entry.Game = doc
	case r.PostForm.Has("bundle"):
		ids, err := s.checkBundle(r.Context(), r.PostForm.Get("bundle"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		entry.Bundle = ids
	default:
		http.Error(w, "missing game or bundle field", http.StatusBadRequest)
		return
	}

	id := s.ids.Generate()
	if err := s.store.Put(r.Context(), id, entry); err != nil {
		s.logger.Error("Failed to store upload", "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	s.logger.Info("Stored share", "id", id, "bundle", entry.IsBundle())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = io.WriteString(w, id)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requestID(w, r)
	if !ok {
		return
	}
	entry, ok := s.load(w, r, id)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if entry.IsBundle() {
		w.WriteHeader(StatusBundle)
		_ = json.NewEncoder(w).Encode(entry.Bundle)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Game)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requestID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	doc, err := checkGame(r.PostForm.Get("game"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, ok := s.load(w, r, id)
	if !ok {
		return
	}
	if existing.IsBundle() {
		http.Error(w, "bundles cannot be updated", http.StatusConflict)
		return
	}
	if err := s.store.Put(r.Context(), id, Entry{Game: doc}); err != nil {
		s.logger.Error("Failed to store update", "id", id, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}

	s.fanout(s.message(MessageUpdate, id, doc))
	s.logger.Debug("Updated share", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requestID(w, r)
	if !ok {
		return
	}
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to delete share", "id", id, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	s.fanout(s.message(MessageDeleted, id, nil))
	s.logger.Info("Deleted share", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleLive upgrades to a websocket that receives the game and every later
// update of it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requestID(w, r)
	if !ok {
		return
	}
	entry, ok := s.load(w, r, id)
	if !ok {
		return
	}
	if entry.IsBundle() {
		http.Error(w, "bundles cannot be watched", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	wt := newWatcher(conn, id, s.logger)
	wt.start()
	if !s.hub.join(s.ctx, wt) {
		wt.close()
		return
	}
	_ = wt.deliver(s.message(MessageSnapshot, id, entry.Game))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// Watchers returns how many sockets are watching id.
func (s *Server) Watchers(id string) int {
	return s.hub.count(id)
}

// fanout delivers msg to local watchers, through the relay when one is set.
func (s *Server) fanout(msg *Message) {
	if s.relay != nil {
		err := s.relay.Publish(msg)
		if err == nil {
			return
		}
		s.logger.Warn("Relay publish failed, delivering locally", "id", msg.ID, "error", err)
	}
	n := s.hub.broadcast(msg.ID, msg)
	s.logger.Debug("Delivered frame", "id", msg.ID, "type", msg.Type, "watchers", n)
}

func (s *Server) message(t MessageType, id string, doc json.RawMessage) *Message {
	return &Message{Type: t, ID: id, Game: doc, Sent: s.clock.Now().UnixMilli()}
}

func (s *Server) requestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if err := shareid.Validate(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, id string) (Entry, bool) {
	entry, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return Entry{}, false
	}
	if err != nil {
		s.logger.Error("Failed to load share", "id", id, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return Entry{}, false
	}
	return entry, true
}

func (s *Server) checkBundle(ctx context.Context, raw string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("bundle must be a JSON array of ids")
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("bundle is empty")
	}
	for _, id := range ids {
		if err := shareid.Validate(id); err != nil {
			return nil, fmt.Errorf("bundle entry %q: %w", id, err)
		}
		entry, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("bundle entry %s: %w", id, err)
		}
		if entry.IsBundle() {
			return nil, fmt.Errorf("bundle entry %s is itself a bundle", id)
		}
	}
	return ids, nil
}

// checkGame accepts only documents that load as a game.
func checkGame(raw string) (json.RawMessage, error) {
	if raw == "" {
		return nil, fmt.Errorf("missing game field")
	}
	if _, err := game.Decode([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid game: %w", err)
	}
	return json.RawMessage(raw), nil
}
