package share

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// hub tracks live watchers per shared id.
type hub struct {
	watchers   map[string]map[*watcher]bool
	register   chan *watcher
	unregister chan *watcher
	logger     *log.Logger
	mu         sync.RWMutex
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		watchers:   make(map[string]map[*watcher]bool),
		register:   make(chan *watcher),
		unregister: make(chan *watcher),
		logger:     logger.WithPrefix("hub"),
	}
}

func (h *hub) run(ctx context.Context) {
	for {
		select {
		case w := <-h.register:
			h.mu.Lock()
			set, ok := h.watchers[w.id]
			if !ok {
				set = make(map[*watcher]bool)
				h.watchers[w.id] = set
			}
			set[w] = true
			n := len(set)
			h.mu.Unlock()
			h.logger.Info("Watcher connected", "id", w.id, "watchers", n)

		case w := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.watchers[w.id]; ok && set[w] {
				delete(set, w)
				if len(set) == 0 {
					delete(h.watchers, w.id)
				}
			}
			h.mu.Unlock()
			w.close()
			h.logger.Info("Watcher disconnected", "id", w.id)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// join registers w and unregisters it once its connection ends.
func (h *hub) join(ctx context.Context, w *watcher) bool {
	select {
	case h.register <- w:
	case <-ctx.Done():
		return false
	}
	go func() {
		<-w.ctx.Done()
		select {
		case h.unregister <- w:
		case <-ctx.Done():
		}
	}()
	return true
}

func (h *hub) broadcast(id string, msg *Message) int {
	h.mu.RLock()
	targets := make([]*watcher, 0, len(h.watchers[id]))
	for w := range h.watchers[id] {
		targets = append(targets, w)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, w := range targets {
		if w.deliver(msg) == nil {
			delivered++
		}
	}
	return delivered
}

func (h *hub) count(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[id])
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.watchers {
		for w := range set {
			w.close()
		}
		delete(h.watchers, id)
	}
}
