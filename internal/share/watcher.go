package share

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Watchers only send control frames
	maxMessageSize = 512
)

var errWatcherClosed = errors.New("share: watcher closed")

// watcher is one websocket spectating a shared game.
type watcher struct {
	conn      *websocket.Conn
	id        string
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newWatcher(conn *websocket.Conn, id string, logger *log.Logger) *watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &watcher{
		conn:   conn,
		id:     id,
		send:   make(chan *Message, 16),
		logger: logger.With("id", id),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *watcher) start() {
	go w.writePump()
	go w.readPump()
}

func (w *watcher) close() {
	w.closeOnce.Do(func() {
		w.cancel()
		close(w.send)
	})
}

// deliver queues msg. A watcher that cannot keep up is dropped.
func (w *watcher) deliver(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Debug("Dropped message for closed watcher", "type", msg.Type)
			err = errWatcherClosed
		}
	}()

	select {
	case w.send <- msg:
		return nil
	case <-w.ctx.Done():
		return errWatcherClosed
	default:
		w.logger.Warn("Watcher send buffer full, closing")
		w.close()
		return errWatcherClosed
	}
}

// readPump only exists to process pongs and notice the peer going away.
func (w *watcher) readPump() {
	defer w.close()

	w.conn.SetReadLimit(maxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				w.logger.Warn("Watcher read failed", "error", err)
			}
			return
		}
	}
}

func (w *watcher) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = w.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := w.conn.WriteJSON(msg); err != nil {
				w.logger.Warn("Failed to write message", "error", err)
				return
			}
			if msg.Type == MessageDeleted {
				w.close()
			}

		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
