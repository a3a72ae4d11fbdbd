package share

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// Relay carries live frames between server instances so a watcher connected
// to one instance sees updates written through another.
type Relay interface {
	Publish(msg *Message) error
	// Subscribe calls fn for every frame published by any instance,
	// including this one.
	Subscribe(fn func(*Message)) (unsubscribe func(), err error)
}

// NATSRelay is a Relay on NATS subjects of the form <subject>.<id>.
type NATSRelay struct {
	conn    *nats.Conn
	subject string
	logger  *log.Logger
}

// NATSOptions tunes reconnect behaviour.
type NATSOptions struct {
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NewNATSRelay connects to url.
func NewNATSRelay(url string, opts NATSOptions, logger *log.Logger) (*NATSRelay, error) {
	if opts.Subject == "" {
		opts.Subject = "wizardscore.live"
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	logger = logger.WithPrefix("relay")

	conn, err := nats.Connect(url,
		nats.Name("wizardscore"),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return &NATSRelay{conn: conn, subject: opts.Subject, logger: logger}, nil
}

func (r *NATSRelay) Publish(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	return r.conn.Publish(r.subject+"."+msg.ID, data)
}

func (r *NATSRelay) Subscribe(fn func(*Message)) (func(), error) {
	sub, err := r.conn.Subscribe(r.subject+".*", func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			r.logger.Warn("Dropping unreadable frame", "subject", m.Subject, "error", err)
			return
		}
		fn(&msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", r.subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains pending frames and closes the connection.
func (r *NATSRelay) Close() {
	if err := r.conn.Drain(); err != nil {
		r.conn.Close()
	}
}
