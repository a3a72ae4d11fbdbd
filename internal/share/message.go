package share

import "encoding/json"

// MessageType tags frames pushed to live watchers.
type MessageType string

const (
	// MessageSnapshot is sent once when a watcher connects.
	MessageSnapshot MessageType = "snapshot"
	// MessageUpdate follows every PUT of the watched id.
	MessageUpdate MessageType = "update"
	// MessageDeleted is the last frame before the server closes the socket.
	MessageDeleted MessageType = "deleted"
)

// Message is one frame on the /live websocket.
type Message struct {
	Type MessageType     `json:"type"`
	ID   string          `json:"id"`
	Game json.RawMessage `json:"game,omitempty"`
	// Sent is the server time in Unix milliseconds.
	Sent int64 `json:"sent"`
}
