package lobby

import "github.com/DoyleJ11/kart-lobby-client/internal/engine"

type EventType uint8

const (
	EventMessage EventType = iota
	EventConnected
	EventDisconnected
)

// Event is what the transport delivers. Data starts with the message tag.
type Event struct {
	Type   EventType
	Data   []byte
	Reason engine.DisconnectReason
}
