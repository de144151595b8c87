package ws

import (
	"errors"

	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

// Every websocket message is one frame: a kind byte, a flags byte and the
// payload. Lobby payloads start with their tag.
const (
	kindLobby byte = iota
	kindTimeRequest
	kindTimeReply
)

const (
	flagReliable byte = 1 << iota
	flagSynchronous
)

const frameHeader = 2

var errShortFrame = errors.New("ws: frame shorter than its header")

type frame struct {
	kind        byte
	reliable    bool
	synchronous bool
	payload     []byte
}

func encodeFrame(f frame) []byte {
	var flags byte
	if f.reliable {
		flags |= flagReliable
	}
	if f.synchronous {
		flags |= flagSynchronous
	}
	out := make([]byte, 0, frameHeader+len(f.payload))
	out = append(out, f.kind, flags)
	return append(out, f.payload...)
}

func decodeFrame(data []byte) (frame, error) {
	if len(data) < frameHeader {
		return frame{}, errShortFrame
	}
	return frame{
		kind:        data[0],
		reliable:    data[1]&flagReliable != 0,
		synchronous: data[1]&flagSynchronous != 0,
		payload:     data[frameHeader:],
	}, nil
}

func lobbyFrame(w *wire.Writer, reliable bool) []byte {
	return encodeFrame(frame{
		kind:        kindLobby,
		reliable:    reliable,
		synchronous: w.Synchronous(),
		payload:     w.Bytes(),
	})
}

func timeRequest(sentAt uint64) []byte {
	return encodeFrame(frame{kind: kindTimeRequest, payload: wire.NewPayload().AddUint64(sentAt).Bytes()})
}
