// Package ws is the client side transport: one websocket connection to the
// lobby server carrying lobby messages and time probes.
package ws

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

// Close codes a server uses to tell a kicked client why.
const (
	StatusKick         websocket.StatusCode = 4001
	StatusKickHighPing websocket.StatusCode = 4002
)

const (
	outboxSize   = 64
	writeTimeout = 3 * time.Second
)

var ErrNotConnected = errors.New("ws: not connected")

// Receiver gets what the read loop decodes. Synchronous must only queue the
// event for the main context; Asynchronous runs on the read loop itself.
type Receiver interface {
	Synchronous(ev lobby.Event)
	Asynchronous(ev lobby.Event)
}

// TimeReplies takes the answers to SendTimeRequest.
type TimeReplies interface {
	HandleReply(sentAt, serverTime uint64)
}

type Options struct {
	// ReadTimeout is how long the server may stay silent before the
	// connection counts as timed out.
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

type Peer struct {
	conn   *websocket.Conn
	opts   Options
	logger *zap.Logger

	out       chan []byte
	connected atomic.Bool
	// closing is set when this side ends the connection, so the resulting
	// read error is not reported as a server disconnect.
	closing   atomic.Bool
	rtt       atomic.Int64
	closeOnce sync.Once
	done      chan struct{}
}

func Dial(ctx context.Context, url string, opts Options, logger *zap.Logger) (*Peer, error) {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	p := &Peer{
		conn:   conn,
		opts:   opts,
		logger: logger.Named("ws"),
		out:    make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
	p.connected.Store(true)
	p.logger.Info("connected", zap.String("url", url))
	return p, nil
}

func (p *Peer) Connected() bool { return p.connected.Load() }

// Ping is the last measured websocket round trip.
func (p *Peer) Ping() time.Duration { return time.Duration(p.rtt.Load()) }

// Send queues a lobby message. Unreliable messages are dropped when the
// outbox is full; reliable ones wait for room.
func (p *Peer) Send(w *wire.Writer, reliable bool) error {
	return p.enqueue(lobbyFrame(w, reliable), reliable)
}

func (p *Peer) SendTimeRequest(ctx context.Context, sentAt uint64) error {
	if !p.Connected() {
		return ErrNotConnected
	}
	select {
	case p.out <- timeRequest(sentAt):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrNotConnected
	}
}

func (p *Peer) enqueue(data []byte, reliable bool) error {
	if !p.Connected() {
		return ErrNotConnected
	}
	if !reliable {
		select {
		case p.out <- data:
		default:
			p.logger.Debug("outbox full, dropping unreliable frame")
		}
		return nil
	}
	select {
	case p.out <- data:
		return nil
	case <-p.done:
		return ErrNotConnected
	}
}

// Disconnect closes the connection normally. It is safe to call more than
// once and from any goroutine.
func (p *Peer) Disconnect() {
	p.closing.Store(true)
	p.shutdown(websocket.StatusNormalClosure, "bye")
}

func (p *Peer) shutdown(code websocket.StatusCode, reason string) {
	p.closeOnce.Do(func() {
		p.connected.Store(false)
		close(p.done)
		_ = p.conn.Close(code, reason)
	})
}

// Run is the network delivery context. It returns once the connection is
// gone; a disconnect the server caused is reported through
// r.Asynchronous first.
func (p *Peer) Run(ctx context.Context, r Receiver, times TimeReplies) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go p.writeLoop(ctx)
	go p.pingLoop(ctx)

	for {
		readCtx, readCancel := context.WithTimeout(ctx, p.opts.ReadTimeout)
		_, data, err := p.conn.Read(readCtx)
		readCancel()
		if err != nil {
			local := p.closing.Load() || ctx.Err() != nil
			p.shutdown(websocket.StatusNormalClosure, "")
			if local {
				return nil
			}
			reason := reasonFor(err)
			p.logger.Info("connection lost", zap.Stringer("reason", reason), zap.Error(err))
			r.Asynchronous(lobby.Event{Type: lobby.EventDisconnected, Reason: reason})
			return nil
		}

		f, err := decodeFrame(data)
		if err != nil {
			p.logger.Warn("bad frame", zap.Error(err))
			continue
		}
		p.dispatch(f, r, times)
	}
}

func (p *Peer) dispatch(f frame, r Receiver, times TimeReplies) {
	switch f.kind {
	case kindLobby:
		if len(f.payload) == 0 {
			return
		}
		tag := wire.Tag(f.payload[0])
		// State changes must arrive in order, so they are never accepted
		// from the unreliable channel.
		if !f.reliable && tag.StateBearing() {
			p.logger.Warn("unreliable state message dropped", zap.Stringer("tag", tag))
			return
		}
		ev := lobby.Event{Type: lobby.EventMessage, Data: f.payload}
		if f.synchronous {
			r.Synchronous(ev)
		} else {
			r.Asynchronous(ev)
		}
	case kindTimeReply:
		rd := wire.NewReader(f.payload)
		sentAt, serverTime := rd.Uint64(), rd.Uint64()
		if rd.Err() != nil {
			p.logger.Warn("bad time reply", zap.Error(rd.Err()))
			return
		}
		if times != nil {
			times.HandleReply(sentAt, serverTime)
		}
	default:
		p.logger.Debug("unknown frame kind", zap.Uint8("kind", f.kind))
	}
}

func (p *Peer) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case data := <-p.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := p.conn.Write(wctx, websocket.MessageBinary, data)
			cancel()
			if err != nil {
				p.logger.Warn("write failed", zap.Error(err))
			}
		}
	}
}

func (p *Peer) pingLoop(ctx context.Context) {
	t := time.NewTicker(p.opts.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-t.C:
			start := time.Now()
			pctx, cancel := context.WithTimeout(ctx, p.opts.PingInterval)
			err := p.conn.Ping(pctx)
			cancel()
			if err != nil {
				p.logger.Debug("ping failed", zap.Error(err))
				continue
			}
			p.rtt.Store(int64(time.Since(start)))
		}
	}
}

// reasonFor maps how the connection ended to what the user is told. Anything
// that is not a close frame from the server is a timeout.
func reasonFor(err error) engine.DisconnectReason {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return engine.DisconnectNormal
	case StatusKick:
		return engine.DisconnectKick
	case StatusKickHighPing:
		return engine.DisconnectKickHighPing
	}
	return engine.DisconnectTimeout
}
