// Package hub is the main context of the client: it ticks the lobby, feeds
// it synchronous messages in arrival order and tears the session down when
// a shutdown is requested.
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

var ErrStopped = errors.New("hub: stopped")

// Session is what the hub drives. *lobby.Client implements it.
type Session interface {
	Update(ticks int)
	NotifyEvent(ev lobby.Event) bool
	NotifyEventAsynchronous(ev lobby.Event) bool
	View() lobby.View
	Close()
}

// Transport is the connection to the server.
type Transport interface {
	Connected() bool
	Send(w *wire.Writer, reliable bool) error
	Disconnect()
	Ping() time.Duration
}

// Notifier shows the final error message once the session is torn down.
type Notifier interface {
	Notify(kind lobby.MessageKind, text string)
}

// Recorder learns how the session ended. Optional.
type Recorder interface {
	SessionEnded(reason string)
}

type HubMsg interface{ isHubMsg() }

// Inbound is a synchronous message from the network delivery context.
type Inbound struct {
	Event lobby.Event
}

// Do runs Fn on the main context, where the session may be touched.
type Do struct {
	Fn    func() error
	Reply chan error
}

type GetView struct {
	Reply chan lobby.View
}

type ShutdownHub struct{}

func (Inbound) isHubMsg()     {}
func (Do) isHubMsg()          {}
func (GetView) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Tick     time.Duration
	Notifier Notifier
	Recorder Recorder
	Logger   *zap.Logger
}

// Hub implements lobby.Host. Its Host methods may be called from any
// goroutine; the session itself is only touched inside Run.
type Hub struct {
	inbox     chan HubMsg
	transport Transport
	opts      Options
	logger    *zap.Logger

	myHostID   atomic.Uint32
	authorised atomic.Bool
	shutdown   atomic.Bool
	async      atomic.Pointer[Session]
	stopped    chan struct{}

	mu       sync.Mutex
	errorMsg string
}

func NewHub(t Transport, opts Options) *Hub {
	if opts.Tick <= 0 {
		opts.Tick = 50 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Hub{
		inbox:     make(chan HubMsg, 64),
		transport: t,
		opts:      opts,
		logger:    opts.Logger.Named("hub"),
		stopped:   make(chan struct{}),
	}
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Run drives s until a shutdown is requested or ctx ends. It tears the
// session down before returning.
func (h *Hub) Run(ctx context.Context, s Session) error {
	defer close(h.stopped)
	t := time.NewTicker(h.opts.Tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.teardown(s)
			return nil

		case <-t.C:
			s.Update(1)

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Inbound:
				s.NotifyEvent(msg.Event)

			case Do:
				msg.Reply <- msg.Fn()

			case GetView:
				msg.Reply <- s.View()

			case ShutdownHub:
				h.RequestShutdown()
			}
		}

		if h.shutdown.Load() {
			h.teardown(s)
			return nil
		}
	}
}

func (h *Hub) teardown(s Session) {
	s.Close()
	h.transport.Disconnect()
	msg := h.ErrorMessage()
	h.logger.Info("session ended", zap.String("message", msg))
	if msg != "" && h.opts.Notifier != nil {
		h.opts.Notifier.Notify(lobby.MessageError, msg)
	}
	if h.opts.Recorder != nil {
		h.opts.Recorder.SessionEnded(msg)
	}
}

// Exec runs fn on the main context and returns its error.
func (h *Hub) Exec(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	if err := h.post(ctx, Do{Fn: fn, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrStopped
	}
}

func (h *Hub) View(ctx context.Context) (lobby.View, error) {
	reply := make(chan lobby.View, 1)
	if err := h.post(ctx, GetView{Reply: reply}); err != nil {
		return lobby.View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return lobby.View{}, ctx.Err()
	case <-h.stopped:
		return lobby.View{}, ErrStopped
	}
}

func (h *Hub) post(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrStopped
	}
}

// Synchronous queues ev for the session in arrival order.
func (h *Hub) Synchronous(ev lobby.Event) {
	select {
	case h.inbox <- Inbound{Event: ev}:
	case <-h.stopped:
	}
}

// Asynchronous is handed to the session straight from the delivery context.
// It is set once the session exists.
func (h *Hub) Asynchronous(ev lobby.Event) {
	if s := h.async.Load(); s != nil {
		(*s).NotifyEventAsynchronous(ev)
	}
}

// Attach makes s the target of asynchronous events. Call it before the
// transport starts delivering.
func (h *Hub) Attach(s Session) {
	h.async.Store(&s)
}

// Stopped is closed once Run has returned.
func (h *Hub) Stopped() <-chan struct{} { return h.stopped }

func (h *Hub) ErrorMessage() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errorMsg
}

func (h *Hub) Authorised() bool { return h.authorised.Load() }

// lobby.Host

func (h *Hub) IsConnected() bool     { return h.transport.Connected() }
func (h *Hub) MyHostID() uint32      { return h.myHostID.Load() }
func (h *Hub) SetMyHostID(id uint32) { h.myHostID.Store(id) }
func (h *Hub) DisconnectAllPeers()   { h.transport.Disconnect() }
func (h *Hub) RequestShutdown()      { h.shutdown.Store(true) }
func (h *Hub) Ping() time.Duration   { return h.transport.Ping() }

// IsClientServer is false: this client never hosts the server it joins.
func (h *Hub) IsClientServer() bool { return false }

func (h *Hub) SetAuthorisedToControl(a bool) { h.authorised.Store(a) }

func (h *Hub) SendToServer(w *wire.Writer, reliable bool) error {
	return h.transport.Send(w, reliable)
}

func (h *Hub) SetErrorMessage(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorMsg = msg
}
