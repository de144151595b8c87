package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

type fakeTransport struct {
	mu          sync.Mutex
	sent        []*wire.Writer
	disconnects int
}

func (t *fakeTransport) Connected() bool     { return true }
func (t *fakeTransport) Ping() time.Duration { return 0 }

func (t *fakeTransport) Send(w *wire.Writer, _ bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, w)
	return nil
}

func (t *fakeTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects++
}

// fakeSession reacts to disconnects the way the lobby client does.
type fakeSession struct {
	host   lobby.Host
	mu     sync.Mutex
	tags   []wire.Tag
	ticks  int
	closed int
}

func (s *fakeSession) Update(int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
}

func (s *fakeSession) NotifyEvent(ev lobby.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, wire.Tag(ev.Data[0]))
	return true
}

func (s *fakeSession) NotifyEventAsynchronous(ev lobby.Event) bool {
	if ev.Type == lobby.EventDisconnected {
		s.host.DisconnectAllPeers()
		s.host.SetErrorMessage(ev.Reason.Message())
		s.host.RequestShutdown()
	}
	return true
}

func (s *fakeSession) View() lobby.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lobby.View{Version: len(s.tags)}
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

type notes struct {
	mu    sync.Mutex
	texts []string
	ended []string
}

func (n *notes) Notify(_ lobby.MessageKind, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *notes) SessionEnded(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = append(n.ended, reason)
}

func start(t *testing.T) (*Hub, *fakeSession, *fakeTransport, *notes, chan error) {
	t.Helper()
	tr := &fakeTransport{}
	n := &notes{}
	h := NewHub(tr, Options{Tick: time.Millisecond, Notifier: n, Recorder: n})
	s := &fakeSession{host: h}
	h.Attach(s)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, s) }()
	return h, s, tr, n, done
}

func recvView(t *testing.T, h *Hub) lobby.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := h.View(ctx)
	require.NoError(t, err)
	return v
}

func waitStopped(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestHub_SynchronousEventsKeepArrivalOrder(t *testing.T) {
	h, s, _, _, _ := start(t)

	order := []wire.Tag{wire.TagStartSelection, wire.TagVote, wire.TagLoadWorld, wire.TagStartRace}
	for _, tag := range order {
		h.Synchronous(lobby.Event{Type: lobby.EventMessage, Data: []byte{byte(tag)}})
	}

	v := recvView(t, h)
	assert.Equal(t, len(order), v.Version)
	s.mu.Lock()
	assert.Equal(t, order, s.tags)
	s.mu.Unlock()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.ticks > 0
	}, time.Second, time.Millisecond)
}

func TestHub_AsyncDisconnectTearsDownOnce(t *testing.T) {
	h, s, tr, n, done := start(t)

	// The delivery context reports a kick while the main context is busy.
	go h.Asynchronous(lobby.Event{Type: lobby.EventDisconnected, Reason: engine.DisconnectKick})
	waitStopped(t, done)

	n.mu.Lock()
	assert.Equal(t, []string{"You were kicked from the server."}, n.texts)
	assert.Equal(t, []string{"You were kicked from the server."}, n.ended)
	n.mu.Unlock()

	s.mu.Lock()
	assert.Equal(t, 1, s.closed)
	s.mu.Unlock()

	tr.mu.Lock()
	assert.Equal(t, 2, tr.disconnects, "once by the session, once by teardown")
	tr.mu.Unlock()

	_, err := h.View(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, h.Exec(context.Background(), func() error { return nil }), ErrStopped)
}

func TestHub_ShutdownWithoutMessageIsQuiet(t *testing.T) {
	h, _, _, n, done := start(t)
	h.Inbox() <- ShutdownHub{}
	waitStopped(t, done)

	n.mu.Lock()
	defer n.mu.Unlock()
	assert.Empty(t, n.texts)
	assert.Equal(t, []string{""}, n.ended)
}

func TestHub_ExecRunsOnMainContext(t *testing.T) {
	h, _, tr, _, _ := start(t)

	err := h.Exec(context.Background(), func() error {
		return h.SendToServer(wire.NewWriter(wire.TagRequestBegin), true)
	})
	require.NoError(t, err)
	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.sent, 1)
	assert.Equal(t, wire.TagRequestBegin, tr.sent[0].Tag())
}

func TestHub_HostState(t *testing.T) {
	h := NewHub(&fakeTransport{}, Options{})
	h.SetMyHostID(12)
	h.SetAuthorisedToControl(true)
	h.SetErrorMessage("Server has been shut down.")

	assert.Equal(t, uint32(12), h.MyHostID())
	assert.True(t, h.Authorised())
	assert.False(t, h.IsClientServer())
	assert.Equal(t, "Server has been shut down.", h.ErrorMessage())
}
