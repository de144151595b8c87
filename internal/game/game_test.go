package game

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

type host struct {
	id   uint32
	sent []wire.Tag
}

func (h *host) IsConnected() bool           { return true }
func (h *host) MyHostID() uint32            { return h.id }
func (h *host) SetMyHostID(id uint32)       { h.id = id }
func (h *host) DisconnectAllPeers()         {}
func (h *host) SetErrorMessage(string)      {}
func (h *host) RequestShutdown()            {}
func (h *host) SetAuthorisedToControl(bool) {}
func (h *host) IsClientServer() bool        { return false }
func (h *host) Ping() time.Duration         { return 0 }

func (h *host) SendToServer(w *wire.Writer, _ bool) error {
	h.sent = append(h.sent, w.Tag())
	return nil
}

type clock struct{}

func (clock) IsSynchronised() bool { return true }
func (clock) NetworkTimer() uint64 { return 1000 }
func (clock) LocalTimer() uint64   { return 1000 }
func (clock) EnableForceSetTimer() {}

func raceManager(t *testing.T, me uint32, mode engine.GameMode, players ...engine.RemoteKartInfo) (*RaceManager, *Protocols) {
	t.Helper()
	p := &Protocols{}
	m := NewRaceManager(&host{id: me}, p, nil)
	m.SetMinorMode(mode)
	m.ConfigRemoteKarts(players, 1)
	return m, p
}

func TestRaceManager_LoadLapWorld(t *testing.T) {
	m, p := raceManager(t, 7, engine.ModeNormalRace,
		engine.RemoteKartInfo{PlayerName: "alice", HostID: 7},
		engine.RemoteKartInfo{PlayerName: "bob", HostID: 9})
	loaded := 0
	m.OnLoaded = func() { loaded++ }

	require.Nil(t, m.World())
	require.NoError(t, m.LoadWorld(engine.NewGameSetup()))

	w := m.World()
	require.NotNil(t, w)
	_, laps := w.(lobby.PositionUpdater)
	assert.True(t, laps)
	assert.Equal(t, 2, w.NumKarts())
	assert.True(t, w.Kart(0).IsLocalPlayer())
	assert.False(t, w.Kart(1).IsLocalPlayer())
	assert.Equal(t, 1, loaded)
	assert.True(t, p.Running())

	m.ExitRace()
	assert.Nil(t, m.World())
	assert.Nil(t, m.KartInfo(0))
}

func TestRaceManager_BattleWorldHasNoFinishLine(t *testing.T) {
	m, _ := raceManager(t, 7, engine.ModeFreeForAll, engine.RemoteKartInfo{PlayerName: "alice", HostID: 7})
	require.NoError(t, m.LoadWorld(engine.NewGameSetup()))

	w := m.World()
	_, laps := w.(lobby.PositionUpdater)
	assert.False(t, laps)
	_, checks := w.(lobby.CheckStructureCounter)
	assert.False(t, checks)
	assert.True(t, m.IsBattleMode())
	assert.True(t, m.SupportsLiveJoining())
}

func TestRaceManager_NoKarts(t *testing.T) {
	m, _ := raceManager(t, 7, engine.ModeNormalRace)
	assert.ErrorIs(t, m.LoadWorld(engine.NewGameSetup()), ErrNoKarts)
}

func TestLapWorld_UpdateRacePosition(t *testing.T) {
	karts := []*Kart{NewKart("a", false), NewKart("b", false), NewKart("c", true)}
	w := &LapWorld{World: newWorld(karts, nil, time.Now)}
	karts[1].FinishedRace(80, true)
	karts[2].FinishedRace(75, false)

	w.UpdateRacePosition()
	assert.Equal(t, 3, karts[0].Position())
	assert.Equal(t, 2, karts[1].Position())
	assert.Equal(t, 1, karts[2].Position())
}

func TestWorld_RestoreCompleteState(t *testing.T) {
	w := newWorld(nil, nil, time.Now)
	block := wire.NewPayload().AddUint16(3).AddBytes([]byte{1, 2, 3}).AddUint8(9)
	r := wire.NewReader(block.Bytes())
	require.NoError(t, w.RestoreCompleteState(r))
	assert.Equal(t, []byte{1, 2, 3}, w.state)
	assert.Equal(t, 1, r.Remaining())

	short := wire.NewReader(wire.NewPayload().AddUint16(10).Bytes())
	assert.ErrorIs(t, NewItemManager().RestoreCompleteState(short), wire.ErrShortBuffer)
}

func TestWorld_Clock(t *testing.T) {
	now := time.Unix(100, 0)
	w := newWorld(nil, nil, func() time.Time { return now })
	assert.Zero(t, w.Time())
	w.SetServerReadyPhase()
	now = now.Add(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, w.Time(), 0.001)
}

func TestUI_HooksAndHistory(t *testing.T) {
	u := NewUI(nil)
	var tracks []string
	u.OnTrackSelection = func(t []string) { tracks = t }
	u.ShowTrackSelection([]string{"lighthouse"})
	assert.Equal(t, []string{"lighthouse"}, tracks)

	for i := 0; i < maxMessages+5; i++ {
		u.Notify(lobby.MessageGeneric, "hello")
	}
	assert.Len(t, u.Messages(), maxMessages)
}

// An unattended client votes from the selection hook and reports the
// world as loaded as soon as LOAD_WORLD arrives.
func TestHeadlessClientLoadsWorld(t *testing.T) {
	h := &host{}
	protocols := &Protocols{}
	races := NewRaceManager(h, protocols, nil)
	ui := NewUI(nil)

	c, err := lobby.NewClient(context.Background(), lobby.Options{
		ClientVersion: 6,
		Tracks:        []string{"lighthouse"},
		Players:       []lobby.LocalPlayer{{Name: "alice"}},
		AutoConnect:   true,
	}, lobby.Deps{
		Host: h, Clock: clock{}, Races: races, Items: NewItemManager(), Protocols: protocols, UI: ui,
	})
	require.NoError(t, err)
	defer c.Close()
	ui.OnTrackSelection = func(tracks []string) { assert.NoError(t, c.SendVote(tracks[0], 3, false)) }
	races.OnLoaded = c.FinishedLoadingWorld

	deliver := func(w *wire.Writer) { c.NotifyEvent(lobby.Event{Type: lobby.EventMessage, Data: w.Bytes()}) }

	c.Update(1)
	deliver(wire.NewWriter(wire.TagConnectionAccepted).
		AddUint32(7).AddUint32(6).AddUint16(0).
		AddFloat(math.MaxFloat32).AddUint32(10).AddBool(true))
	require.Equal(t, engine.StateConnected, c.State())

	deliver(wire.NewWriter(wire.TagStartSelection).
		AddFloat(20).AddBool(false).AddBool(false).AddBool(true).
		AddUint16(1).AddUint16(1).
		EncodeString("tux").EncodeString("lighthouse"))
	require.Equal(t, engine.StateSelectingAssets, c.State())

	load := wire.NewWriter(wire.TagLoadWorld).
		AddUint32(7).
		EncodeString("alice").EncodeString("lighthouse").AddUint8(3).AddBool(false).
		AddBool(false).
		AddUint8(1).
		EncodeString("alice").AddUint32(7).AddFloat(0).AddUint32(0).
		AddUint8(0).AddUint8(0).AddUint8(0xff).EncodeString("").EncodeString("tux").
		AddUint32(42)
	deliver(load)

	require.NotNil(t, races.World())
	assert.Equal(t, []wire.Tag{
		wire.TagConnectionRequested,
		wire.TagVote,
		wire.TagClientLoadedWorld,
	}, h.sent)
	assert.False(t, c.View().Spectator)
}
