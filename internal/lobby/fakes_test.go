package lobby

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

type sentMsg struct {
	data        []byte
	reliable    bool
	synchronous bool
}

func (m sentMsg) tag() wire.Tag { return wire.Tag(m.data[0]) }

type fakeHost struct {
	mu           sync.Mutex
	connected    bool
	myID         uint32
	sent         []sentMsg
	errMsg       string
	shutdowns    int
	disconnects  int
	authorised   bool
	clientServer bool
}

func (h *fakeHost) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

func (h *fakeHost) MyHostID() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.myID
}

func (h *fakeHost) SetMyHostID(id uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.myID = id
}

func (h *fakeHost) SendToServer(w *wire.Writer, reliable bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	data := append([]byte(nil), w.Bytes()...)
	h.sent = append(h.sent, sentMsg{data: data, reliable: reliable, synchronous: w.Synchronous()})
	return nil
}

func (h *fakeHost) DisconnectAllPeers() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects++
}

func (h *fakeHost) SetErrorMessage(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errMsg = msg
}

func (h *fakeHost) RequestShutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdowns++
}

func (h *fakeHost) SetAuthorisedToControl(a bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authorised = a
}

func (h *fakeHost) IsClientServer() bool { return h.clientServer }
func (h *fakeHost) Ping() time.Duration  { return 25 * time.Millisecond }

func (h *fakeHost) sentWithTag(tag wire.Tag) []sentMsg {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sentMsg
	for _, m := range h.sent {
		if m.tag() == tag {
			out = append(out, m)
		}
	}
	return out
}

func (h *fakeHost) snapshot() (errMsg string, shutdowns, disconnects int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errMsg, h.shutdowns, h.disconnects
}

type fakeClock struct {
	local   atomic.Uint64
	network atomic.Uint64
	synced  atomic.Bool
	forced  atomic.Bool
}

func (c *fakeClock) IsSynchronised() bool { return c.synced.Load() }
func (c *fakeClock) NetworkTimer() uint64 { return c.network.Load() }
func (c *fakeClock) LocalTimer() uint64   { return c.local.Load() }
func (c *fakeClock) EnableForceSetTimer() {
	c.forced.Store(true)
	c.synced.Store(true)
}

type fakeKart struct {
	local         bool
	name          string
	finished      bool
	eliminated    bool
	visible       bool
	liveJoinUntil uint32
	position      int
	resets        int
}

func (k *fakeKart) IsLocalPlayer() bool               { return k.local }
func (k *fakeKart) ControllerName() string            { return k.name }
func (k *fakeKart) HasFinishedRace() bool             { return k.finished }
func (k *fakeKart) IsEliminated() bool                { return k.eliminated }
func (k *fakeKart) FinishedRace(float32, bool)        { k.finished = true }
func (k *fakeKart) SetLiveJoinKart(untilTicks uint32) { k.liveJoinUntil = untilTicks }
func (k *fakeKart) SetVisible(v bool)                 { k.visible = v }
func (k *fakeKart) SetPosition(p int)                 { k.position = p }
func (k *fakeKart) Reset()                            { k.resets++ }

// fakeWorld is a lap based world, so it has every optional capability.
type fakeWorld struct {
	karts       []*fakeKart
	teams       []engine.KartTeam
	liveJoin    bool
	endLiveJoin uint32
	readyPhase  bool
	raceOver    bool
	checks      uint8
	fastestLap  uint32
	fastestKart string
	positioned  int
}

func (w *fakeWorld) NumKarts() int                           { return len(w.karts) }
func (w *fakeWorld) Kart(i int) Kart                         { return w.karts[i] }
func (w *fakeWorld) Time() float32                           { return 90 }
func (w *fakeWorld) SetServerReadyPhase()                    { w.readyPhase = true }
func (w *fakeWorld) SetLiveJoinWorld(l bool)                 { w.liveJoin = l }
func (w *fakeWorld) EndLiveJoinWorld(until uint32)           { w.endLiveJoin = until }
func (w *fakeWorld) EliminateKart(i int)                     { w.karts[i].eliminated = true }
func (w *fakeWorld) EnterRaceOverState()                     { w.raceOver = true }
func (w *fakeWorld) HandleServerCheckStructureCount(n uint8) { w.checks = n }
func (w *fakeWorld) UpdateRacePosition()                     { w.positioned++ }

func (w *fakeWorld) SetFastestLap(ticks uint32, kart string) {
	w.fastestLap = ticks
	w.fastestKart = kart
}

func (w *fakeWorld) CurrentNumKarts() int {
	n := 0
	for _, k := range w.karts {
		if !k.eliminated {
			n++
		}
	}
	return n
}

func (w *fakeWorld) KartTeam(i int) engine.KartTeam {
	if i < len(w.teams) {
		return w.teams[i]
	}
	return engine.TeamNone
}

func (w *fakeWorld) ResetElimination() {
	for _, k := range w.karts {
		k.eliminated = false
	}
}

func (w *fakeWorld) RestoreCompleteState(r *wire.Reader) error {
	return skipBlock(r)
}

// skipBlock consumes the u16 length prefixed state blocks the fakes use.
func skipBlock(r *wire.Reader) error {
	r.Skip(int(r.Uint16()))
	return r.Err()
}

type fakeRaces struct {
	host        *fakeHost
	world       *fakeWorld
	battle      bool
	laps        bool
	team        bool
	liveJoin    bool
	difficulty  engine.Difficulty
	mode        engine.GameMode
	flagReturn  uint16
	karts       []engine.RemoteKartInfo
	localCount  int
	loads       int
	exits       int
	liveJoining map[int]uint32
}

func (r *fakeRaces) World() World {
	if r.world == nil {
		return nil
	}
	return r.world
}

func (r *fakeRaces) IsBattleMode() bool                          { return r.battle }
func (r *fakeRaces) ModeHasLaps() bool                           { return r.laps }
func (r *fakeRaces) TeamEnabled() bool                           { return r.team }
func (r *fakeRaces) SupportsLiveJoining() bool                   { return r.liveJoin }
func (r *fakeRaces) SetDifficulty(d engine.Difficulty)           { r.difficulty = d }
func (r *fakeRaces) SetMinorMode(m engine.GameMode)              { r.mode = m }
func (r *fakeRaces) SetFlagTicks(ret, _ uint16)                  { r.flagReturn = ret }
func (r *fakeRaces) ConfigGrandPrixResult(rd *wire.Reader) error { return skipBlock(rd) }

func (r *fakeRaces) KartInfo(slot int) *engine.RemoteKartInfo {
	if slot < 0 || slot >= len(r.karts) {
		return nil
	}
	return &r.karts[slot]
}

func (r *fakeRaces) ConfigRemoteKarts(players []engine.RemoteKartInfo, local int) {
	r.karts = append([]engine.RemoteKartInfo(nil), players...)
	r.localCount = local
}

func (r *fakeRaces) AddLiveJoiningKart(slot int, _ engine.RemoteKartInfo, until uint32) {
	if r.liveJoining == nil {
		r.liveJoining = make(map[int]uint32)
	}
	r.liveJoining[slot] = until
}

func (r *fakeRaces) LoadWorld(*engine.GameSetup) error {
	r.loads++
	w := &fakeWorld{}
	me := r.host.MyHostID()
	for _, k := range r.karts {
		w.karts = append(w.karts, &fakeKart{local: k.HostID == me, name: k.PlayerName, visible: true})
		w.teams = append(w.teams, k.Team)
	}
	r.world = w
	return nil
}

func (r *fakeRaces) ExitRace() {
	r.exits++
	r.world = nil
}

type fakeItems struct {
	seed        uint32
	powerupSeed uint64
	restores    int
}

func (i *fakeItems) UpdateRandomSeed(seed uint32) { i.seed = seed }
func (i *fakeItems) SetPowerupSeed(seed uint64)   { i.powerupSeed = seed }
func (i *fakeItems) RestoreCompleteState(r *wire.Reader) error {
	i.restores++
	return skipBlock(r)
}

type fakeProtocols struct {
	running bool
	stopped bool
	stops   int
}

func (p *fakeProtocols) Running() bool { return p.running }
func (p *fakeProtocols) Stopped() bool { return p.stopped }
func (p *fakeProtocols) Stop() {
	p.stops++
	p.running = false
	p.stopped = true
}

type note struct {
	kind MessageKind
	text string
}

type fakeUI struct {
	notes        []note
	players      []engine.LobbyPlayer
	serverInfo   []string
	configurable bool
	kartScreen   []string
	trackScreen  []string
	votes        []engine.HostVote
	winner       uint32
	dismissed    int
	results      int
	backToLobby  int
}

func (u *fakeUI) Notify(kind MessageKind, text string)      { u.notes = append(u.notes, note{kind, text}) }
func (u *fakeUI) DismissDialogs()                           { u.dismissed++ }
func (u *fakeUI) UpdatePlayers(p []engine.LobbyPlayer)      { u.players = p }
func (u *fakeUI) AddServerInfo(text string)                 { u.serverInfo = append(u.serverInfo, text) }
func (u *fakeUI) ToggleServerConfig(enabled bool)           { u.configurable = enabled }
func (u *fakeUI) ShowKartSelection(karts []string, _ bool)  { u.kartScreen = karts }
func (u *fakeUI) ShowTrackSelection(tracks []string)        { u.trackScreen = tracks }
func (u *fakeUI) UpdateVotes(v []engine.HostVote)           { u.votes = v }
func (u *fakeUI) SetVoteResult(w uint32, _ engine.PeerVote) { u.winner = w }
func (u *fakeUI) ShowRaceResult()                           { u.results++ }
func (u *fakeUI) BackToLobby()                              { u.backToLobby++ }

func (u *fakeUI) texts() []string {
	out := make([]string, 0, len(u.notes))
	for _, n := range u.notes {
		out = append(out, n.text)
	}
	return out
}

type mockJournal struct{ mock.Mock }

func (j *mockJournal) SessionAccepted(hostID, serverVersion uint32) {
	j.Called(hostID, serverVersion)
}

func (j *mockJournal) RaceFinished(res engine.RaceResult) {
	j.Called(res)
}
