package lobby

import (
	"time"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

// Host is the owner of the server connection. Every method must be safe to
// call from the network delivery context as well as the main context.
type Host interface {
	IsConnected() bool
	MyHostID() uint32
	SetMyHostID(id uint32)
	SendToServer(msg *wire.Writer, reliable bool) error
	DisconnectAllPeers()
	SetErrorMessage(msg string)
	// RequestShutdown only raises a flag; teardown happens on the main
	// context once it sees it.
	RequestShutdown()
	SetAuthorisedToControl(authorised bool)
	IsClientServer() bool
	Ping() time.Duration
}

// NetworkClock is the shared clock estimate. Times are milliseconds.
type NetworkClock interface {
	IsSynchronised() bool
	NetworkTimer() uint64
	LocalTimer() uint64
	EnableForceSetTimer()
}

type Kart interface {
	IsLocalPlayer() bool
	ControllerName() string
	HasFinishedRace() bool
	IsEliminated() bool
	FinishedRace(at float32, fromServer bool)
	SetLiveJoinKart(untilTicks uint32)
	SetVisible(visible bool)
	SetPosition(pos int)
	Reset()
}

type World interface {
	NumKarts() int
	Kart(i int) Kart
	CurrentNumKarts() int
	KartTeam(i int) engine.KartTeam
	Time() float32
	SetServerReadyPhase()
	SetLiveJoinWorld(live bool)
	EndLiveJoinWorld(untilTicks uint32)
	EliminateKart(i int)
	ResetElimination()
	EnterRaceOverState()
	RestoreCompleteState(r *wire.Reader) error
}

// Optional world capabilities. Only worlds that track laps implement them.
type (
	CheckStructureCounter interface {
		HandleServerCheckStructureCount(n uint8)
	}
	FastestLapRecorder interface {
		SetFastestLap(ticks uint32, kartName string)
	}
	PositionUpdater interface {
		UpdateRacePosition()
	}
)

type ItemManager interface {
	UpdateRandomSeed(seed uint32)
	SetPowerupSeed(seed uint64)
	RestoreCompleteState(r *wire.Reader) error
}

type RaceManager interface {
	// World is nil while no race is loaded.
	World() World
	IsBattleMode() bool
	ModeHasLaps() bool
	TeamEnabled() bool
	SupportsLiveJoining() bool
	SetDifficulty(d engine.Difficulty)
	SetMinorMode(m engine.GameMode)
	SetFlagTicks(returnTicks, deactivatedTicks uint16)
	ConfigGrandPrixResult(r *wire.Reader) error
	// KartInfo is nil for a slot outside the current race.
	KartInfo(slot int) *engine.RemoteKartInfo
	ConfigRemoteKarts(players []engine.RemoteKartInfo, localPlayers int)
	AddLiveJoiningKart(slot int, info engine.RemoteKartInfo, untilTicks uint32)
	LoadWorld(setup *engine.GameSetup) error
	// ExitRace drops the world and the active local players.
	ExitRace()
}

// RaceProtocols are the in race event and controller protocols.
type RaceProtocols interface {
	Running() bool
	Stopped() bool
	Stop()
}

type MessageKind uint8

const (
	MessageGeneric MessageKind = iota
	MessageError
	MessageFriend
)

func (k MessageKind) String() string {
	switch k {
	case MessageError:
		return "error"
	case MessageFriend:
		return "friend"
	}
	return "generic"
}

type UI interface {
	Notify(kind MessageKind, text string)
	DismissDialogs()
	UpdatePlayers(players []engine.LobbyPlayer)
	AddServerInfo(text string)
	ToggleServerConfig(enabled bool)
	ShowKartSelection(karts []string, liveJoin bool)
	ShowTrackSelection(tracks []string)
	UpdateVotes(votes []engine.HostVote)
	SetVoteResult(winner uint32, v engine.PeerVote)
	ShowRaceResult()
	BackToLobby()
}

// Journal records the session for later inspection. Calls must not block.
type Journal interface {
	SessionAccepted(hostID uint32, serverVersion uint32)
	RaceFinished(res engine.RaceResult)
}

type Encryptor interface {
	EncryptConnectionRequest(plain []byte) ([]byte, error)
}

type nopJournal struct{}

func (nopJournal) SessionAccepted(uint32, uint32) {}
func (nopJournal) RaceFinished(engine.RaceResult) {}
