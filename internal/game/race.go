package game

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

var ErrNoKarts = errors.New("game: no karts configured")

// HostIdentity tells which karts belong to this client.
type HostIdentity interface {
	MyHostID() uint32
}

// RaceManager holds the race configuration and the loaded world. All calls
// come from the main context.
type RaceManager struct {
	host      HostIdentity
	protocols *Protocols
	logger    *zap.Logger
	now       func() time.Time

	// OnLoaded runs once a world is ready, the way a loading screen
	// finishing would.
	OnLoaded func()

	difficulty      engine.Difficulty
	mode            engine.GameMode
	flagReturn      uint16
	flagDeactivated uint16
	karts           []engine.RemoteKartInfo
	localPlayers    int
	gpResults       []byte
	world           *World
	lapWorld        *LapWorld
}

func NewRaceManager(host HostIdentity, protocols *Protocols, logger *zap.Logger) *RaceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RaceManager{
		host:      host,
		protocols: protocols,
		logger:    logger.Named("race"),
		now:       time.Now,
		mode:      engine.ModeNormalRace,
	}
}

// World returns nil rather than a typed nil when no race is loaded.
func (m *RaceManager) World() lobby.World {
	switch {
	case m.lapWorld != nil:
		return m.lapWorld
	case m.world != nil:
		return m.world
	}
	return nil
}

func (m *RaceManager) Mode() engine.GameMode             { return m.mode }
func (m *RaceManager) Difficulty() engine.Difficulty     { return m.difficulty }
func (m *RaceManager) IsBattleMode() bool                { return m.mode.IsBattle() }
func (m *RaceManager) ModeHasLaps() bool                 { return m.mode.HasLaps() }
func (m *RaceManager) TeamEnabled() bool                 { return m.mode.TeamEnabled() }
func (m *RaceManager) SupportsLiveJoining() bool         { return m.mode.SupportsLiveJoining() }
func (m *RaceManager) SetDifficulty(d engine.Difficulty) { m.difficulty = d }
func (m *RaceManager) SetMinorMode(mode engine.GameMode) { m.mode = mode }

func (m *RaceManager) SetFlagTicks(returnTicks, deactivatedTicks uint16) {
	m.flagReturn = returnTicks
	m.flagDeactivated = deactivatedTicks
}

// ConfigGrandPrixResult keeps the server's grand prix standings block.
func (m *RaceManager) ConfigGrandPrixResult(r *wire.Reader) error {
	res, err := readStateBlock(r)
	if err != nil {
		return err
	}
	m.gpResults = res
	return nil
}

func (m *RaceManager) KartInfo(slot int) *engine.RemoteKartInfo {
	if slot < 0 || slot >= len(m.karts) {
		return nil
	}
	return &m.karts[slot]
}

func (m *RaceManager) ConfigRemoteKarts(players []engine.RemoteKartInfo, localPlayers int) {
	m.karts = append([]engine.RemoteKartInfo(nil), players...)
	m.localPlayers = localPlayers
}

func (m *RaceManager) AddLiveJoiningKart(slot int, info engine.RemoteKartInfo, untilTicks uint32) {
	w := m.World()
	if w == nil || slot < 0 || slot >= w.NumKarts() {
		return
	}
	k := m.world.karts[slot]
	k.name = info.PlayerName
	k.SetLiveJoinKart(untilTicks)
	m.logger.Info("live joining kart",
		zap.Int("slot", slot), zap.String("player", info.PlayerName), zap.Uint32("until", untilTicks))
}

func (m *RaceManager) LoadWorld(setup *engine.GameSetup) error {
	if len(m.karts) == 0 {
		return ErrNoKarts
	}
	me := m.host.MyHostID()
	karts := make([]*Kart, 0, len(m.karts))
	teams := make([]engine.KartTeam, 0, len(m.karts))
	for _, info := range m.karts {
		karts = append(karts, NewKart(info.PlayerName, info.HostID == me))
		teams = append(teams, info.Team)
	}
	m.world = newWorld(karts, teams, m.now)
	m.lapWorld = nil
	if m.mode.HasLaps() || setup.IsGrandPrix() {
		m.lapWorld = &LapWorld{World: m.world}
	}
	m.logger.Info("world loaded",
		zap.String("track", setup.Race.Track), zap.Uint8("laps", setup.Race.Laps),
		zap.Int("karts", len(karts)), zap.Int("local_players", m.localPlayers))

	m.protocols.Start()
	if m.OnLoaded != nil {
		m.OnLoaded()
	}
	return nil
}

func (m *RaceManager) ExitRace() {
	m.world = nil
	m.lapWorld = nil
	m.karts = nil
	m.localPlayers = 0
	m.protocols.running = false
}
