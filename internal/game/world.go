package game

import (
	"sort"
	"time"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseWaitForServer
	PhaseRunning
	PhaseRaceOver
)

// World is a loaded race with no simulation. Battle and soccer worlds are
// plain Worlds; lap based modes get a LapWorld.
type World struct {
	karts     []*Kart
	teams     []engine.KartTeam
	phase     Phase
	liveJoin  bool
	startedAt time.Time
	now       func() time.Time
	state     []byte
}

func newWorld(karts []*Kart, teams []engine.KartTeam, now func() time.Time) *World {
	return &World{karts: karts, teams: teams, now: now}
}

func (w *World) NumKarts() int         { return len(w.karts) }
func (w *World) Kart(i int) lobby.Kart { return w.karts[i] }
func (w *World) GameKart(i int) *Kart  { return w.karts[i] }
func (w *World) Phase() Phase          { return w.phase }
func (w *World) IsLiveJoinWorld() bool { return w.liveJoin }

func (w *World) CurrentNumKarts() int {
	n := 0
	for _, k := range w.karts {
		if !k.eliminated {
			n++
		}
	}
	return n
}

func (w *World) KartTeam(i int) engine.KartTeam {
	if i < 0 || i >= len(w.teams) {
		return engine.TeamNone
	}
	return w.teams[i]
}

// Time is the race clock in seconds; zero until the server ready phase.
func (w *World) Time() float32 {
	if w.startedAt.IsZero() {
		return 0
	}
	return float32(w.now().Sub(w.startedAt).Seconds())
}

func (w *World) SetServerReadyPhase() {
	w.phase = PhaseWaitForServer
	w.startedAt = w.now()
}

func (w *World) SetLiveJoinWorld(live bool) { w.liveJoin = live }

// EndLiveJoinWorld puts a live joined world straight into the running
// phase.
func (w *World) EndLiveJoinWorld(uint32) {
	w.phase = PhaseRunning
	if w.startedAt.IsZero() {
		w.startedAt = w.now()
	}
}

func (w *World) EliminateKart(i int) { w.karts[i].eliminated = true }

func (w *World) ResetElimination() {
	for _, k := range w.karts {
		k.eliminated = false
	}
}

func (w *World) EnterRaceOverState() { w.phase = PhaseRaceOver }

// RestoreCompleteState reads one length prefixed state block. The headless
// world keeps the bytes without interpreting them.
func (w *World) RestoreCompleteState(r *wire.Reader) error {
	state, err := readStateBlock(r)
	if err != nil {
		return err
	}
	w.state = state
	return nil
}

// LapWorld is a world with a finish line.
type LapWorld struct {
	*World
	checks      uint8
	fastestLap  uint32
	fastestKart string
}

func (w *LapWorld) HandleServerCheckStructureCount(n uint8) { w.checks = n }

func (w *LapWorld) SetFastestLap(ticks uint32, kartName string) {
	w.fastestLap = ticks
	w.fastestKart = kartName
}

func (w *LapWorld) FastestLap() (uint32, string) { return w.fastestLap, w.fastestKart }

// UpdateRacePosition ranks finished karts by finish time ahead of the rest.
func (w *LapWorld) UpdateRacePosition() {
	order := make([]*Kart, len(w.karts))
	copy(order, w.karts)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.finished != b.finished {
			return a.finished
		}
		return a.finished && a.finishTime < b.finishTime
	})
	for i, k := range order {
		k.position = i + 1
	}
}

func readStateBlock(r *wire.Reader) ([]byte, error) {
	n := int(r.Uint16())
	b := r.Bytes(n)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}
