package lobby

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

func (c *Client) startSelection(r *wire.Reader) {
	timeout := r.Float()
	skipKart := r.Bool()
	autoGameTime := r.Bool()
	trackVoting := r.Bool()
	nk, nt := int(r.Uint16()), int(r.Uint16())
	karts := decodeStrings(r, nk)
	tracks := decodeStrings(r, nt)
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed START_SELECTION", zap.Error(err))
		return
	}
	if !c.move(engine.TrigSelectionStarted) {
		return
	}

	c.votingTimeout = timeout
	c.votingDeadline = c.localMs() + uint64(timeout*1000)
	c.skipKartScreen = skipKart
	c.serverAutoGameTime = autoGameTime
	c.trackVoting = trackVoting
	clear(c.availableKarts)
	clear(c.availableTracks)
	for _, k := range karts {
		c.availableKarts[k] = struct{}{}
	}
	for _, t := range tracks {
		c.availableTracks[t] = struct{}{}
	}

	c.ui.DismissDialogs()
	// Auto connect and grand prix continuations keep the server's karts and
	// go straight to the tracks.
	if (c.opts.AutoConnect || skipKart) && trackVoting {
		c.ui.ShowTrackSelection(sortedKeys(c.availableTracks))
	} else {
		c.ui.ShowKartSelection(sortedKeys(c.availableKarts), false)
	}
	c.votes.Clear()
	c.ui.UpdateVotes(nil)
	c.logger.Info("selection starts now",
		zap.Int("karts", len(c.availableKarts)), zap.Int("tracks", len(c.availableTracks)))
}

// addAllPlayers handles LOAD_WORLD.
func (c *Client) addAllPlayers(r *wire.Reader) {
	if c.races.World() != nil {
		c.logger.Warn("world already loaded")
		return
	}
	if s := c.State(); s != engine.StateSelectingAssets && s != engine.StateConnected {
		c.logger.Warn("LOAD_WORLD outside selection", zap.Stringer("state", s))
		return
	}
	c.ui.DismissDialogs()

	if !r.CheckSize(1) {
		c.logger.Warn("empty LOAD_WORLD, leaving")
		c.shutdown("")
		return
	}
	if !c.clock.IsSynchronised() {
		if time.Duration(c.votingTimeout*float32(time.Second)) >= c.opts.BadNetworkWarnAfter {
			c.ui.Notify(MessageError, "Bad network connection is detected.")
			c.logger.Warn("network timer not synchronised before game start")
		}
		c.clock.EnableForceSetTimer()
	}

	winner := r.Uint32()
	vote := decodePeerVote(r)
	liveLoad := r.Bool()
	players := decodePlayers(r)
	seed := r.Uint32()
	var hitCapture uint32
	var timeLimit float32
	var flagReturn, flagDeactivated uint16
	if c.races.IsBattleMode() {
		hitCapture = r.Uint32()
		timeLimit = r.Float()
		flagReturn = r.Uint16()
		flagDeactivated = r.Uint16()
	}
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed LOAD_WORLD, leaving", zap.Error(err))
		c.shutdown("")
		return
	}

	c.setup.SetRace(winner, vote)
	c.ui.SetVoteResult(winner, vote)
	c.serverLiveLoadWorld = liveLoad

	c.spectator = true
	me := c.host.MyHostID()
	for _, p := range players {
		if p.HostID == me {
			c.spectator = false
			break
		}
	}

	c.items.UpdateRandomSeed(seed)
	if c.races.IsBattleMode() {
		c.setup.SetHitCaptureTime(hitCapture, timeLimit)
		c.races.SetFlagTicks(flagReturn, flagDeactivated)
	}
	local := len(c.players)
	if c.spectator {
		local = 1
	}
	c.races.ConfigRemoteKarts(players, local)
	if err := c.races.LoadWorld(c.setup); err != nil {
		c.logger.Error("load world", zap.Error(err))
		c.shutdown("Failed to load the race.")
		return
	}

	if !c.serverLiveLoadWorld {
		return
	}
	w := c.races.World()
	if w == nil {
		return
	}
	w.SetLiveJoinWorld(true)
	for i := 0; i < w.NumKarts(); i++ {
		k := w.Kart(i)
		// The server sets the real joining tick in LIVE_JOIN_ACK.
		if k.IsLocalPlayer() {
			k.SetLiveJoinKart(math.MaxUint32)
		} else {
			k.SetVisible(false)
		}
	}
}

// startGame handles START_RACE.
func (c *Client) startGame(r *wire.Reader) {
	if c.State() != engine.StateSelectingAssets {
		c.logger.Warn("START_RACE outside selection", zap.Stringer("state", c.State()))
		return
	}
	w := c.races.World()
	if w == nil {
		c.logger.Warn("START_RACE without a world")
		return
	}
	start := r.Uint64()
	checks := r.Uint8()
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed START_RACE", zap.Error(err))
		return
	}
	w.SetServerReadyPhase()
	c.items.SetPowerupSeed(start)
	if lw, ok := w.(CheckStructureCounter); ok {
		lw.HandleServerCheckStructureCount(checks)
	}
	if err := c.items.RestoreCompleteState(r); err != nil {
		c.logger.Error("restore item state", zap.Error(err))
		c.shutdown("Failed to start the network game.")
		return
	}
	c.scheduleRaceStart(start)
}

// scheduleRaceStart arms the single start waiter. A start tick that has
// already passed cannot be honoured, so the session ends instead.
func (c *Client) scheduleRaceStart(start uint64) {
	c.waiter.Cancel()
	c.startTick = start
	now := c.clock.NetworkTimer()
	if start <= now {
		c.logger.Error("network timer is too slow to catch up",
			zap.Uint64("start", start), zap.Uint64("now", now))
		c.host.SetErrorMessage("Failed to start the network game.")
		c.host.RequestShutdown()
		return
	}
	delay := time.Duration(start-now) * time.Millisecond
	c.logger.Info("start game", zap.Duration("after", delay))
	c.waiter.Schedule(c.ctx, delay, func() {
		from := uint32(engine.StateSelectingAssets)
		if c.state.CompareAndSwap(from, uint32(engine.StateRacing)) {
			c.logger.Info("race started", zap.Uint64("network_timer", c.clock.NetworkTimer()))
		}
	})
}

func (c *Client) raceFinished(r *wire.Reader) {
	if c.State() != engine.StateRacing {
		c.logger.Warn("RACE_FINISHED outside a race", zap.Stringer("state", c.State()))
		return
	}
	c.logger.Info("server notified that the race is finished")
	w := c.races.World()

	res := engine.RaceResult{
		Track:   c.setup.Race.Track,
		Laps:    c.setup.Race.Laps,
		Reverse: c.setup.Race.Reverse,
	}
	hasLap := c.setup.IsGrandPrix() || c.races.ModeHasLaps()
	if hasLap {
		res.FastestLapTicks = r.Uint32()
		res.FastestKart = r.DecodeString()
	}
	if c.setup.IsGrandPrix() && r.Err() == nil {
		if err := c.races.ConfigGrandPrixResult(r); err != nil {
			c.logger.Warn("grand prix result", zap.Error(err))
		}
	}
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed RACE_FINISHED", zap.Error(err))
		hasLap = false
	}

	if w != nil {
		if fl, ok := w.(FastestLapRecorder); ok && hasLap {
			fl.SetFastestLap(res.FastestLapTicks, res.FastestKart)
		}
		// Karts still on track belong to players who left before the line.
		if pu, ok := w.(PositionUpdater); ok {
			pu.UpdateRacePosition()
			for i := 0; i < w.NumKarts(); i++ {
				k := w.Kart(i)
				if k.HasFinishedRace() || k.IsEliminated() {
					continue
				}
				c.ui.Notify(MessageFriend, fmt.Sprintf("%s left the game.", k.ControllerName()))
				w.EliminateKart(i)
				k.FinishedRace(w.Time(), true)
			}
		}
	}

	c.protocols.Stop()
	c.move(engine.TrigRaceFinished)
	c.lastResult = &res
	c.journal.RaceFinished(res)
}

func (c *Client) updateRaceFinished() {
	if !c.protocols.Stopped() {
		return
	}
	if !c.receivedServerResult {
		c.receivedServerResult = true
		c.autoBackToLobbyTime = c.localMs() + autoBackToLobbyDelay
		c.ui.DismissDialogs()
		if w := c.races.World(); w != nil {
			w.EnterRaceOverState()
		}
		c.ui.ShowRaceResult()
	}
	if c.opts.AutoConnect && c.autoBackToLobbyTime != noDeadline && c.localMs() > c.autoBackToLobbyTime {
		c.autoBackToLobbyTime = noDeadline
		c.DoneWithResults()
	}
}

func (c *Client) backToLobby(r *wire.Reader) {
	reason := engine.BackLobbyReason(r.Uint8())
	if r.Err() != nil {
		reason = engine.BackLobbyNone
	}
	if !c.move(engine.TrigBackLobby) {
		return
	}
	c.ui.DismissDialogs()
	c.resetSession()
	c.autoStarted = false

	c.protocols.Stop()
	c.races.ExitRace()
	c.ui.BackToLobby()

	if msg := reason.Message(); msg != "" {
		c.ui.Notify(MessageError, msg)
	}
}
