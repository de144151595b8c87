package lobby

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

func (c *Client) liveJoinAcknowledged(r *wire.Reader) {
	w := c.races.World()
	if w == nil {
		return
	}
	seed := r.Uint64()
	checks := r.Uint8()
	start := r.Uint64()
	until := r.Uint32()
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed LIVE_JOIN_ACK", zap.Error(err))
		return
	}
	c.items.SetPowerupSeed(seed)
	if lw, ok := w.(CheckStructureCounter); ok {
		lw.HandleServerCheckStructureCount(checks)
	}
	c.startLiveGameTime = start
	c.liveJoinUntilTicks = until
	for i := 0; i < w.NumKarts(); i++ {
		if k := w.Kart(i); k.IsLocalPlayer() {
			k.SetLiveJoinKart(until)
		}
	}

	if err := c.items.RestoreCompleteState(r); err != nil {
		c.logger.Error("restore item state", zap.Error(err))
		c.shutdown("Failed to start the network game.")
		return
	}
	if err := w.RestoreCompleteState(r); err != nil {
		c.logger.Error("restore world state", zap.Error(err))
		c.shutdown("Failed to start the network game.")
		return
	}

	if !c.races.SupportsLiveJoining() || r.Remaining() == 0 {
		return
	}
	// Players may have come or gone since LOAD_WORLD.
	players := decodePlayers(r)
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed LIVE_JOIN_ACK players", zap.Error(err))
		return
	}
	w.ResetElimination()
	for i, p := range players {
		if i >= w.NumKarts() {
			break
		}
		k := w.Kart(i)
		if k.IsLocalPlayer() {
			continue
		}
		k.Reset()
		rki := c.races.KartInfo(i)
		if rki == nil {
			continue
		}
		*rki = p
		if rki.IsReserved() {
			w.EliminateKart(i)
			k.SetPosition(w.CurrentNumKarts() + 1)
			k.FinishedRace(w.Time(), true)
			continue
		}
		c.races.AddLiveJoiningKart(i, *rki, 0)
		k.SetVisible(false)
	}
}

func (c *Client) finishLiveJoin() {
	c.startLiveGameTime = noDeadline
	w := c.races.World()
	if w == nil {
		return
	}
	c.logger.Info("live join started", zap.Uint64("network_timer", c.clock.NetworkTimer()))
	w.SetLiveJoinWorld(false)
	w.EndLiveJoinWorld(c.liveJoinUntilTicks)
	for i := 0; i < w.NumKarts(); i++ {
		k := w.Kart(i)
		if !k.IsLocalPlayer() && !k.IsEliminated() {
			k.SetVisible(true)
		}
	}
	c.move(engine.TrigLiveJoinFinished)
}

func (c *Client) handleKartInfo(r *wire.Reader) {
	w := c.races.World()
	if w == nil {
		return
	}
	until := r.Uint32()
	slot := int(r.Uint8())
	info := engine.RemoteKartInfo{
		PlayerName: r.DecodeString(),
		HostID:     r.Uint32(),
		Color:      r.Float(),
		OnlineID:   r.Uint32(),
		Difficulty: engine.PerPlayerDifficulty(r.Uint8()),
		LocalID:    r.Uint8(),
		KartName:   r.DecodeString(),
		Country:    r.DecodeString(),
	}
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed KART_INFO", zap.Error(err))
		return
	}
	rki := c.races.KartInfo(slot)
	if rki == nil {
		c.logger.Warn("KART_INFO for unknown slot", zap.Int("slot", slot))
		return
	}
	info.Team = rki.Team
	info.LiveJoinUntilTicks = until
	*rki = info
	c.races.AddLiveJoiningKart(slot, info, until)

	msg := fmt.Sprintf("%s joined the game.", info.PlayerName)
	if c.races.TeamEnabled() {
		if w.KartTeam(slot) == engine.TeamRed {
			msg = fmt.Sprintf("%s joined the red team.", info.PlayerName)
		} else {
			msg = fmt.Sprintf("%s joined the blue team.", info.PlayerName)
		}
	}
	c.ui.Notify(MessageFriend, msg)
}
