package lobby

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

func (c *Client) updatePlayerList(r *wire.Reader) {
	if !r.CheckSize(1) {
		return
	}
	waiting := r.Bool()
	n := int(r.Uint8())
	rows := make([]engine.LobbyPlayer, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		p := engine.LobbyPlayer{
			HostID:   r.Uint32(),
			OnlineID: r.Uint32(),
			LocalID:  r.Uint8(),
			Name:     r.DecodeString(),
		}
		flags := engine.PlayerFlags(r.Uint8())
		p.WaitingForGame = flags.Has(engine.FlagWaiting)
		p.Spectator = flags.Has(engine.FlagSpectator)
		p.Owner = flags.Has(engine.FlagOwner)
		p.Ready = flags.Has(engine.FlagReady)
		p.AI = flags.Has(engine.FlagAI)
		p.Icon = engine.IconFor(p.OnlineID, flags, waiting)
		p.Difficulty = engine.PerPlayerDifficulty(r.Uint8())
		if p.Difficulty == engine.DifficultyHandicap {
			p.Name += " (handicapped)"
		}
		p.Team = engine.KartTeam(int8(r.Uint8()))
		p.Country = r.DecodeString()
		rows = append(rows, p)
	}
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed UPDATE_PLAYER_LIST", zap.Error(err))
		return
	}

	c.waitingForGame = waiting
	if dropped := c.roster.Replace(rows); dropped > 0 {
		c.logger.Warn("duplicate roster rows dropped", zap.Int("dropped", dropped))
	}

	me := c.host.MyHostID()
	owner := false
	for _, p := range c.roster.Players() {
		if p.HostID != me {
			continue
		}
		if p.Owner {
			owner = true
		}
		if int(p.LocalID) < len(c.players) {
			c.players[p.LocalID].Handicap = p.Difficulty
		}
	}
	c.host.SetAuthorisedToControl(owner)
	c.updateAutoStart()
	c.ui.UpdatePlayers(c.roster.Players())
}

func (c *Client) disconnectedPlayer(r *wire.Reader) {
	if !r.CheckSize(1) {
		return
	}
	n := int(r.Uint8())
	hostID := r.Uint32()
	names := decodeStrings(r, n)
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed PLAYER_DISCONNECTED", zap.Error(err))
		return
	}

	c.votes.RemoveVote(hostID)
	c.roster.RemoveHost(hostID)

	// In a running race the karts show who left.
	inRace := c.races.World() != nil && c.protocols.Running()
	if !inRace {
		for _, name := range names {
			c.ui.Notify(MessageFriend, fmt.Sprintf("%s disconnected.", name))
		}
	}
	c.ui.UpdateVotes(c.votes.Votes())
	c.ui.UpdatePlayers(c.roster.Players())
}

func (c *Client) receivePlayerVote(r *wire.Reader) {
	if !r.CheckSize(4) {
		return
	}
	hostID := r.Uint32()
	vote := decodePeerVote(r)
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed VOTE", zap.Error(err))
		return
	}
	c.logger.Debug("vote from server",
		zap.Uint32("host_id", hostID), zap.String("track", vote.Track),
		zap.Uint8("laps", vote.Laps), zap.Bool("reverse", vote.Reverse))
	if !c.hasLocalTrack(vote.Track) {
		c.logger.Warn("vote for a track this client does not have", zap.String("track", vote.Track))
	}
	c.votes.AddVote(hostID, vote)
	c.ui.UpdateVotes(c.votes.Votes())
}

func (c *Client) hasLocalTrack(track string) bool {
	for _, t := range c.opts.Tracks {
		if t == track {
			return true
		}
	}
	return false
}

func (c *Client) becomingServerOwner() {
	if c.host.IsClientServer() {
		return
	}
	c.ui.Notify(MessageGeneric, "You are now the owner of server.")
}

func (c *Client) handleChat(r *wire.Reader) {
	if !c.opts.ChatEnabled {
		return
	}
	msg := r.DecodeString16()
	if msg == "" {
		return
	}
	c.logger.Info("chat", zap.String("message", msg))
	c.chat = append(c.chat, msg)
	if len(c.chat) > maxChatHistory {
		c.chat = c.chat[len(c.chat)-maxChatHistory:]
	}
	if c.State() == engine.StateConnected {
		c.ui.AddServerInfo(msg)
	} else {
		c.ui.Notify(MessageGeneric, msg)
	}
}

func (c *Client) reportSuccess(r *wire.Reader) {
	if !r.Bool() {
		return
	}
	name := r.DecodeString()
	if r.Err() != nil || name == "" {
		return
	}
	c.ui.Notify(MessageGeneric, fmt.Sprintf("Successfully reported %s.", name))
}
