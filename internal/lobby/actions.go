package lobby

import (
	"errors"
	"strings"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

var (
	ErrChatDisabled        = errors.New("chat is disabled on this server")
	ErrChatRateLimited     = errors.New("too many chat messages")
	ErrNotSelecting        = errors.New("kart and track selection is not open")
	ErrTrackVotingDisabled = errors.New("track voting is disabled on this server")
	ErrUnknownTrack        = errors.New("track is not available on this server")
	ErrUnknownKart         = errors.New("kart is not available on this server")
	ErrKartCount           = errors.New("one kart per local player is required")
	ErrLiveJoinUnavailable = errors.New("live join is not available")
	ErrReportDisabled      = errors.New("player reports are disabled on this server")
	ErrNotInLobby          = errors.New("not connected to a lobby")
)

const maxChatLen = 1000

// SendChat sends text prefixed with the local player's name. Blank text is
// dropped silently.
func (c *Client) SendChat(text string) error {
	text = strings.TrimSpace(strings.NewReplacer("\n", "", "\r", "").Replace(text))
	if text == "" {
		return nil
	}
	if !c.serverChatEnabled {
		return ErrChatDisabled
	}
	if !c.chatLimit.Allow() {
		return ErrChatRateLimited
	}
	w := wire.NewWriter(wire.TagChat).EncodeString16(c.chatName()+": "+text, maxChatLen)
	c.send(w, true)
	return nil
}

func (c *Client) chatName() string {
	if c.opts.OnlineID != 0 && c.opts.OnlineName != "" {
		return c.opts.OnlineName
	}
	if len(c.players) > 0 {
		return c.players[0].Name
	}
	return "Player"
}

func (c *Client) SendVote(track string, laps uint8, reverse bool) error {
	if c.State() != engine.StateSelectingAssets {
		return ErrNotSelecting
	}
	if !c.trackVoting {
		return ErrTrackVotingDisabled
	}
	if _, ok := c.availableTracks[track]; !ok {
		return ErrUnknownTrack
	}
	w := wire.NewWriter(wire.TagVote)
	encodePeerVote(w, engine.PeerVote{
		PlayerName: c.chatName(),
		Track:      track,
		Laps:       laps,
		Reverse:    reverse,
	})
	c.send(w, true)
	return nil
}

// SelectKart sends one kart per local player, in player order.
func (c *Client) SelectKart(karts []string) error {
	if c.State() != engine.StateSelectingAssets {
		return ErrNotSelecting
	}
	if len(karts) != len(c.players) {
		return ErrKartCount
	}
	w := wire.NewWriter(wire.TagKartSelection).AddUint8(uint8(len(karts)))
	for _, k := range karts {
		if _, ok := c.availableKarts[k]; !ok {
			return ErrUnknownKart
		}
		w.EncodeString(k)
	}
	c.send(w, true)
	return nil
}

func (c *Client) RequestKartInfo(slot uint8) {
	w := wire.NewWriter(wire.TagKartInfo).SetSynchronous(true).AddUint8(slot)
	c.send(w, true)
}

// FinishedLoadingWorld tells the server this client's karts are ready.
func (c *Client) FinishedLoadingWorld() {
	w := wire.NewWriter(wire.TagClientLoadedWorld).SetSynchronous(c.serverLiveLoadWorld)
	c.send(w, true)
}

// DoneWithResults tells the server this client left the result screen.
func (c *Client) DoneWithResults() {
	w := wire.NewWriter(wire.TagRaceFinishedAck).SetSynchronous(true)
	c.send(w, true)
}

// RequestLiveJoin asks to enter the running game, as a spectator or with one
// kart per local player.
func (c *Client) RequestLiveJoin(spectate bool, karts []string) error {
	if c.State() != engine.StateConnected || !c.liveJoinable {
		return ErrLiveJoinUnavailable
	}
	w := wire.NewWriter(wire.TagLiveJoin).SetSynchronous(true).AddBool(spectate)
	if !spectate {
		if len(karts) != len(c.players) {
			return ErrKartCount
		}
		w.AddUint8(uint8(len(karts)))
		for _, k := range karts {
			w.EncodeString(k)
		}
	}
	c.send(w, true)
	return nil
}

func (c *Client) ReportPlayer(hostID uint32, info string) error {
	if !c.reportPlayerEnabled {
		return ErrReportDisabled
	}
	w := wire.NewWriter(wire.TagReportPlayer).AddUint32(hostID).EncodeString16(info, maxChatLen)
	c.send(w, true)
	return nil
}

// RequestBegin asks the server to start the game.
func (c *Client) RequestBegin() error {
	if c.State() != engine.StateConnected {
		return ErrNotInLobby
	}
	c.send(wire.NewWriter(wire.TagRequestBegin), true)
	return nil
}

// Leave ends the session on the next Update.
func (c *Client) Leave() {
	c.move(engine.TrigLeave)
}
