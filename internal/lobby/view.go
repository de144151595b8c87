package lobby

import (
	"time"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
)

// View is a copy of everything the presentation layer shows. Taking one
// must happen on the goroutine that drives the client.
type View struct {
	Version int
	State   engine.LobbyState

	HostID              uint32
	ServerVersion       uint32
	ServerName          string
	ServerInfo          string
	Capabilities        []string
	StateFrequency      uint32
	Difficulty          engine.Difficulty
	Mode                engine.GameMode
	MaxPlayers          uint8
	ServerConfigurable  bool
	LiveJoinable        bool
	ChatEnabled         bool
	ReportPlayerEnabled bool

	Players        []engine.LobbyPlayer
	WaitingForGame bool
	AutoStartIn    time.Duration

	Votes           []engine.HostVote
	Majority        engine.VoteResult
	AvailableKarts  []string
	AvailableTracks []string
	VotingEndsIn    time.Duration
	TrackVoting     bool

	Setup      engine.GameSetup
	Spectator  bool
	StartTick  uint64
	LastResult *engine.RaceResult
	Chat       []string

	Synchronised bool
	NetworkTimer uint64
	Ping         time.Duration
}

func (c *Client) View() View {
	now := c.localMs()
	v := View{
		Version:             c.version,
		State:               c.State(),
		HostID:              c.host.MyHostID(),
		ServerVersion:       c.serverVersion,
		ServerName:          c.serverName,
		ServerInfo:          c.serverInfo,
		Capabilities:        sortedKeys(c.capabilities),
		StateFrequency:      c.stateFrequency,
		Difficulty:          c.difficulty,
		Mode:                c.mode,
		MaxPlayers:          c.maxPlayers,
		ServerConfigurable:  c.serverConfigurable,
		LiveJoinable:        c.liveJoinable,
		ChatEnabled:         c.serverChatEnabled && c.opts.ChatEnabled,
		ReportPlayerEnabled: c.reportPlayerEnabled,
		Players:             c.roster.Players(),
		WaitingForGame:      c.waitingForGame,
		AutoStartIn:         remaining(c.autoStartDeadline, now),
		Votes:               c.votes.Votes(),
		Majority:            c.votes.Majority(),
		AvailableKarts:      sortedKeys(c.availableKarts),
		AvailableTracks:     sortedKeys(c.availableTracks),
		TrackVoting:         c.trackVoting,
		Setup:               *c.setup,
		Spectator:           c.spectator,
		StartTick:           c.startTick,
		Chat:                append([]string(nil), c.chat...),
		Synchronised:        c.clock.IsSynchronised(),
		NetworkTimer:        c.clock.NetworkTimer(),
		Ping:                c.host.Ping(),
	}
	if v.State == engine.StateSelectingAssets {
		v.VotingEndsIn = remaining(c.votingDeadline, now)
	}
	if c.lastResult != nil {
		res := *c.lastResult
		v.LastResult = &res
	}
	return v
}

func remaining(deadline, now uint64) time.Duration {
	if deadline == 0 || deadline == noDeadline || deadline <= now {
		return 0
	}
	return time.Duration(deadline-now) * time.Millisecond
}
