package engine

import "fmt"

type PerPlayerDifficulty uint8

const (
	DifficultyNormal PerPlayerDifficulty = iota
	DifficultyHandicap
)

type KartTeam int8

const (
	TeamNone KartTeam = -1
	TeamRed  KartTeam = 0
	TeamBlue KartTeam = 1
)

func (t KartTeam) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "none"
	}
}

// IconClass selects the roster icon shown next to a player.
type IconClass uint8

const (
	IconOwner IconClass = iota
	IconOnline
	IconOffline
	IconInGame
	IconReady
	IconSpectator
	IconAI
)

// PlayerFlags is the packed flag byte of a roster row.
type PlayerFlags uint8

const (
	FlagWaiting PlayerFlags = 1 << iota
	FlagSpectator
	FlagOwner
	FlagReady
	FlagAI
)

func (f PlayerFlags) Has(flag PlayerFlags) bool { return f&flag != 0 }

// IconFor derives the icon of a roster row. Later rules win: an owner that is
// ready shows the ready icon. lobbyWaiting is the snapshot level flag that a
// game is running without us.
func IconFor(onlineID uint32, flags PlayerFlags, lobbyWaiting bool) IconClass {
	icon := IconOffline
	switch {
	case flags.Has(FlagOwner):
		icon = IconOwner
	case onlineID != 0:
		icon = IconOnline
	}
	if flags.Has(FlagAI) {
		icon = IconAI
	}
	if lobbyWaiting && !flags.Has(FlagWaiting) {
		icon = IconInGame
	}
	if flags.Has(FlagSpectator) {
		icon = IconSpectator
	}
	if flags.Has(FlagReady) {
		icon = IconReady
	}
	return icon
}

// PlayerKey addresses one player. Split screen players share a host id and
// differ by local id.
type PlayerKey struct {
	HostID   uint32
	OnlineID uint32
	LocalID  uint8
}

func (k PlayerKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.HostID, k.OnlineID, k.LocalID)
}

type LobbyPlayer struct {
	HostID         uint32
	OnlineID       uint32
	LocalID        uint8
	Name           string
	Difficulty     PerPlayerDifficulty
	Team           KartTeam
	Spectator      bool
	Ready          bool
	WaitingForGame bool
	Owner          bool
	AI             bool
	Icon           IconClass
	Country        string
}

func (p LobbyPlayer) Key() PlayerKey {
	return PlayerKey{HostID: p.HostID, OnlineID: p.OnlineID, LocalID: p.LocalID}
}

// Roster is the last player list the server sent. It is only ever replaced
// as a whole or pruned by host.
type Roster struct {
	players []LobbyPlayer
}

// Replace swaps in a new snapshot. Rows repeating an earlier key are dropped
// and counted.
func (r *Roster) Replace(players []LobbyPlayer) (dropped int) {
	seen := make(map[PlayerKey]struct{}, len(players))
	next := make([]LobbyPlayer, 0, len(players))
	for _, p := range players {
		if _, dup := seen[p.Key()]; dup {
			dropped++
			continue
		}
		seen[p.Key()] = struct{}{}
		next = append(next, p)
	}
	r.players = next
	return dropped
}

// RemoveHost drops every row of hostID and reports how many went.
func (r *Roster) RemoveHost(hostID uint32) int {
	kept := r.players[:0]
	for _, p := range r.players {
		if p.HostID != hostID {
			kept = append(kept, p)
		}
	}
	n := len(r.players) - len(kept)
	r.players = kept
	return n
}

func (r *Roster) Players() []LobbyPlayer {
	out := make([]LobbyPlayer, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Roster) Len() int { return len(r.players) }

func (r *Roster) Clear() { r.players = nil }

func (r *Roster) Find(k PlayerKey) (LobbyPlayer, bool) {
	for _, p := range r.players {
		if p.Key() == k {
			return p, true
		}
	}
	return LobbyPlayer{}, false
}
