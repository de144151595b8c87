package engine

import "math"

// ReservedHostID marks a kart slot the server keeps empty.
const ReservedHostID = math.MaxUint32

// GameSetup is the match configuration shared by vote results and server
// info. It lives for the whole lobby session and is reset between races.
type GameSetup struct {
	WinnerHostID uint32
	Race         PeerVote
	HasRace      bool

	HitCaptureLimit uint32
	TimeLimit       float32

	ExtraServerInfo  int
	SoccerGoalTarget bool
	GrandPrixCurrent uint8
	GrandPrixTotal   uint8
}

func NewGameSetup() *GameSetup {
	g := &GameSetup{}
	g.Reset()
	g.ResetExtraServerInfo()
	return g
}

// Reset clears everything decided for one race. Server info survives.
func (g *GameSetup) Reset() {
	g.WinnerHostID = 0
	g.Race = PeerVote{}
	g.HasRace = false
	g.HitCaptureLimit = 0
	g.TimeLimit = 0
}

func (g *GameSetup) SetRace(winner uint32, v PeerVote) {
	g.WinnerHostID = winner
	g.Race = v
	g.HasRace = true
}

func (g *GameSetup) SetHitCaptureTime(limit uint32, timeLimit float32) {
	g.HitCaptureLimit = limit
	g.TimeLimit = timeLimit
}

func (g *GameSetup) ResetExtraServerInfo() {
	g.ExtraServerInfo = -1
	g.SoccerGoalTarget = false
	g.GrandPrixCurrent = 0
	g.GrandPrixTotal = 0
}

func (g *GameSetup) SetSoccerGoalTarget(goals bool) {
	g.ExtraServerInfo = 1
	g.SoccerGoalTarget = goals
}

func (g *GameSetup) SetGrandPrixTrack(current, total uint8) {
	g.ExtraServerInfo = 2
	g.GrandPrixCurrent = current
	g.GrandPrixTotal = total
}

func (g *GameSetup) IsGrandPrix() bool {
	return g.ExtraServerInfo == 2 && g.GrandPrixTotal > 0
}

// GrandPrixStarted is true once at least one track of the grand prix is done.
func (g *GameSetup) GrandPrixStarted() bool {
	return g.IsGrandPrix() && g.GrandPrixCurrent != 0
}

// RemoteKartInfo describes the player behind one kart slot of a race.
type RemoteKartInfo struct {
	PlayerName         string
	HostID             uint32
	OnlineID           uint32
	LocalID            uint8
	KartName           string
	Color              float32
	Difficulty         PerPlayerDifficulty
	Team               KartTeam
	Country            string
	LiveJoinUntilTicks uint32
}

func (k RemoteKartInfo) IsReserved() bool { return k.HostID == ReservedHostID }

func (k RemoteKartInfo) Key() PlayerKey {
	return PlayerKey{HostID: k.HostID, OnlineID: k.OnlineID, LocalID: k.LocalID}
}

// RaceResult is what the server reports when a race ends.
type RaceResult struct {
	Track           string
	Laps            uint8
	Reverse         bool
	FastestLapTicks uint32
	FastestKart     string
}
