package types

import (
	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
)

type ChatRequest struct {
	Text string `json:"text"`
}

type VoteRequest struct {
	Track   string `json:"track"`
	Laps    uint8  `json:"laps"`
	Reverse bool   `json:"reverse,omitempty"`
}

type KartRequest struct {
	Karts []string `json:"karts"`
}

type LiveJoinRequest struct {
	Spectate bool     `json:"spectate,omitempty"`
	Karts    []string `json:"karts,omitempty"`
}

type ReportRequest struct {
	HostID uint32 `json:"host_id"`
	Info   string `json:"info"`
}

type Player struct {
	HostID    uint32 `json:"host_id"`
	OnlineID  uint32 `json:"online_id,omitempty"`
	LocalID   uint8  `json:"local_id"`
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	Team      string `json:"team,omitempty"`
	Icon      int    `json:"icon"`
	Owner     bool   `json:"owner,omitempty"`
	Ready     bool   `json:"ready,omitempty"`
	Spectator bool   `json:"spectator,omitempty"`
	Waiting   bool   `json:"waiting,omitempty"`
}

type Vote struct {
	HostID  uint32 `json:"host_id"`
	Player  string `json:"player"`
	Track   string `json:"track"`
	Laps    uint8  `json:"laps"`
	Reverse bool   `json:"reverse,omitempty"`
}

type RaceResult struct {
	Track           string `json:"track"`
	Laps            uint8  `json:"laps"`
	Reverse         bool   `json:"reverse,omitempty"`
	FastestLapTicks uint32 `json:"fastest_lap_ticks,omitempty"`
	FastestKart     string `json:"fastest_kart,omitempty"`
}

type LobbyResponse struct {
	Version      int      `json:"version"`
	State        string   `json:"state"`
	HostID       uint32   `json:"host_id"`
	ServerName   string   `json:"server_name,omitempty"`
	ServerInfo   string   `json:"server_info,omitempty"`
	Mode         string   `json:"mode"`
	Difficulty   string   `json:"difficulty"`
	Capabilities []string `json:"capabilities"`
	Authorised   bool     `json:"authorised"`
	ChatEnabled  bool     `json:"chat_enabled"`
	LiveJoinable bool     `json:"live_joinable"`

	Players        []Player `json:"players"`
	WaitingForGame bool     `json:"waiting_for_game"`
	AutoStartInMs  int64    `json:"auto_start_in_ms,omitempty"`

	Votes          []Vote   `json:"votes"`
	MostVoted      string   `json:"most_voted,omitempty"`
	VoteTie        bool     `json:"vote_tie,omitempty"`
	Karts          []string `json:"karts"`
	Tracks         []string `json:"tracks"`
	VotingEndsInMs int64    `json:"voting_ends_in_ms,omitempty"`

	Spectator    bool        `json:"spectator"`
	LastResult   *RaceResult `json:"last_result,omitempty"`
	Chat         []string    `json:"chat"`
	Synchronised bool        `json:"synchronised"`
	PingMs       int64       `json:"ping_ms"`
}

type Message struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromView(v lobby.View, authorised bool) LobbyResponse {
	resp := LobbyResponse{
		Version:        v.Version,
		State:          v.State.String(),
		HostID:         v.HostID,
		ServerName:     v.ServerName,
		ServerInfo:     v.ServerInfo,
		Mode:           v.Mode.String(),
		Difficulty:     v.Difficulty.String(),
		Capabilities:   v.Capabilities,
		Authorised:     authorised,
		ChatEnabled:    v.ChatEnabled,
		LiveJoinable:   v.LiveJoinable,
		Players:        make([]Player, 0, len(v.Players)),
		WaitingForGame: v.WaitingForGame,
		AutoStartInMs:  v.AutoStartIn.Milliseconds(),
		Votes:          make([]Vote, 0, len(v.Votes)),
		MostVoted:      v.Majority.MostVoted,
		VoteTie:        v.Majority.IsTie,
		Karts:          v.AvailableKarts,
		Tracks:         v.AvailableTracks,
		VotingEndsInMs: v.VotingEndsIn.Milliseconds(),
		Spectator:      v.Spectator,
		Chat:           v.Chat,
		Synchronised:   v.Synchronised,
		PingMs:         v.Ping.Milliseconds(),
	}
	for _, p := range v.Players {
		pl := Player{
			HostID:    p.HostID,
			OnlineID:  p.OnlineID,
			LocalID:   p.LocalID,
			Name:      p.Name,
			Country:   p.Country,
			Icon:      int(p.Icon),
			Owner:     p.Owner,
			Ready:     p.Ready,
			Spectator: p.Spectator,
			Waiting:   p.WaitingForGame,
		}
		if p.Team != engine.TeamNone {
			pl.Team = p.Team.String()
		}
		resp.Players = append(resp.Players, pl)
	}
	for _, hv := range v.Votes {
		resp.Votes = append(resp.Votes, Vote{
			HostID:  hv.HostID,
			Player:  hv.Vote.PlayerName,
			Track:   hv.Vote.Track,
			Laps:    hv.Vote.Laps,
			Reverse: hv.Vote.Reverse,
		})
	}
	if r := v.LastResult; r != nil {
		resp.LastResult = &RaceResult{
			Track:           r.Track,
			Laps:            r.Laps,
			Reverse:         r.Reverse,
			FastestLapTicks: r.FastestLapTicks,
			FastestKart:     r.FastestKart,
		}
	}
	return resp
}
