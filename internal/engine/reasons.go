package engine

import "fmt"

type RejectReason uint8

const (
	RejectBusy RejectReason = iota
	RejectBanned
	RejectIncorrectPassword
	RejectIncompatibleData
	RejectTooManyPlayers
	RejectInvalidPlayer
)

var rejectMessages = map[RejectReason]string{
	RejectBusy:              "Connection refused: Server is busy.",
	RejectBanned:            "Connection refused: You are banned from the server.",
	RejectIncorrectPassword: "Connection refused: Server password is incorrect.",
	RejectIncompatibleData:  "Connection refused: Game data is incompatible.",
	RejectTooManyPlayers:    "Connection refused: Server is full.",
	RejectInvalidPlayer:     "Connection refused: Invalid player connecting.",
}

// Message is the text shown to the user. A ban reason from the server is
// appended on its own line.
func (r RejectReason) Message(banReason string) string {
	msg, ok := rejectMessages[r]
	if !ok {
		return fmt.Sprintf("Connection refused (code %d).", uint8(r))
	}
	if r == RejectBanned && banReason != "" {
		msg += "\n" + banReason
	}
	return msg
}

type DisconnectReason uint8

const (
	DisconnectTimeout DisconnectReason = iota
	DisconnectNormal
	DisconnectKick
	DisconnectKickHighPing
)

var disconnectMessages = map[DisconnectReason]string{
	DisconnectTimeout:      "Server connection timed out.",
	DisconnectNormal:       "Server has been shut down.",
	DisconnectKick:         "You were kicked from the server.",
	DisconnectKickHighPing: "You were kicked: Ping too high.",
}

func (r DisconnectReason) Message() string {
	if msg, ok := disconnectMessages[r]; ok {
		return msg
	}
	return disconnectMessages[DisconnectNormal]
}

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectTimeout:
		return "timeout"
	case DisconnectNormal:
		return "normal"
	case DisconnectKick:
		return "kick"
	case DisconnectKickHighPing:
		return "kick_high_ping"
	}
	return fmt.Sprintf("DisconnectReason(%d)", uint8(r))
}

type BackLobbyReason uint8

const (
	BackLobbyNone BackLobbyReason = iota
	BackLobbyNoGameForLiveJoin
	BackLobbyNoPlaceForLiveJoin
	BackLobbyOnePlayerInRankedMatch
)

// Message is empty for the nominal return.
func (r BackLobbyReason) Message() string {
	switch r {
	case BackLobbyNoGameForLiveJoin:
		return "The game has ended, you can't live join or spectate anymore."
	case BackLobbyNoPlaceForLiveJoin:
		return "No remaining place in the arena - live join disabled."
	case BackLobbyOnePlayerInRankedMatch:
		return "Only 1 player remaining, returning to lobby."
	}
	return ""
}
