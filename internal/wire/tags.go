package wire

import "fmt"

// Tag is the first byte of every lobby message and selects its field layout.
type Tag uint8

const (
	TagNone Tag = iota
	TagConnectionRequested
	TagConnectionRefused
	TagConnectionAccepted
	TagServerInfo
	TagRequestBegin
	TagUpdatePlayerList
	TagKartSelection
	TagPlayerDisconnected
	TagClientLoadedWorld
	TagLoadWorld
	TagStartRace
	TagStartSelection
	TagRaceFinished
	TagRaceFinishedAck
	TagBackLobby
	TagVote
	TagChat
	TagServerOwnership
	TagBadTeam
	TagBadConnection
	TagLiveJoin
	TagLiveJoinAck
	TagKartInfo
	TagReportPlayer
)

var tagNames = map[Tag]string{
	TagNone:                "NONE",
	TagConnectionRequested: "CONNECTION_REQUESTED",
	TagConnectionRefused:   "CONNECTION_REFUSED",
	TagConnectionAccepted:  "CONNECTION_ACCEPTED",
	TagServerInfo:          "SERVER_INFO",
	TagRequestBegin:        "REQUEST_BEGIN",
	TagUpdatePlayerList:    "UPDATE_PLAYER_LIST",
	TagKartSelection:       "KART_SELECTION",
	TagPlayerDisconnected:  "PLAYER_DISCONNECTED",
	TagClientLoadedWorld:   "CLIENT_LOADED_WORLD",
	TagLoadWorld:           "LOAD_WORLD",
	TagStartRace:           "START_RACE",
	TagStartSelection:      "START_SELECTION",
	TagRaceFinished:        "RACE_FINISHED",
	TagRaceFinishedAck:     "RACE_FINISHED_ACK",
	TagBackLobby:           "BACK_LOBBY",
	TagVote:                "VOTE",
	TagChat:                "CHAT",
	TagServerOwnership:     "SERVER_OWNERSHIP",
	TagBadTeam:             "BAD_TEAM",
	TagBadConnection:       "BAD_CONNECTION",
	TagLiveJoin:            "LIVE_JOIN",
	TagLiveJoinAck:         "LIVE_JOIN_ACK",
	TagKartInfo:            "KART_INFO",
	TagReportPlayer:        "REPORT_PLAYER",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// StateBearing reports whether the tag can move the lobby state machine.
// Such tags must only travel on the reliable, ordered class.
func (t Tag) StateBearing() bool {
	switch t {
	case TagConnectionAccepted, TagConnectionRefused, TagStartSelection,
		TagLoadWorld, TagStartRace, TagRaceFinished, TagBackLobby, TagLiveJoinAck:
		return true
	}
	return false
}
