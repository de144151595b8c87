package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid lobby transition")

// LobbyState is the coarse client lobby state. It is stored in a single
// atomic cell by the lobby client, so it is kept to a 32 bit value.
type LobbyState uint32

const (
	StateNone LobbyState = iota
	StateLinked
	StateRequestingConnection
	StateConnected
	StateSelectingAssets
	StateRacing
	StateRaceFinished
	StateDone
	StateExiting
)

var stateNames = [...]string{
	StateNone:                 "NONE",
	StateLinked:               "LINKED",
	StateRequestingConnection: "REQUESTING_CONNECTION",
	StateConnected:            "CONNECTED",
	StateSelectingAssets:      "SELECTING_ASSETS",
	StateRacing:               "RACING",
	StateRaceFinished:         "RACE_FINISHED",
	StateDone:                 "DONE",
	StateExiting:              "EXITING",
}

func (s LobbyState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("LobbyState(%d)", uint32(s))
}

// InGame reports whether a world belongs to the current state.
func (s LobbyState) InGame() bool {
	return s == StateRacing || s == StateRaceFinished
}

type Trigger string

const (
	TrigLinked           Trigger = "Linked"
	TrigRequestSent      Trigger = "RequestSent"
	TrigAccepted         Trigger = "Accepted"
	TrigSelectionStarted Trigger = "SelectionStarted"
	TrigRaceStarted      Trigger = "RaceStarted"
	TrigRaceFinished     Trigger = "RaceFinished"
	TrigBackLobby        Trigger = "BackLobby"
	TrigLiveJoinFinished Trigger = "LiveJoinFinished"
	TrigLeave            Trigger = "Leave"
	TrigExit             Trigger = "Exit"
)

type edge struct {
	from    LobbyState
	trigger Trigger
}

var transitions = map[edge]LobbyState{
	{StateNone, TrigLinked}:                           StateLinked,
	{StateLinked, TrigRequestSent}:                    StateRequestingConnection,
	{StateRequestingConnection, TrigAccepted}:         StateConnected,
	{StateConnected, TrigSelectionStarted}:            StateSelectingAssets,
	{StateSelectingAssets, TrigRaceStarted}:           StateRacing,
	{StateRacing, TrigRaceFinished}:                   StateRaceFinished,
	{StateRacing, TrigBackLobby}:                      StateConnected,
	{StateRaceFinished, TrigBackLobby}:                StateConnected,
	{StateSelectingAssets, TrigBackLobby}:             StateConnected,
	{StateConnected, TrigBackLobby}:                   StateConnected,
	{StateConnected, TrigLiveJoinFinished}:            StateRacing,
	{StateRequestingConnection, TrigLiveJoinFinished}: StateRacing,
	{StateDone, TrigExit}:                             StateExiting,
}

// Transition returns the state reached from s on t. Leaving is allowed from
// every state before DONE; everything else must be an edge of the table.
func Transition(s LobbyState, t Trigger) (LobbyState, error) {
	if t == TrigLeave {
		if s >= StateDone {
			return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, t, s)
		}
		return StateDone, nil
	}
	next, ok := transitions[edge{s, t}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, t, s)
	}
	return next, nil
}
