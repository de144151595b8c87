package game

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
)

const maxMessages = 100

type Message struct {
	Kind lobby.MessageKind
	Text string
}

// UI is the presentation layer of a client with no screen. Everything the
// lobby shows is logged and the user messages are kept for the HTTP API.
// The selection hooks let an unattended client pick karts and vote.
type UI struct {
	logger   *zap.Logger
	messages []Message
	info     []string

	OnKartSelection  func(karts []string, liveJoin bool)
	OnTrackSelection func(tracks []string)
}

func NewUI(logger *zap.Logger) *UI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UI{logger: logger.Named("ui")}
}

func (u *UI) Notify(kind lobby.MessageKind, text string) {
	u.logger.Info("message", zap.Stringer("kind", kind), zap.String("text", text))
	u.messages = append(u.messages, Message{Kind: kind, Text: text})
	if len(u.messages) > maxMessages {
		u.messages = u.messages[len(u.messages)-maxMessages:]
	}
}

// Messages returns the user messages, oldest first.
func (u *UI) Messages() []Message {
	return append([]Message(nil), u.messages...)
}

// ServerInfo returns the server summaries and lobby chat lines shown so far.
func (u *UI) ServerInfo() []string {
	return append([]string(nil), u.info...)
}

func (u *UI) DismissDialogs() {}

func (u *UI) UpdatePlayers(players []engine.LobbyPlayer) {
	u.logger.Debug("players", zap.Int("count", len(players)))
}

func (u *UI) AddServerInfo(text string) {
	u.info = append(u.info, text)
	if len(u.info) > maxMessages {
		u.info = u.info[len(u.info)-maxMessages:]
	}
	u.logger.Info("server info", zap.String("text", text))
}

func (u *UI) ToggleServerConfig(enabled bool) {
	u.logger.Debug("server config", zap.Bool("enabled", enabled))
}

func (u *UI) ShowKartSelection(karts []string, liveJoin bool) {
	u.logger.Info("kart selection", zap.Strings("karts", karts), zap.Bool("live_join", liveJoin))
	if u.OnKartSelection != nil {
		u.OnKartSelection(karts, liveJoin)
	}
}

func (u *UI) ShowTrackSelection(tracks []string) {
	u.logger.Info("track selection", zap.Strings("tracks", tracks))
	if u.OnTrackSelection != nil {
		u.OnTrackSelection(tracks)
	}
}

func (u *UI) UpdateVotes(votes []engine.HostVote) {
	u.logger.Debug("votes", zap.Int("count", len(votes)))
}

func (u *UI) SetVoteResult(winner uint32, v engine.PeerVote) {
	u.logger.Info("vote result",
		zap.Uint32("winner", winner), zap.String("track", v.Track),
		zap.Uint8("laps", v.Laps), zap.Bool("reverse", v.Reverse))
}

func (u *UI) ShowRaceResult() { u.logger.Info("race result") }
func (u *UI) BackToLobby()    { u.logger.Info("back to lobby") }
