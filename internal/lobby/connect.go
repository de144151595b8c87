package lobby

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

const (
	capReportPlayer = "report_player"
	serverInfoRule  = "--------------------"
)

func (c *Client) sendConnectionRequest() {
	clear(c.capabilities)
	req := ConnectionRequest{
		Version:      c.opts.ClientVersion,
		UserAgent:    c.opts.UserAgent,
		Capabilities: c.opts.Capabilities,
		Karts:        c.opts.Karts,
		Tracks:       c.opts.Tracks,
		OnlineID:     c.opts.OnlineID,
		OnlineName:   c.opts.OnlineName,
		Password:     c.opts.Password,
		Players:      c.players,
	}
	w, sealed := req.Encode(c.encryptor, c.opts.ServerEncryption)
	if sealed {
		c.logger.Info("server will validate this online player", zap.Uint32("online_id", req.OnlineID))
	}
	c.send(w, true)
	c.requestSentAt = c.localMs()
	c.move(engine.TrigRequestSent)
}

// checkHandshakeTimeout reports whether the connection request has gone
// unanswered for too long, shutting down the first time it notices.
func (c *Client) checkHandshakeTimeout() bool {
	if c.opts.HandshakeTimeout <= 0 || c.handshakeExpired {
		return c.handshakeExpired
	}
	if c.localMs()-c.requestSentAt < uint64(c.opts.HandshakeTimeout.Milliseconds()) {
		return false
	}
	c.handshakeExpired = true
	c.logger.Warn("connection request unanswered", zap.Duration("timeout", c.opts.HandshakeTimeout))
	c.shutdown(engine.DisconnectTimeout.Message())
	return true
}

func (c *Client) connectionAccepted(r *wire.Reader) {
	if !r.CheckSize(8) {
		c.logger.Warn("short CONNECTION_ACCEPTED", zap.Int("size", r.Remaining()))
		return
	}
	hostID := r.Uint32()
	serverVersion := r.Uint32()
	caps := decodeStrings(r, int(r.Uint16()))
	autoStartTimer := r.Float()
	stateFrequency := r.Uint32()
	chatEnabled := r.Bool()
	reportPlayer := false
	for _, cp := range caps {
		if cp == capReportPlayer {
			reportPlayer = r.Bool()
			break
		}
	}
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed CONNECTION_ACCEPTED", zap.Error(err))
		return
	}
	if !c.move(engine.TrigAccepted) {
		return
	}
	c.logger.Info("server accepted the connection",
		zap.Uint32("host_id", hostID), zap.Uint32("server_version", serverVersion))

	if !c.shownPlayerHint {
		c.shownPlayerHint = true
		c.ui.Notify(MessageGeneric, "Press player name in the list for player management and ranking information.")
	}

	c.host.SetMyHostID(hostID)
	c.serverVersion = serverVersion
	c.autoStarted = false
	clear(c.capabilities)
	for _, cp := range caps {
		c.capabilities[cp] = struct{}{}
	}
	c.stateFrequency = stateFrequency
	if autoStartTimer != math.MaxFloat32 {
		c.autoStartDeadline = c.localMs() + uint64(autoStartTimer*1000)
	}
	c.serverChatEnabled = chatEnabled
	c.reportPlayerEnabled = reportPlayer
	c.journal.SessionAccepted(hostID, serverVersion)
}

func (c *Client) connectionRefused(r *wire.Reader) {
	if !r.CheckSize(1) {
		return
	}
	code := engine.RejectReason(r.Uint8())
	reason := ""
	if code == engine.RejectBanned {
		reason = r.DecodeString()
	}
	c.logger.Warn("server refused the connection", zap.Uint8("code", uint8(code)))
	c.shutdown(code.Message(reason))
}

func (c *Client) handleServerInfo(r *wire.Reader) {
	if !r.CheckSize(6) {
		return
	}
	name := r.DecodeString()
	difficulty := engine.Difficulty(r.Uint8())
	maxPlayers := r.Uint8()
	r.Uint8() // reserved for extra spectators
	mode := engine.GameMode(r.Uint8())
	extra := r.Uint8()
	var soccerGoals bool
	var gpCurrent, gpTotal uint8
	switch extra {
	case 1:
		soccerGoals = r.Uint8() != 0
	case 2:
		gpCurrent = r.Uint8()
		gpTotal = r.Uint8()
	}
	minPlayers := r.Uint8()
	startTimeout := r.Float()
	motd := r.DecodeString16()
	configurable := r.Bool()
	liveJoinable := r.Bool()
	if err := r.Err(); err != nil {
		c.logger.Warn("malformed SERVER_INFO", zap.Error(err))
		return
	}

	var b strings.Builder
	if !c.firstConnect {
		b.WriteString(serverInfoRule + "\n")
	}
	c.firstConnect = false
	fmt.Fprintf(&b, "Server name: %s\n", name)
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	fmt.Fprintf(&b, "Max players: %d\n", maxPlayers)
	fmt.Fprintf(&b, "Game mode: %s\n", mode)

	c.setup.ResetExtraServerInfo()
	switch extra {
	case 1:
		c.setup.SetSoccerGoalTarget(soccerGoals)
		kind := "Time limit"
		if soccerGoals {
			kind = "Goals limit"
		}
		fmt.Fprintf(&b, "Soccer game type: %s\n", kind)
	case 2:
		c.setup.SetGrandPrixTrack(gpCurrent, gpTotal)
		fmt.Fprintf(&b, "Grand prix progress: %d / %d\n", gpCurrent, gpTotal)
	}
	b.WriteString(motd)
	info := strings.TrimSuffix(b.String(), "\n")

	c.serverName = name
	c.serverInfo = info
	c.difficulty = difficulty
	c.mode = mode
	c.maxPlayers = maxPlayers
	c.serverConfigurable = configurable
	c.liveJoinable = liveJoinable
	c.races.SetDifficulty(difficulty)
	c.races.SetMinorMode(mode)

	// A zero timeout, like the unset maximum, turns auto start off.
	enabled := startTimeout != 0 && startTimeout != math.MaxFloat32
	c.autoStart = autoStart{enabled: enabled, timeout: startTimeout}
	if !c.setup.GrandPrixStarted() {
		c.autoStart.minPlayers = int(minPlayers)
	}
	c.updateAutoStart()

	c.ui.AddServerInfo(info)
	c.ui.ToggleServerConfig(configurable)
}

// updateAutoStart arms the lobby countdown once enough players are in and
// drops it when they leave or a game is running.
func (c *Client) updateAutoStart() {
	if !c.autoStart.enabled || c.waitingForGame {
		c.autoStartDeadline = 0
		return
	}
	if c.roster.Len() < c.autoStart.minPlayers || c.autoStart.minPlayers == 0 && !c.setup.GrandPrixStarted() {
		c.autoStartDeadline = 0
		return
	}
	if c.autoStartDeadline == 0 {
		c.autoStartDeadline = c.localMs() + uint64(c.autoStart.timeout*1000)
	}
}

// HasCapability reports whether the server advertised capability name.
func (c *Client) HasCapability(name string) bool {
	_, ok := c.capabilities[name]
	return ok
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
