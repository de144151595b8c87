// Package lobby is the client side of the multiplayer lobby protocol: it
// takes a client from a fresh server connection through voting and loading
// into a race, and back to the lobby afterwards.
package lobby

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

const (
	// noDeadline marks an unset millisecond deadline.
	noDeadline = math.MaxUint64

	autoBackToLobbyDelay = 5000
	maxChatHistory       = 50
)

var ErrMissingCollaborator = errors.New("lobby: missing collaborator")

type Options struct {
	ClientVersion uint32
	UserAgent     string
	Capabilities  []string
	Karts         []string
	Tracks        []string
	Players       []LocalPlayer
	OnlineID      uint32
	OnlineName    string
	Password      string
	// ServerEncryption is set when the server validates online accounts and
	// expects the private part of the connection request sealed.
	ServerEncryption bool

	AutoConnect bool
	ChatEnabled bool
	// BadNetworkWarnAfter is the shortest voting window after which an
	// unsynchronised clock is reported to the user.
	BadNetworkWarnAfter time.Duration
	// HandshakeTimeout bounds REQUESTING_CONNECTION. Zero waits forever.
	HandshakeTimeout time.Duration
	ChatRate         rate.Limit
	ChatBurst        int
}

// Deps are the collaborators the client drives. Journal and Encryptor are
// optional.
type Deps struct {
	Host      Host
	Clock     NetworkClock
	Races     RaceManager
	Items     ItemManager
	Protocols RaceProtocols
	UI        UI
	Journal   Journal
	Encryptor Encryptor
	Logger    *zap.Logger
}

type autoStart struct {
	enabled    bool
	minPlayers int
	timeout    float32
}

// Client is the lobby state machine. Update, NotifyEvent and the actions
// must all be called from one goroutine; NotifyEventAsynchronous and State
// may be called from any.
type Client struct {
	opts      Options
	host      Host
	clock     NetworkClock
	races     RaceManager
	items     ItemManager
	protocols RaceProtocols
	ui        UI
	journal   Journal
	encryptor Encryptor
	logger    *zap.Logger
	chatLimit *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	// state is the only field shared with the delivery context and the
	// start waiter.
	state  atomic.Uint32
	waiter startWaiter

	version int
	setup   *engine.GameSetup
	votes   *engine.VoteBook
	roster  engine.Roster
	players []LocalPlayer

	requestSentAt    uint64
	handshakeExpired bool

	serverVersion       uint32
	capabilities        map[string]struct{}
	stateFrequency      uint32
	serverChatEnabled   bool
	reportPlayerEnabled bool
	shownPlayerHint     bool

	firstConnect       bool
	serverName         string
	serverInfo         string
	difficulty         engine.Difficulty
	mode               engine.GameMode
	maxPlayers         uint8
	serverConfigurable bool
	liveJoinable       bool
	autoStart          autoStart
	autoStartDeadline  uint64

	waitingForGame bool
	autoStarted    bool

	votingTimeout      float32
	votingDeadline     uint64
	skipKartScreen     bool
	serverAutoGameTime bool
	trackVoting        bool
	availableKarts     map[string]struct{}
	availableTracks    map[string]struct{}

	spectator            bool
	serverLiveLoadWorld  bool
	startTick            uint64
	startLiveGameTime    uint64
	liveJoinUntilTicks   uint32
	autoBackToLobbyTime  uint64
	receivedServerResult bool
	lastResult           *engine.RaceResult

	chat []string
}

func NewClient(parent context.Context, opts Options, deps Deps) (*Client, error) {
	if deps.Host == nil || deps.Clock == nil || deps.Races == nil || deps.Items == nil ||
		deps.Protocols == nil || deps.UI == nil {
		return nil, ErrMissingCollaborator
	}
	if deps.Journal == nil {
		deps.Journal = nopJournal{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.ChatRate == 0 {
		opts.ChatRate = rate.Inf
	}
	if opts.ChatBurst <= 0 {
		opts.ChatBurst = 1
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		opts:              opts,
		host:              deps.Host,
		clock:             deps.Clock,
		races:             deps.Races,
		items:             deps.Items,
		protocols:         deps.Protocols,
		ui:                deps.UI,
		journal:           deps.Journal,
		encryptor:         deps.Encryptor,
		logger:            deps.Logger.Named("lobby"),
		chatLimit:         rate.NewLimiter(opts.ChatRate, opts.ChatBurst),
		ctx:               ctx,
		cancel:            cancel,
		setup:             engine.NewGameSetup(),
		votes:             engine.NewVoteBook(),
		players:           append([]LocalPlayer(nil), opts.Players...),
		capabilities:      make(map[string]struct{}),
		availableKarts:    make(map[string]struct{}),
		availableTracks:   make(map[string]struct{}),
		firstConnect:      true,
		trackVoting:       true,
		serverChatEnabled: true,
	}
	c.Setup()
	return c, nil
}

// Setup starts a new lobby session on the same client.
func (c *Client) Setup() {
	c.resetSession()
	c.requestSentAt = 0
	c.handshakeExpired = false
	c.autoStarted = false
	c.state.Store(uint32(engine.StateNone))
}

func (c *Client) resetSession() {
	c.waiter.Cancel()
	c.spectator = false
	c.serverLiveLoadWorld = false
	c.autoBackToLobbyTime = noDeadline
	c.startLiveGameTime = noDeadline
	c.startTick = 0
	c.receivedServerResult = false
	c.votes.Clear()
	c.setup.Reset()
	c.ui.UpdateVotes(nil)
}

// Close stops a pending race start. The client is not usable afterwards.
func (c *Client) Close() {
	c.waiter.Cancel()
	c.cancel()
}

func (c *Client) State() engine.LobbyState {
	return engine.LobbyState(c.state.Load())
}

// move applies trigger to the current state. The state only ever changes
// through here or through the start waiter's compare and swap.
func (c *Client) move(t engine.Trigger) bool {
	cur := c.State()
	next, err := engine.Transition(cur, t)
	if err != nil {
		c.logger.Warn("ignoring transition", zap.Error(err))
		return false
	}
	if !c.state.CompareAndSwap(uint32(cur), uint32(next)) {
		c.logger.Warn("state changed concurrently", zap.String("trigger", string(t)))
		return false
	}
	if cur != next {
		c.logger.Info("lobby state", zap.Stringer("from", cur), zap.Stringer("to", next))
	}
	return true
}

// Update runs the timer driven part of the state machine. It is called
// every tick and never blocks.
func (c *Client) Update(ticks int) {
	switch c.State() {
	case engine.StateNone:
		if !c.host.IsConnected() {
			return
		}
		if c.move(engine.TrigLinked) {
			c.sendConnectionRequest()
		}
	case engine.StateLinked:
		c.sendConnectionRequest()
	case engine.StateRaceFinished:
		c.updateRaceFinished()
	case engine.StateDone:
		if c.move(engine.TrigExit) {
			c.host.RequestShutdown()
		}
	case engine.StateRequestingConnection, engine.StateConnected:
		if c.startLiveGameTime != noDeadline && c.clock.NetworkTimer() >= c.startLiveGameTime {
			c.finishLiveJoin()
		}
		switch c.State() {
		case engine.StateRequestingConnection:
			if c.checkHandshakeTimeout() {
				return
			}
		case engine.StateConnected:
		default:
			return
		}
		// Acceptance re-arms this, so a request sent before it is repeated.
		if c.opts.AutoConnect && !c.autoStarted {
			c.autoStarted = true
			c.send(wire.NewWriter(wire.TagRequestBegin), true)
		}
	}
}

// NotifyEvent handles one synchronous message in arrival order.
func (c *Client) NotifyEvent(ev Event) bool {
	if ev.Type != EventMessage {
		return true
	}
	if len(ev.Data) == 0 {
		c.logger.Warn("empty synchronous message")
		return true
	}
	tag := wire.Tag(ev.Data[0])
	r := wire.NewReader(ev.Data[1:])
	c.logger.Info("synchronous message", zap.Stringer("tag", tag))

	switch tag {
	case wire.TagStartSelection:
		c.startSelection(r)
	case wire.TagLoadWorld:
		c.addAllPlayers(r)
	case wire.TagRaceFinished:
		c.raceFinished(r)
	case wire.TagBackLobby:
		c.backToLobby(r)
	case wire.TagUpdatePlayerList:
		c.updatePlayerList(r)
	case wire.TagChat:
		c.handleChat(r)
	case wire.TagConnectionAccepted:
		c.connectionAccepted(r)
	case wire.TagServerInfo:
		c.handleServerInfo(r)
	case wire.TagPlayerDisconnected:
		c.disconnectedPlayer(r)
	case wire.TagConnectionRefused:
		c.connectionRefused(r)
	case wire.TagVote:
		c.receivePlayerVote(r)
	case wire.TagServerOwnership:
		c.becomingServerOwner()
	case wire.TagBadTeam:
		c.ui.Notify(MessageError, "All players joined red or blue team.")
	case wire.TagBadConnection:
		c.ui.Notify(MessageError, "Bad network connection is detected.")
	case wire.TagLiveJoinAck:
		c.liveJoinAcknowledged(r)
	case wire.TagKartInfo:
		c.handleKartInfo(r)
	case wire.TagStartRace:
		c.startGame(r)
	case wire.TagReportPlayer:
		c.reportSuccess(r)
	default:
		return true
	}
	c.version++
	return true
}

// NotifyEventAsynchronous runs on the delivery context. Only disconnects are
// acted on, and only through the host: the main context tears down once it
// sees the shutdown request.
func (c *Client) NotifyEventAsynchronous(ev Event) bool {
	switch ev.Type {
	case EventMessage:
		if len(ev.Data) > 0 {
			c.logger.Info("asynchronous message", zap.Stringer("tag", wire.Tag(ev.Data[0])))
		}
	case EventDisconnected:
		c.logger.Info("disconnected from server", zap.Stringer("reason", ev.Reason))
		c.host.DisconnectAllPeers()
		c.host.SetErrorMessage(ev.Reason.Message())
		c.host.RequestShutdown()
	}
	return true
}

func (c *Client) send(w *wire.Writer, reliable bool) {
	if err := c.host.SendToServer(w, reliable); err != nil {
		c.logger.Warn("send failed", zap.Stringer("tag", w.Tag()), zap.Error(err))
	}
}

// shutdown ends the session with msg shown to the user. An empty msg keeps
// whatever message is already set.
func (c *Client) shutdown(msg string) {
	if msg != "" {
		c.host.SetErrorMessage(msg)
	}
	c.host.DisconnectAllPeers()
	c.host.RequestShutdown()
}

func (c *Client) localMs() uint64 { return c.clock.LocalTimer() }
