package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/kart-lobby-client/internal/config"
	"github.com/DoyleJ11/kart-lobby-client/internal/crypto"
	"github.com/DoyleJ11/kart-lobby-client/internal/game"
	"github.com/DoyleJ11/kart-lobby-client/internal/httpapi"
	"github.com/DoyleJ11/kart-lobby-client/internal/hub"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/logging"
	"github.com/DoyleJ11/kart-lobby-client/internal/storage"
	"github.com/DoyleJ11/kart-lobby-client/internal/timesync"
	"github.com/DoyleJ11/kart-lobby-client/internal/ws"
)

const (
	autoLaps     = 3
	chatBurst    = 3
	dialTimeout  = 10 * time.Second
	closeTimeout = 3 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sessionID := uuid.NewString()
	logger = logger.With(zap.String("session", sessionID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var journal *storage.Journal
	if cfg.DatabaseURL != "" {
		store, err := storage.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		journal = storage.NewJournal(store, sessionID, cfg.ServerURL, logger)
	}

	var enc lobby.Encryptor
	if cfg.OnlineID != 0 && cfg.OnlineSecret != "" {
		c, err := crypto.New([]byte(cfg.OnlineSecret), cfg.OnlineID)
		if err != nil {
			return err
		}
		enc = c
	}
	if cfg.ServerEncryption && enc == nil {
		logger.Warn("server expects a sealed connection request but no online secret is set")
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
	peer, err := ws.Dial(dialCtx, cfg.ServerURL, ws.Options{}, logger)
	dialCancel()
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.ServerURL, err)
	}

	clock := timesync.New(timesync.MonotonicClock(), logger)
	ui := game.NewUI(logger)
	hubOpts := hub.Options{Tick: cfg.Tick, Notifier: ui, Logger: logger}
	if journal != nil {
		hubOpts.Recorder = journal
	}
	h := hub.NewHub(peer, hubOpts)
	protocols := &game.Protocols{}
	races := game.NewRaceManager(h, protocols, logger)

	players := make([]lobby.LocalPlayer, 0, len(cfg.Players))
	for _, name := range cfg.Players {
		players = append(players, lobby.LocalPlayer{Name: name})
	}
	deps := lobby.Deps{
		Host:      h,
		Clock:     clock,
		Races:     races,
		Items:     game.NewItemManager(),
		Protocols: protocols,
		UI:        ui,
		Encryptor: enc,
		Logger:    logger,
	}
	if journal != nil {
		deps.Journal = journal
	}
	client, err := lobby.NewClient(ctx, lobby.Options{
		ClientVersion:       cfg.ClientVersion,
		UserAgent:           cfg.UserAgent,
		Capabilities:        cfg.Capabilities,
		Karts:               cfg.Karts,
		Tracks:              cfg.Tracks,
		Players:             players,
		OnlineID:            cfg.OnlineID,
		OnlineName:          cfg.OnlineName,
		Password:            cfg.Password,
		ServerEncryption:    cfg.ServerEncryption,
		AutoConnect:         cfg.AutoConnect,
		ChatEnabled:         cfg.ChatEnabled,
		BadNetworkWarnAfter: cfg.VotingTimeoutWarn,
		HandshakeTimeout:    cfg.HandshakeTimeout,
		ChatRate:            rate.Limit(cfg.ChatRate),
		ChatBurst:           chatBurst,
	}, deps)
	if err != nil {
		return err
	}
	h.Attach(client)
	races.OnLoaded = client.FinishedLoadingWorld
	if cfg.AutoConnect {
		autoplay(ui, client, cfg.Karts, len(players), logger)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRoutes(httpapi.NewServer(h, client, ui, logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return h.Run(gctx, client)
	})
	g.Go(func() error { return peer.Run(gctx, h, clock) })
	g.Go(func() error { return clock.Run(gctx, peer, cfg.TimeSyncInterval) })
	if journal != nil {
		g.Go(func() error { return journal.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), closeTimeout)
		defer scancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	if msg := h.ErrorMessage(); msg != "" {
		logger.Info("session ended", zap.String("reason", msg))
	}
	return err
}

// autoplay makes an unattended client pick its karts and vote for the
// first track the server offers.
func autoplay(ui *game.UI, c *lobby.Client, preferred []string, localPlayers int, logger *zap.Logger) {
	ui.OnTrackSelection = func(tracks []string) {
		if len(tracks) == 0 {
			return
		}
		if err := c.SendVote(tracks[0], autoLaps, false); err != nil {
			logger.Warn("auto vote", zap.Error(err))
		}
	}
	ui.OnKartSelection = func(karts []string, liveJoin bool) {
		if len(karts) == 0 || liveJoin {
			return
		}
		pick := karts[0]
		for _, k := range preferred {
			if contains(karts, k) {
				pick = k
				break
			}
		}
		choice := make([]string, localPlayers)
		for i := range choice {
			choice[i] = pick
		}
		if err := c.SelectKart(choice); err != nil {
			logger.Warn("auto kart selection", zap.Error(err))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
