// Package config reads the client settings from the environment, after
// loading an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL     string
	AutoConnect   bool
	ChatEnabled   bool
	ClientVersion uint32
	UserAgent     string
	Capabilities  []string
	Karts         []string
	Tracks        []string
	Players       []string

	OnlineID         uint32
	OnlineName       string
	OnlineSecret     string
	Password         string
	ServerEncryption bool

	VotingTimeoutWarn time.Duration
	HandshakeTimeout  time.Duration
	Tick              time.Duration
	TimeSyncInterval  time.Duration
	ChatRate          float64

	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	LogDev      bool
}

// Load reads .env when present and then the LOBBY_* variables. Malformed
// numbers and durations are errors rather than silent defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}
	cfg := Config{
		ServerURL:    e.str("LOBBY_SERVER_URL", "ws://localhost:2759/lobby"),
		AutoConnect:  e.boolean("LOBBY_AUTO_CONNECT", false),
		ChatEnabled:  e.boolean("LOBBY_CHAT", true),
		UserAgent:    e.str("LOBBY_USER_AGENT", "kart-lobby-client"),
		Capabilities: e.list("LOBBY_CAPABILITIES", "report_player,live_join"),
		Karts:        e.list("LOBBY_KARTS", "tux"),
		Tracks:       e.list("LOBBY_TRACKS", ""),
		Players:      e.list("LOBBY_PLAYERS", "Player"),
		OnlineName:   e.str("LOBBY_ONLINE_NAME", ""),
		OnlineSecret: e.str("LOBBY_ONLINE_SECRET", ""),
		Password:     e.str("LOBBY_PASSWORD", ""),
		HTTPAddr:     e.str("LOBBY_HTTP_ADDR", ":8080"),
		DatabaseURL:  e.str("LOBBY_DATABASE_URL", ""),
		LogLevel:     e.str("LOBBY_LOG_LEVEL", "info"),
		LogDev:       e.boolean("LOBBY_LOG_DEV", false),
	}
	cfg.ClientVersion = uint32(e.unsigned("LOBBY_CLIENT_VERSION", 6, 32))
	cfg.OnlineID = uint32(e.unsigned("LOBBY_ONLINE_ID", 0, 32))
	cfg.VotingTimeoutWarn = time.Duration(e.float("LOBBY_VOTING_TIMEOUT_WARN", 10) * float64(time.Second))
	cfg.HandshakeTimeout = e.duration("LOBBY_HANDSHAKE_TIMEOUT", 10*time.Second)
	cfg.Tick = e.duration("LOBBY_TICK", 50*time.Millisecond)
	cfg.TimeSyncInterval = e.duration("LOBBY_TIME_SYNC_INTERVAL", time.Second)
	cfg.ChatRate = e.float("LOBBY_CHAT_RATE", 1)
	cfg.ServerEncryption = e.boolean("LOBBY_SERVER_ENCRYPTION", false)

	if e.err != nil {
		return Config{}, e.err
	}
	if len(cfg.Players) == 0 {
		return Config{}, fmt.Errorf("config: LOBBY_PLAYERS needs at least one name")
	}
	if cfg.Tick <= 0 {
		return Config{}, fmt.Errorf("config: LOBBY_TICK must be positive")
	}
	return cfg, nil
}

// env keeps the first parse error so Load can report it once.
type env struct {
	get func(string) string
	err error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) list(key, def string) []string {
	var out []string
	for _, part := range strings.Split(e.str(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *env) boolean(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

func (e *env) unsigned(key string, def uint64, bits int) uint64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *env) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("config: %s: %w", key, err)
	}
}
