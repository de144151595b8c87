package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := fromEnv(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:2759/lobby", cfg.ServerURL)
	assert.Equal(t, uint32(6), cfg.ClientVersion)
	assert.True(t, cfg.ChatEnabled)
	assert.False(t, cfg.AutoConnect)
	assert.Equal(t, []string{"Player"}, cfg.Players)
	assert.Equal(t, []string{"report_player", "live_join"}, cfg.Capabilities)
	assert.Empty(t, cfg.Tracks)
	assert.Equal(t, 10*time.Second, cfg.VotingTimeoutWarn)
	assert.Equal(t, 50*time.Millisecond, cfg.Tick)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.ServerEncryption)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := fromEnv(lookup(map[string]string{
		"LOBBY_SERVER_URL":          "ws://race.example:9000/lobby",
		"LOBBY_AUTO_CONNECT":        "true",
		"LOBBY_PLAYERS":             " alice , bob ,",
		"LOBBY_TRACKS":              "lighthouse,hacienda",
		"LOBBY_ONLINE_ID":           "4242",
		"LOBBY_VOTING_TIMEOUT_WARN": "2.5",
		"LOBBY_TICK":                "20ms",
		"LOBBY_CHAT_RATE":           "0.5",
		"LOBBY_SERVER_ENCRYPTION":   "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "ws://race.example:9000/lobby", cfg.ServerURL)
	assert.True(t, cfg.AutoConnect)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Players)
	assert.Equal(t, []string{"lighthouse", "hacienda"}, cfg.Tracks)
	assert.Equal(t, uint32(4242), cfg.OnlineID)
	assert.Equal(t, 2500*time.Millisecond, cfg.VotingTimeoutWarn)
	assert.Equal(t, 20*time.Millisecond, cfg.Tick)
	assert.InDelta(t, 0.5, cfg.ChatRate, 1e-9)
	assert.True(t, cfg.ServerEncryption)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad bool":        {"LOBBY_CHAT": "maybe"},
		"bad encryption":  {"LOBBY_SERVER_ENCRYPTION": "sometimes"},
		"bad online id":   {"LOBBY_ONLINE_ID": "-1"},
		"online id range": {"LOBBY_ONLINE_ID": strconv.FormatUint(1<<33, 10)},
		"bad duration":    {"LOBBY_TICK": "fast"},
		"zero tick":       {"LOBBY_TICK": "0s"},
		"bad float":       {"LOBBY_CHAT_RATE": "lots"},
		"no players":      {"LOBBY_PLAYERS": " , "},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromEnv(lookup(vars))
			assert.Error(t, err)
		})
	}
}
