package lobby

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/kart-lobby-client/internal/crypto"
	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

type failingEncryptor struct{}

type countingEncryptor struct{ calls int }

func (e *countingEncryptor) EncryptConnectionRequest(plain []byte) ([]byte, error) {
	e.calls++
	return append([]byte("sealed:"), plain...), nil
}

func (failingEncryptor) EncryptConnectionRequest([]byte) ([]byte, error) {
	return nil, errors.New("no key")
}

func sampleRequest(onlineID uint32) ConnectionRequest {
	return ConnectionRequest{
		Version:      6,
		UserAgent:    "kart-lobby-client/1.0",
		Capabilities: []string{"report_player"},
		Karts:        []string{"tux", "nolok"},
		Tracks:       []string{"lighthouse"},
		OnlineID:     onlineID,
		OnlineName:   "alice_online",
		Password:     "hunter2",
		Players: []LocalPlayer{
			{Name: "alice", Color: 0.25},
			{Name: "bob", Color: 0.75, Handicap: engine.DifficultyHandicap},
		},
	}
}

func decodeSent(t *testing.T, w *wire.Writer, expectSealed bool, decrypt func([]byte) ([]byte, error)) ConnectionRequest {
	t.Helper()
	require.Equal(t, wire.TagConnectionRequested, w.Tag())
	got, err := DecodeConnectionRequest(wire.NewReader(w.Bytes()[1:]), expectSealed, decrypt)
	require.NoError(t, err)
	return got
}

func TestConnectionRequest_Guest(t *testing.T) {
	req := sampleRequest(0)
	w, sealed := req.Encode(nil, true)
	assert.False(t, sealed)

	got := decodeSent(t, w, false, nil)
	req.OnlineName = ""
	assert.Equal(t, req, got)
}

func TestConnectionRequest_OnlineInClear(t *testing.T) {
	req := sampleRequest(42)
	w, sealed := req.Encode(nil, false)
	assert.False(t, sealed)

	got := decodeSent(t, w, false, nil)
	assert.Equal(t, req, got)
}

func TestConnectionRequest_Sealed(t *testing.T) {
	secret := []byte("session-token-from-the-account-server")
	client, err := crypto.New(secret, 42)
	require.NoError(t, err)
	server, err := crypto.New(secret, 42)
	require.NoError(t, err)

	req := sampleRequest(42)
	w, sealed := req.Encode(client, true)
	require.True(t, sealed)
	assert.NotContains(t, string(w.Bytes()), "hunter2")

	got := decodeSent(t, w, true, server.Decrypt)
	req.OnlineName = ""
	assert.Equal(t, req, got)

	_, err = DecodeConnectionRequest(wire.NewReader(w.Bytes()[1:]), true, nil)
	assert.ErrorIs(t, err, ErrMissingDecryptor)
}

func TestConnectionRequest_PlainServerIsNeverSealed(t *testing.T) {
	enc := &countingEncryptor{}
	req := sampleRequest(42)
	w, sealed := req.Encode(enc, false)
	assert.False(t, sealed)
	assert.Zero(t, enc.calls)

	got := decodeSent(t, w, false, nil)
	assert.Equal(t, req, got)
}

func TestConnectionRequest_NoEncryptorForEncryptingServer(t *testing.T) {
	req := sampleRequest(42)
	w, sealed := req.Encode(nil, true)
	assert.False(t, sealed)

	got := decodeSent(t, w, true, nil)
	req.OnlineName = ""
	assert.Equal(t, req, got)
}

func TestConnectionRequest_CapsCapabilities(t *testing.T) {
	req := sampleRequest(0)
	req.Capabilities = make([]string, maxListLen+10)
	for i := range req.Capabilities {
		req.Capabilities[i] = "c"
	}
	w, _ := req.Encode(nil, false)

	got := decodeSent(t, w, false, nil)
	assert.Len(t, got.Capabilities, maxListLen)
	assert.Equal(t, req.Karts, got.Karts)
	assert.Equal(t, req.Players, got.Players)
}

func TestConnectionRequest_SealFailureFallsBackToClear(t *testing.T) {
	req := sampleRequest(42)
	w, sealed := req.Encode(failingEncryptor{}, true)
	assert.False(t, sealed)

	got := decodeSent(t, w, true, nil)
	req.OnlineName = ""
	assert.Equal(t, req, got)
}

func TestConnectionRequest_PlayerCountMismatch(t *testing.T) {
	req := sampleRequest(0)
	w, _ := req.Encode(nil, false)
	data := append([]byte(nil), w.Bytes()[1:]...)

	// The announced count sits right before the online id and the zero
	// sealed length.
	data[len(data)-len(req.encodePrivate().Bytes())-9] = 5

	_, err := DecodeConnectionRequest(wire.NewReader(data), false, nil)
	assert.Error(t, err)
}

func TestDecodePlayers_StopsOnShortInput(t *testing.T) {
	w := wire.NewPayload().AddUint8(3).EncodeString("alice").AddUint32(1)
	r := wire.NewReader(w.Bytes())
	players := decodePlayers(r)
	assert.ErrorIs(t, r.Err(), wire.ErrShortBuffer)
	assert.Len(t, players, 1)
}
