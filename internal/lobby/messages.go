package lobby

import (
	"errors"
	"fmt"
	"math"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

// maxListLen is the most names a connection request list carries.
const maxListLen = math.MaxUint16

var ErrMissingDecryptor = errors.New("connection request is encrypted but no key is available")

// LocalPlayer is one player sitting at this client.
type LocalPlayer struct {
	Name     string
	Color    float32
	Handicap engine.PerPlayerDifficulty
}

// ConnectionRequest is the first message the client sends. The password and
// the players live in a private block that is sealed when the server can
// validate the online account.
type ConnectionRequest struct {
	Version      uint32
	UserAgent    string
	Capabilities []string
	Karts        []string
	Tracks       []string
	OnlineID     uint32
	OnlineName   string
	Password     string
	Players      []LocalPlayer
}

// Encode writes the request. The private block is sealed with enc only
// when serverEncryption is set and the request carries an online id. If
// sealing fails, or no encryptor is available, the block goes out in clear
// behind a zero length without the online name, which is what such a server
// reads. The returned flag reports whether the block was sealed.
func (req ConnectionRequest) Encode(enc Encryptor, serverEncryption bool) (*wire.Writer, bool) {
	caps, karts, tracks := capList(req.Capabilities), capList(req.Karts), capList(req.Tracks)

	w := wire.NewWriter(wire.TagConnectionRequested).
		AddUint32(req.Version).
		EncodeString(req.UserAgent).
		AddUint16(uint16(len(caps)))
	for _, c := range caps {
		w.EncodeString(c)
	}
	w.AddUint16(uint16(len(karts))).AddUint16(uint16(len(tracks)))
	for _, k := range karts {
		w.EncodeString(k)
	}
	for _, t := range tracks {
		w.EncodeString(t)
	}
	w.AddUint8(uint8(len(req.Players))).AddUint32(req.OnlineID)

	private := req.encodePrivate()
	if serverEncryption && req.OnlineID != 0 {
		if enc != nil {
			sealed, err := enc.EncryptConnectionRequest(private.Bytes())
			if err == nil {
				w.AddUint32(uint32(len(sealed))).AddBytes(sealed)
				return w, true
			}
		}
		w.AddUint32(0).AddBytes(private.Bytes())
		return w, false
	}

	w.AddUint32(0)
	if req.OnlineID != 0 {
		w.EncodeString(req.OnlineName)
	}
	w.AddBytes(private.Bytes())
	return w, false
}

func (req ConnectionRequest) encodePrivate() *wire.Writer {
	p := wire.NewPayload().
		EncodeString(req.Password).
		AddUint8(uint8(len(req.Players)))
	for _, pl := range req.Players {
		p.EncodeString(pl.Name).AddFloat(pl.Color).AddUint8(uint8(pl.Handicap))
	}
	return p
}

func capList(l []string) []string {
	if len(l) > maxListLen {
		return l[:maxListLen]
	}
	return l
}

// DecodeConnectionRequest reads a request after its tag byte, the way a
// server does. expectSealed tells whether the server asked for a sealed
// block; decrypt opens it.
func DecodeConnectionRequest(r *wire.Reader, expectSealed bool, decrypt func([]byte) ([]byte, error)) (ConnectionRequest, error) {
	var req ConnectionRequest
	req.Version = r.Uint32()
	req.UserAgent = r.DecodeString()
	req.Capabilities = decodeStrings(r, int(r.Uint16()))
	nk, nt := int(r.Uint16()), int(r.Uint16())
	req.Karts = decodeStrings(r, nk)
	req.Tracks = decodeStrings(r, nt)
	playerCount := r.Uint8()
	req.OnlineID = r.Uint32()
	sealedLen := int(r.Uint32())
	if err := r.Err(); err != nil {
		return req, fmt.Errorf("decode connection request: %w", err)
	}

	private := r
	switch {
	case sealedLen > 0:
		if decrypt == nil {
			return req, ErrMissingDecryptor
		}
		plain, err := decrypt(r.Bytes(sealedLen))
		if err != nil {
			return req, fmt.Errorf("open connection request: %w", err)
		}
		private = wire.NewReader(plain)
	case req.OnlineID != 0 && !expectSealed:
		req.OnlineName = r.DecodeString()
	}

	req.Password = private.DecodeString()
	n := int(private.Uint8())
	for i := 0; i < n; i++ {
		req.Players = append(req.Players, LocalPlayer{
			Name:     private.DecodeString(),
			Color:    private.Float(),
			Handicap: engine.PerPlayerDifficulty(private.Uint8()),
		})
	}
	if err := private.Err(); err != nil {
		return req, fmt.Errorf("decode connection request players: %w", err)
	}
	if n != int(playerCount) {
		return req, fmt.Errorf("decode connection request: %d players announced, %d sent", playerCount, n)
	}
	return req, nil
}

func decodeStrings(r *wire.Reader, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		out = append(out, r.DecodeString())
	}
	return out
}

func decodePeerVote(r *wire.Reader) engine.PeerVote {
	return engine.PeerVote{
		PlayerName: r.DecodeString(),
		Track:      r.DecodeString(),
		Laps:       r.Uint8(),
		Reverse:    r.Bool(),
	}
}

func encodePeerVote(w *wire.Writer, v engine.PeerVote) {
	w.EncodeString(v.PlayerName).
		EncodeString(v.Track).
		AddUint8(v.Laps).
		AddBool(v.Reverse)
}

// decodePlayers reads the race player list of LOAD_WORLD and LIVE_JOIN_ACK.
func decodePlayers(r *wire.Reader) []engine.RemoteKartInfo {
	n := int(r.Uint8())
	players := make([]engine.RemoteKartInfo, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		p := engine.RemoteKartInfo{
			PlayerName: r.DecodeString(),
			HostID:     r.Uint32(),
			Color:      r.Float(),
			OnlineID:   r.Uint32(),
			Difficulty: engine.PerPlayerDifficulty(r.Uint8()),
			LocalID:    r.Uint8(),
			Team:       engine.KartTeam(int8(r.Uint8())),
			Country:    r.DecodeString(),
		}
		p.KartName = r.DecodeString()
		players = append(players, p)
	}
	return players
}
