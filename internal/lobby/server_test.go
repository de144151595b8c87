package lobby

import (
	"math"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
	"github.com/DoyleJ11/kart-lobby-client/internal/wire"
)

// Builders for server to client messages, in the layouts the handlers read.

func accepted(hostID uint32, caps ...string) *wire.Writer {
	w := wire.NewWriter(wire.TagConnectionAccepted).
		AddUint32(hostID).
		AddUint32(6).
		AddUint16(uint16(len(caps)))
	report := false
	for _, c := range caps {
		w.EncodeString(c)
		if c == capReportPlayer {
			report = true
		}
	}
	w.AddFloat(math.MaxFloat32).AddUint32(10).AddBool(true)
	if report {
		w.AddBool(true)
	}
	return w
}

func refused(code engine.RejectReason, reason string) *wire.Writer {
	w := wire.NewWriter(wire.TagConnectionRefused).AddUint8(uint8(code))
	if code == engine.RejectBanned {
		w.EncodeString(reason)
	}
	return w
}

func startSelection(timeout float32, karts, tracks []string) *wire.Writer {
	w := wire.NewWriter(wire.TagStartSelection).
		AddFloat(timeout).
		AddBool(false).
		AddBool(false).
		AddBool(true).
		AddUint16(uint16(len(karts))).
		AddUint16(uint16(len(tracks)))
	for _, k := range karts {
		w.EncodeString(k)
	}
	for _, t := range tracks {
		w.EncodeString(t)
	}
	return w
}

func encodePlayers(w *wire.Writer, players []engine.RemoteKartInfo) {
	w.AddUint8(uint8(len(players)))
	for _, p := range players {
		w.EncodeString(p.PlayerName).
			AddUint32(p.HostID).
			AddFloat(p.Color).
			AddUint32(p.OnlineID).
			AddUint8(uint8(p.Difficulty)).
			AddUint8(p.LocalID).
			AddUint8(uint8(p.Team)).
			EncodeString(p.Country).
			EncodeString(p.KartName)
	}
}

func loadWorld(winner uint32, vote engine.PeerVote, liveLoad bool, players []engine.RemoteKartInfo, seed uint32) *wire.Writer {
	w := wire.NewWriter(wire.TagLoadWorld).AddUint32(winner)
	encodePeerVote(w, vote)
	w.AddBool(liveLoad)
	encodePlayers(w, players)
	return w.AddUint32(seed)
}

// emptyState is a zero length state block as the fakes read them.
func emptyState(w *wire.Writer) *wire.Writer { return w.AddUint16(0) }

func startRace(start uint64, checks uint8) *wire.Writer {
	return emptyState(wire.NewWriter(wire.TagStartRace).AddUint64(start).AddUint8(checks))
}

func raceFinishedLaps(ticks uint32, kart string) *wire.Writer {
	return wire.NewWriter(wire.TagRaceFinished).AddUint32(ticks).EncodeString(kart)
}

func backLobby(reason engine.BackLobbyReason) *wire.Writer {
	return wire.NewWriter(wire.TagBackLobby).AddUint8(uint8(reason))
}

type row struct {
	host, online uint32
	local        uint8
	name         string
	flags        engine.PlayerFlags
	difficulty   engine.PerPlayerDifficulty
}

func playerList(waiting bool, rows ...row) *wire.Writer {
	w := wire.NewWriter(wire.TagUpdatePlayerList).AddBool(waiting).AddUint8(uint8(len(rows)))
	for _, r := range rows {
		w.AddUint32(r.host).
			AddUint32(r.online).
			AddUint8(r.local).
			EncodeString(r.name).
			AddUint8(uint8(r.flags)).
			AddUint8(uint8(r.difficulty)).
			AddUint8(0xff). // no team
			EncodeString("fi")
	}
	return w
}

func vote(host uint32, track string, laps uint8, reverse bool) *wire.Writer {
	w := wire.NewWriter(wire.TagVote).AddUint32(host)
	encodePeerVote(w, engine.PeerVote{PlayerName: "p", Track: track, Laps: laps, Reverse: reverse})
	return w
}

func disconnected(host uint32, names ...string) *wire.Writer {
	w := wire.NewWriter(wire.TagPlayerDisconnected).AddUint8(uint8(len(names))).AddUint32(host)
	for _, n := range names {
		w.EncodeString(n)
	}
	return w
}

func serverInfo(name string, mode engine.GameMode, motd string) *wire.Writer {
	return serverInfoAutoStart(name, mode, motd, 2, math.MaxFloat32)
}

func serverInfoAutoStart(name string, mode engine.GameMode, motd string, minPlayers uint8, timeout float32) *wire.Writer {
	return wire.NewWriter(wire.TagServerInfo).
		EncodeString(name).
		AddUint8(uint8(engine.DifficultyExpert)).
		AddUint8(8).
		AddUint8(0).
		AddUint8(uint8(mode)).
		AddUint8(0).
		AddUint8(minPlayers).
		AddFloat(timeout).
		EncodeString16(motd, 0).
		AddBool(true).
		AddBool(false)
}

func chat(text string) *wire.Writer {
	return wire.NewWriter(wire.TagChat).EncodeString16(text, 0)
}
