// Package httpapi exposes the running lobby to an out of process UI.
// Every action is executed on the hub's main context.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/game"
	"github.com/DoyleJ11/kart-lobby-client/internal/hub"
	"github.com/DoyleJ11/kart-lobby-client/internal/lobby"
	"github.com/DoyleJ11/kart-lobby-client/internal/types"
)

const requestTimeout = 2 * time.Second

// Runner is the main context. *hub.Hub implements it.
type Runner interface {
	Exec(ctx context.Context, fn func() error) error
	View(ctx context.Context) (lobby.View, error)
	Authorised() bool
}

// Actions are the user actions of the lobby client.
type Actions interface {
	SendChat(text string) error
	SendVote(track string, laps uint8, reverse bool) error
	SelectKart(karts []string) error
	RequestBegin() error
	RequestLiveJoin(spectate bool, karts []string) error
	ReportPlayer(hostID uint32, info string) error
	Leave()
}

type MessageLog interface {
	Messages() []game.Message
}

type Server struct {
	runner  Runner
	actions Actions
	log     MessageLog
	logger  *zap.Logger
}

func NewServer(r Runner, a Actions, log MessageLog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{runner: r, actions: a, log: log, logger: logger.Named("http")}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) GetLobby(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	v, err := s.runner.View(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromView(v, s.runner.Authorised()))
}

func (s *Server) GetMessages(w http.ResponseWriter, r *http.Request) {
	var msgs []game.Message
	err := s.exec(r, func() error {
		msgs = s.log.Messages()
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, types.Message{Kind: m.Kind.String(), Text: m.Text})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, r, func() error { return s.actions.SendChat(req.Text) })
}

func (s *Server) PostVote(w http.ResponseWriter, r *http.Request) {
	var req types.VoteRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, r, func() error { return s.actions.SendVote(req.Track, req.Laps, req.Reverse) })
}

func (s *Server) PostKart(w http.ResponseWriter, r *http.Request) {
	var req types.KartRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, r, func() error { return s.actions.SelectKart(req.Karts) })
}

func (s *Server) PostBegin(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, s.actions.RequestBegin)
}

func (s *Server) PostLiveJoin(w http.ResponseWriter, r *http.Request) {
	var req types.LiveJoinRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, r, func() error { return s.actions.RequestLiveJoin(req.Spectate, req.Karts) })
}

func (s *Server) PostReport(w http.ResponseWriter, r *http.Request) {
	var req types.ReportRequest
	if !decode(w, r, &req) {
		return
	}
	s.act(w, r, func() error { return s.actions.ReportPlayer(req.HostID, req.Info) })
}

func (s *Server) PostLeave(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, func() error {
		s.actions.Leave()
		return nil
	})
}

func (s *Server) act(w http.ResponseWriter, r *http.Request, fn func() error) {
	if err := s.exec(r, fn); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exec(r *http.Request, fn func() error) error {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	return s.runner.Exec(ctx, fn)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, types.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lobby.ErrNotSelecting),
		errors.Is(err, lobby.ErrNotInLobby),
		errors.Is(err, lobby.ErrLiveJoinUnavailable):
		return http.StatusConflict
	case errors.Is(err, lobby.ErrUnknownTrack),
		errors.Is(err, lobby.ErrUnknownKart),
		errors.Is(err, lobby.ErrKartCount):
		return http.StatusBadRequest
	case errors.Is(err, lobby.ErrChatDisabled),
		errors.Is(err, lobby.ErrReportDisabled),
		errors.Is(err, lobby.ErrTrackVotingDisabled):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrChatRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, hub.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "bad json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
