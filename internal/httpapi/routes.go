package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/messages", s.GetMessages)

	r.Route("/lobby", func(r chi.Router) {
		r.Get("/", s.GetLobby)
		r.Post("/chat", s.PostChat)
		r.Post("/vote", s.PostVote)
		r.Post("/kart", s.PostKart)
		r.Post("/begin", s.PostBegin)
		r.Post("/live-join", s.PostLiveJoin)
		r.Post("/report", s.PostReport)
		r.Post("/leave", s.PostLeave)
	})
	return r
}
