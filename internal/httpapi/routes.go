package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/coordinator"
	"github.com/Martig3/valorant-matchbot/internal/ws"
)

// SetupRoutes serves the read-only observer API.
func SetupRoutes(svc *coordinator.Service, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/session", Session(svc, log))
	r.Get("/maps", Maps(svc))
	r.Get("/matches", Matches(svc))
	r.Get("/matches/{date}", MatchesOn(svc))
	r.Get("/ws", ws.Handler(svc.Session(), log))
	return r
}
