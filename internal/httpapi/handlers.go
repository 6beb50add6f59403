package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/coordinator"
	"github.com/Martig3/valorant-matchbot/internal/ledger"
	"github.com/Martig3/valorant-matchbot/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Session(svc *coordinator.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Session().State(r.Context())
		if err != nil {
			log.Warn("read session", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, types.ServerMessage{Type: types.MsgError, Error: "session unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, types.Snapshot(view.Version, view.State))
	}
}

func Maps(svc *coordinator.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Maps []string `json:"maps"`
		}{Maps: svc.Maps()})
	}
}

type matchesResponse struct {
	Matches []ledger.Match `json:"matches"`
}

func Matches(svc *coordinator.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches := svc.Matches()
		if matches == nil {
			matches = []ledger.Match{}
		}
		writeJSON(w, http.StatusOK, matchesResponse{Matches: matches})
	}
}

// MatchesOn lists the matches scheduled on the {date} URL parameter.
func MatchesOn(svc *coordinator.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")
		if _, err := time.Parse(ledger.DateLayout, date); err != nil {
			writeJSON(w, http.StatusBadRequest, types.ServerMessage{Type: types.MsgError, Error: "date must be YYYY-MM-DD"})
			return
		}
		matches := svc.MatchesOn(date)
		if matches == nil {
			matches = []ledger.Match{}
		}
		writeJSON(w, http.StatusOK, matchesResponse{Matches: matches})
	}
}
