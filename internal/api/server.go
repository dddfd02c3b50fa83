package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"listaris/internal/session"
)

const MessageState = "state"

type Server struct {
	log  *slog.Logger
	game *session.Session
	hub  *Hub
	mux  *chi.Mux
}

// mutationResult is the answer to every POST: whether the game accepted the
// action and the state afterwards.
type mutationResult struct {
	Accepted bool           `json:"accepted"`
	Click    *session.Click `json:"click,omitempty"`
	Gain     int64          `json:"gain,omitempty"`
	State    session.View   `json:"state"`
}

func New(logger *slog.Logger, sess *session.Session, hub *Hub) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	s := &Server{
		log:  logger,
		game: sess,
		hub:  hub,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		// websocket connections outlive the request timeout
		r.Get("/ws", s.hub.serveWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/state", s.handleState)
			r.Get("/catalog", s.handleCatalog)
			r.Get("/achievements", s.handleAchievements)
			r.Post("/click", s.handleClick)
			r.Post("/buildings/{id}/buy", s.handleBuyBuilding)
			r.Post("/upgrades/{id}/buy", s.handleBuyUpgrade)
			r.Post("/boost", s.handleBoost)
			r.Post("/prestige", s.handlePrestige)
			r.Post("/reset", s.handleReset)
		})
	})
}

// Heartbeat publishes the current view every interval until ctx is done.
func (s *Server) Heartbeat(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishState(ctx, s.game.View())
		}
	}
}

func (s *Server) publishState(ctx context.Context, v session.View) {
	err := s.hub.Publish(ctx, Message{Type: MessageState, Payload: v, Sender: v.SessionID})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("publish state failed", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.View())
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Catalog())
}

func (s *Server) handleAchievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"achievements": s.game.View().Achievements})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	click, ok := s.game.Click()
	out := mutationResult{Accepted: ok}
	if ok {
		out.Click = &click
	}
	s.respond(w, r, out)
}

func (s *Server) handleBuyBuilding(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	ok, err := s.game.BuyBuilding(id)
	if err != nil {
		s.writeUnknown(w, id, err)
		return
	}
	s.respond(w, r, mutationResult{Accepted: ok})
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	ok, err := s.game.BuyUpgrade(id)
	if err != nil {
		s.writeUnknown(w, id, err)
		return
	}
	s.respond(w, r, mutationResult{Accepted: ok})
}

func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, mutationResult{Accepted: s.game.ActivateBoost()})
}

func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	gain, ok := s.game.Prestige()
	s.respond(w, r, mutationResult{Accepted: ok, Gain: gain})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !in.Confirm {
		writeError(w, http.StatusBadRequest, "reset wipes all progress; send {\"confirm\": true}")
		return
	}
	s.game.Reset()
	s.respond(w, r, mutationResult{Accepted: true})
}

// respond fills in the state, answers the request and pushes accepted changes
// to websocket clients.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, out mutationResult) {
	out.State = s.game.View()
	writeJSON(w, http.StatusOK, out)
	if out.Accepted {
		s.publishState(r.Context(), out.State)
	}
}

func (s *Server) writeUnknown(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownBuilding), errors.Is(err, session.ErrUnknownUpgrade):
		body := map[string]any{"error": err.Error()}
		if hint := s.game.Catalog().Suggest(id); hint != "" {
			body["suggestion"] = hint
		}
		writeJSON(w, http.StatusNotFound, body)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
