package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
	httperrors "github.com/gokatarajesh/cloud-architect-quest/pkg/http/errors"
	ws "github.com/gokatarajesh/cloud-architect-quest/pkg/http/ws"
)

// Handler serves the session REST API and the live websocket feed.
type Handler struct {
	svc      *Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(svc *Service, hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "session_handler").Logger(),
	}
}

// Routes mounts the handler's endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/v1/scenarios", h.ListScenarios)
	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/events", h.PostEvent)
		r.Delete("/{id}", h.DeleteSession)
	})
	r.Get("/ws/sessions/{id}", h.HandleWebSocket)
}

type sessionResponse struct {
	ID   string    `json:"id"`
	View game.View `json:"view"`
}

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": h.svc.Scenarios()})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, view, err := h.svc.Create(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+id)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, View: view})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.svc.View(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, View: view})
}

func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload ws.EventPayload
	if err := readJSON(r, &payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "request body must be a JSON event")
		return
	}
	ev, perr := decodeEvent(payload)
	if perr != nil {
		httperrors.RespondValidationError(w, perr.code, perr.message, perr.field)
		return
	}

	view, err := h.svc.Dispatch(r.Context(), id, ev)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, View: view})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payloadError struct {
	code    string
	message string
	field   string
}

// decodeEvent turns a wire payload into an engine event.
func decodeEvent(p ws.EventPayload) (game.Event, *payloadError) {
	kind, ok := game.ParseEventKind(p.Event)
	if !ok {
		return game.Event{}, &payloadError{
			code:    httperrors.ErrCodeUnknownEvent,
			message: fmt.Sprintf("unknown event %q", p.Event),
			field:   "event",
		}
	}
	ev := game.Event{Kind: kind, ScenarioKey: p.ScenarioKey}
	switch kind {
	case game.EventSubmitAnswer:
		if p.Choice == nil {
			return game.Event{}, &payloadError{
				code:    httperrors.ErrCodeInvalidPayload,
				message: "submit_answer requires a choice",
				field:   "choice",
			}
		}
		ev.Choice = *p.Choice
	case game.EventChooseScenario:
		if p.ScenarioKey == "" {
			return game.Event{}, &payloadError{
				code:    httperrors.ErrCodeInvalidPayload,
				message: "choose_scenario requires a scenario_key",
				field:   "scenario_key",
			}
		}
	}
	return ev, nil
}

// errorStatus maps service and engine errors onto HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, httperrors.ErrCodeSessionNotFound
	case errors.Is(err, ErrLimit):
		return http.StatusServiceUnavailable, httperrors.ErrCodeSessionLimit
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, httperrors.ErrCodeScenarioNotFound
	case errors.Is(err, game.ErrInvalidChoice):
		return http.StatusBadRequest, httperrors.ErrCodeInvalidChoice
	case errors.Is(err, game.ErrInvalidState):
		return http.StatusConflict, httperrors.ErrCodeInvalidState
	default:
		return http.StatusInternalServerError, httperrors.ErrCodeInternalError
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		httperrors.RespondInternalError(w, "internal error")
		return
	}
	httperrors.RespondError(w, status, code, err.Error())
}
