package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
	httperrors "github.com/gokatarajesh/cloud-architect-quest/pkg/http/errors"
	ws "github.com/gokatarajesh/cloud-architect-quest/pkg/http/ws"
)

// HandleWebSocket upgrades the request and streams views of one session. The
// current view is sent on connect; later views arrive after every applied event,
// whichever connection or HTTP call sent it.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.View(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", id).Msg("websocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger.With().Str("session_id", id).Logger())
	go wsConn.WritePump()

	// Registering and queueing the initial view under the session lock keeps
	// broadcasts from slipping in ahead of it.
	err = h.svc.Attach(r.Context(), id, func(view game.View) {
		h.hub.Register(id, wsConn)
		if err := h.send(wsConn, ws.TypeView, view, ""); err != nil {
			h.logger.Warn().Err(err).Str("session_id", id).Msg("initial view not delivered")
		}
	})
	if err != nil {
		_, code := errorStatus(err)
		_ = h.sendError(wsConn, "", code, err.Error())
		wsConn.Close()
		return
	}

	ctx := context.WithoutCancel(r.Context())
	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, id, wsConn, msg)
	})

	h.hub.Unregister(id, wsConn)
}

func (h *Handler) handleMessage(ctx context.Context, id string, conn *ws.Connection, msg ws.Message) error {
	switch msg.Type {
	case ws.TypePing:
		return h.send(conn, ws.TypePong, nil, msg.RequestID)
	case ws.TypeEvent:
		return h.handleEvent(ctx, id, conn, msg)
	default:
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleEvent(ctx context.Context, id string, conn *ws.Connection, msg ws.Message) error {
	var payload ws.EventPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "invalid event payload")
	}
	ev, perr := decodeEvent(payload)
	if perr != nil {
		return h.sendError(conn, msg.RequestID, perr.code, perr.message)
	}

	// Accepted events reach this connection through the hub broadcast.
	if _, err := h.svc.Dispatch(ctx, id, ev); err != nil {
		_, code := errorStatus(err)
		return h.sendError(conn, msg.RequestID, code, err.Error())
	}
	return nil
}

func (h *Handler) send(conn *ws.Connection, typ string, payload any, requestID string) error {
	msg, err := ws.NewMessage(typ, payload, requestID)
	if err != nil {
		return err
	}
	return conn.Send(msg)
}

func (h *Handler) sendError(conn *ws.Connection, requestID, code, message string) error {
	return h.send(conn, ws.TypeError, ws.ErrorPayload{Code: code, Message: message}, requestID)
}
