package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecollab-backend/internal/coordinator"
	"codecollab-backend/internal/event"
	"codecollab-backend/internal/hub"
	"codecollab-backend/internal/store"
)

// WSHandler owns the realtime endpoint: one goroutine per connection running
// the read loop, with all room state delegated to the coordinator.
type WSHandler struct {
	coord *coordinator.Coordinator
	log   *zap.SugaredLogger
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(coord *coordinator.Coordinator, log *zap.SugaredLogger) *WSHandler {
	return &WSHandler{coord: coord, log: log}
}

// Upgrade guards the websocket route; non-upgrade requests get 426.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("connectionId", uuid.New().String())
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve runs the connection's read loop until the peer goes away.
func (h *WSHandler) Serve(conn *websocket.Conn) {
	connectionID, _ := conn.Locals("connectionId").(string)
	if connectionID == "" {
		connectionID = uuid.New().String()
	}

	h.log.Infof("[WS] Connection %s opened", connectionID)
	h.coord.Session(connectionID)

	defer func() {
		h.coord.Disconnect(context.Background(), connectionID)
		conn.Close()
		h.log.Infof("[WS] Connection %s closed", connectionID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(connectionID, conn, data)
	}
}

func (h *WSHandler) dispatch(connectionID string, conn *websocket.Conn, data []byte) {
	env, err := event.Decode(data)
	if err != nil {
		h.sendError(connectionID, conn, err)
		return
	}

	ctx := context.Background()

	switch env.Type {
	case event.KindJoinRoom:
		var p event.JoinRoom
		if err := env.Bind(&p); err != nil {
			h.sendError(connectionID, conn, err)
			return
		}
		err = h.coord.Join(ctx, connectionID, conn, &p)

	case event.KindCodeChange:
		var p event.CodeChange
		if err := env.Bind(&p); err != nil {
			h.sendError(connectionID, conn, err)
			return
		}
		err = h.coord.CodeChange(ctx, connectionID, &p)

	case event.KindCursorMove:
		var p event.CursorMove
		if err := env.Bind(&p); err != nil {
			h.sendError(connectionID, conn, err)
			return
		}
		err = h.coord.CursorMove(connectionID, &p)

	case event.KindStartSession:
		var p event.StartSession
		if err := env.Bind(&p); err != nil {
			h.sendError(connectionID, conn, err)
			return
		}
		err = h.coord.StartSession(ctx, connectionID, &p)

	case event.KindNewComment:
		var p event.NewComment
		if err := env.Bind(&p); err != nil {
			h.sendError(connectionID, conn, err)
			return
		}
		err = h.coord.NewComment(ctx, connectionID, &p)

	case event.KindTranslateBatch:
		var p event.TranslateBatch
		if err := env.Bind(&p); err != nil {
			h.sendTranslateError(connectionID, conn, err)
			return
		}
		if err := h.coord.TranslateBatch(ctx, connectionID, &p); err != nil {
			h.sendTranslateError(connectionID, conn, err)
		}
		return
	}

	if err != nil {
		h.sendError(connectionID, conn, err)
	}
}

// sendTranslateError reports a failed explicit translation request on its
// own event so the UI can keep translation errors out of the generic error
// surface.
func (h *WSHandler) sendTranslateError(connectionID string, conn *websocket.Conn, err error) {
	msg := "translation request failed"
	if errors.Is(err, event.ErrInvalidRequest) {
		msg = err.Error()
	} else {
		h.log.Errorf("[WS] Connection %s translate request: %v", connectionID, err)
	}
	h.writeFrame(connectionID, conn, event.KindTranslateError, event.TranslateError{Error: msg})
}

// sendError reports a failure to the offending connection only. The error
// text stays client-safe: infrastructure details are logged, not sent.
func (h *WSHandler) sendError(connectionID string, conn *websocket.Conn, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, event.ErrInvalidRequest),
		errors.Is(err, store.ErrRoomNotFound),
		errors.Is(err, coordinator.ErrNotJoined),
		errors.Is(err, coordinator.ErrNotCreator):
		msg = err.Error()
	default:
		h.log.Errorf("[WS] Connection %s: %v", connectionID, err)
	}

	h.writeFrame(connectionID, conn, event.KindError, event.Error{Message: msg})
}

func (h *WSHandler) writeFrame(connectionID string, conn *websocket.Conn, kind event.Kind, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, err := json.Marshal(event.Envelope{Type: kind, Payload: raw})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(hub.TextMessage, frame); err != nil {
		h.log.Warnf("[WS] %s frame to %s failed: %v", kind, connectionID, err)
	}
}
