package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/events"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	streamBuffer = 64
)

// Envelope is one event as written to the stream.
type Envelope struct {
	Event string     `json:"event"`
	Data  core.Event `json:"data"`
}

// EventsHandler streams bus events to websocket clients.
type EventsHandler struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates the stream handler. Only browsers on origin may
// connect; an empty origin allows any.
func NewEventsHandler(bus *events.Bus, origin string, logger *slog.Logger) *EventsHandler {
	h := &EventsHandler{bus: bus, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			got := r.Header.Get("Origin")
			return origin == "" || got == "" || got == origin
		},
	}
	return h
}

func (h *EventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.readPump(conn, cancel)

	stream := h.bus.Stream(ctx, streamBuffer)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	h.logger.Debug("event stream opened", "remote", r.RemoteAddr)
	for {
		select {
		case ev, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Envelope{Event: ev.EventName(), Data: ev}); err != nil {
				h.logger.Debug("event stream closed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump drains client frames so pongs and close messages are processed.
func (h *EventsHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
