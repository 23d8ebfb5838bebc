package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/screwyprof/racer/server/pubsub"
)

const WebsocketRoute = http.MethodGet + " " + "/ws"

// writeTimeout bounds a single frame write to a stalled client
const writeTimeout = 10 * time.Second

type Websocket struct {
	router *pubsub.Router
	log    *slog.Logger
}

func NewWebsocket(router *pubsub.Router, log *slog.Logger) *Websocket {
	return &Websocket{router: router, log: log}
}

func (h *Websocket) AddRoutes(m *http.ServeMux) {
	m.HandleFunc(WebsocketRoute, h.Connect)
}

// Connect upgrades the request and hands the connection to the router until either side closes it
func (h *Websocket) Connect(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "Websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer ws.CloseNow()

	err = h.router.Serve(r.Context(), wsConn{ws: ws})

	switch {
	case websocket.CloseStatus(err) != -1:
		h.log.DebugContext(r.Context(), "Websocket closed by client", slog.Int("status", int(websocket.CloseStatus(err))))
	case errors.Is(err, context.Canceled):
		_ = ws.Close(websocket.StatusGoingAway, "server shutdown")
	default:
		h.log.InfoContext(r.Context(), "Websocket dropped", slog.Any("error", err))
		_ = ws.Close(websocket.StatusInternalError, "connection error")
	}
}

// wsConn exchanges text frames
type wsConn struct {
	ws *websocket.Conn
}

func (c wsConn) Read(ctx context.Context) ([]byte, error) {
	_, payload, err := c.ws.Read(ctx)
	return payload, err
}

func (c wsConn) Write(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, payload)
}
