package handler

import (
	"net/http"

	"github.com/screwyprof/racer/pkg/httpkit"
	"github.com/screwyprof/racer/server/api"
)

const HealthRoute = http.MethodGet + " " + "/healthz"

// OnlineCounter reports open websocket connections
type OnlineCounter interface {
	Online() int64
}

type Health struct {
	online OnlineCounter
}

func NewHealth(online OnlineCounter) *Health {
	return &Health{online: online}
}

func (h *Health) AddRoutes(m *http.ServeMux) {
	m.Handle(HealthRoute, httpkit.HandlerFunc(h.Health))
}

func (h *Health) Health(http.ResponseWriter, *http.Request) http.HandlerFunc {
	return httpkit.JSON(api.HealthResponse{Status: "ok", Online: h.online.Online()})
}
