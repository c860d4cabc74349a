package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/internal/relay"
	"github.com/louismark-dev/listen-together/internal/ws"
)

func SetupRoutes(h *relay.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/sessions/{code}", SessionInfo(h))
	r.Get("/ws", ws.Handler(h, log))
	return r
}
