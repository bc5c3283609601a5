package api

import (
	"net/http"

	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/performance"
)

// Server bundles the HTTP handler with the WebSocket hub it depends on.
type Server struct {
	Handler http.Handler
	Hub     *WebSocketHub
}

// NewServer registers every route and wraps the mux in the middleware chain:
// security headers, then CORS, then rate limiting. The caller runs Hub.
func NewServer(cfg *config.Config, profiler *performance.Profiler) *Server {
	mux := http.NewServeMux()

	wsHandlers := NewWebSocketHandlers(cfg, profiler)
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)

	SetupChunkRoutes(mux, cfg, profiler)
	SetupConfigRoutes(mux, cfg)
	SetupSystemRoutes(mux, profiler, wsHandlers.GetHub())

	var handler http.Handler = mux
	handler = RateLimitMiddleware(cfg.RateLimit.Limit, cfg.RateLimit.Window)(handler)
	handler = CORSMiddleware(cfg.CORS.AllowedOrigins)(handler)
	handler = SecurityHeadersMiddleware(handler)

	return &Server{Handler: handler, Hub: wsHandlers.GetHub()}
}
