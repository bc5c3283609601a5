package api

import (
	"log"
	"net/http"

	"github.com/earthring/ninepatch/internal/performance"
)

const serviceName = "ninepatch-server"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Connections int    `json:"websocket_connections"`
}

// SetupSystemRoutes registers the health and metrics routes.
func SetupSystemRoutes(mux *http.ServeMux, profiler *performance.Profiler, hub *WebSocketHub) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondWithError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Use GET")
			return
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{
			Status:      "ok",
			Service:     serviceName,
			Connections: hub.Count(),
		})
	})

	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondWithError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Use GET")
			return
		}
		report, err := profiler.JSONReport()
		if err != nil {
			log.Printf("Error generating metrics report: %v", err)
			respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to generate report")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(report); err != nil {
			log.Printf("Error writing metrics response: %v", err)
		}
	})
}
