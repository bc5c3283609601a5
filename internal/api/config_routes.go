package api

import (
	"net/http"

	"github.com/earthring/ninepatch/internal/config"
)

// SetupConfigRoutes registers configuration routes
func SetupConfigRoutes(mux *http.ServeMux, cfg *config.Config) {
	handlers := NewConfigHandlers(cfg)

	mux.HandleFunc("/api/config", handlers.GetConfig)
}
