package api

import (
	"net/http"
	"strings"

	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/performance"
)

// SetupChunkRoutes registers chunk build routes.
func SetupChunkRoutes(mux *http.ServeMux, cfg *config.Config, profiler *performance.Profiler) {
	handlers := NewChunkHandlers(cfg, profiler)

	chunkHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/chunks")
		path = strings.Trim(path, "/")

		if path != "" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			respondWithError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Use POST")
			return
		}
		handlers.BuildChunk(w, r)
	})

	ninePatchHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			respondWithError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Use POST")
			return
		}
		handlers.BuildNinePatch(w, r)
	})

	mux.Handle("/api/chunks/", chunkHandler)
	mux.Handle("/api/chunks", chunkHandler)
	mux.Handle("/api/ninepatch", ninePatchHandler)
}
