package api

import (
	"net/http"

	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/imageio"
	"github.com/earthring/ninepatch/internal/ninepatch"
)

// PublicConfig is the body of GET /api/config. It tells clients which
// defaults the server applies to builds.
type PublicConfig struct {
	ByteOrder          string               `json:"byte_order"`
	Strict             bool                 `json:"strict"`
	PaletteSize        int                  `json:"palette_size"`
	MaxDivisions       int                  `json:"max_divisions"`
	BandKinds          []ninepatch.BandKind `json:"band_kinds"`
	ImageTypes         []string             `json:"image_types"`
	MaxUploadBytes     int64                `json:"max_upload_bytes"`
	MaxRenderDimension int                  `json:"max_render_dimension"`
	MaxInputDimension  int                  `json:"max_input_dimension"`
	WebSocketVersion   string               `json:"websocket_protocol"`
}

// ConfigHandlers handles configuration-related HTTP requests
type ConfigHandlers struct {
	public PublicConfig
}

// NewConfigHandlers creates a new instance of ConfigHandlers
func NewConfigHandlers(cfg *config.Config) *ConfigHandlers {
	return &ConfigHandlers{
		public: PublicConfig{
			ByteOrder:          cfg.Chunk.ByteOrder,
			Strict:             cfg.Chunk.Strict,
			PaletteSize:        ninepatch.PaletteSize,
			MaxDivisions:       ninepatch.MaxDivisions,
			BandKinds:          ninepatch.BandKinds(),
			ImageTypes:         imageio.SupportedTypes,
			MaxUploadBytes:     cfg.Upload.MaxBytes,
			MaxRenderDimension: cfg.Upload.MaxDimension,
			MaxInputDimension:  cfg.Upload.MaxInputDimension,
			WebSocketVersion:   ProtocolVersion1,
		},
	}
}

// GetConfig handles GET /api/config requests
func (h *ConfigHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Use GET")
		return
	}
	respondWithJSON(w, http.StatusOK, h.public)
}
