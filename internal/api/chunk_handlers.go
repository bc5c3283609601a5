package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/earthring/ninepatch/internal/compression"
	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/imageio"
	"github.com/earthring/ninepatch/internal/ninepatch"
	"github.com/earthring/ninepatch/internal/performance"
	"github.com/earthring/ninepatch/internal/pngchunk"
	"github.com/earthring/ninepatch/internal/render"
)

const (
	maxJSONBodyBytes = 1 << 20

	// Compiled PNG resources carry the chunk big-endian.
	defaultPNGByteOrder = "big"
)

// ChunkHandlers handles chunk build HTTP requests.
type ChunkHandlers struct {
	config    *config.Config
	profiler  *performance.Profiler
	validator *validator.Validate
}

// NewChunkHandlers creates a new instance of ChunkHandlers.
func NewChunkHandlers(cfg *config.Config, profiler *performance.Profiler) *ChunkHandlers {
	return &ChunkHandlers{
		config:    cfg,
		profiler:  profiler,
		validator: validator.New(),
	}
}

// BuildChunk handles POST /api/chunks.
// Returns the raw chunk as application/octet-stream, or a compressed JSON
// envelope when the client accepts application/json.
func (h *ChunkHandlers) BuildChunk(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	chunk, order, apiErr := h.build(&req)
	if apiErr != nil {
		respondWithAPIError(w, apiErr)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		envelope, err := compression.FormatCompressedChunk(chunk, order)
		if err != nil {
			log.Printf("Error compressing chunk: %v", err)
			respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to compress chunk")
			return
		}
		respondWithJSON(w, http.StatusOK, envelope)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(chunk)))
	w.Header().Set("X-Chunk-Byte-Order", order)
	w.Header().Set("X-Chunk-X-Divisions", strconv.Itoa(int(chunk[1])))
	w.Header().Set("X-Chunk-Y-Divisions", strconv.Itoa(int(chunk[2])))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(chunk); err != nil {
		log.Printf("Error writing chunk response: %v", err)
	}
}

// build validates req and encodes its chunk. The returned order is the
// configuration name of the byte order used.
func (h *ChunkHandlers) build(req *BuildRequest) ([]byte, string, *apiError) {
	if err := h.validator.Struct(req); err != nil {
		return nil, "", validationError(err)
	}

	orderName := req.ByteOrder
	if orderName == "" {
		orderName = h.config.Chunk.ByteOrder
	}
	order, apiErr := parseOrder(orderName)
	if apiErr != nil {
		return nil, "", apiErr
	}

	b, err := ninepatch.NewBuilder(req.Width, req.Height, h.builderOptions(req.Strict)...)
	if err != nil {
		return nil, "", &apiError{Status: http.StatusBadRequest, Code: "InvalidDimensions", Message: err.Error()}
	}
	if apiErr := applyLayout(b, &req.Layout); apiErr != nil {
		return nil, "", apiErr
	}

	op := h.profiler.Start("chunk_build")
	chunk, err := b.BuildChunk(order)
	if err != nil {
		return nil, "", buildFailure(err)
	}
	op.Done(len(chunk))
	return chunk, ninepatch.ByteOrderName(order), nil
}

// BuildNinePatch handles POST /api/ninepatch.
// Expects multipart form data with an "image" file and an optional "layout"
// JSON field. Responds with a PNG carrying the chunk in an npTc chunk, or,
// when render_width and render_height are given, with the image rendered at
// that size.
func (h *ChunkHandlers) BuildNinePatch(w http.ResponseWriter, r *http.Request) {
	limit := h.config.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxJSONBodyBytes)
	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusBadRequest, "InvalidRequest", "Invalid multipart body")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "MissingImage", "Form field 'image' is required")
		return
	}
	defer file.Close()

	op := h.profiler.Start("image_decode")
	img, mime, err := imageio.Decode(file, limit, h.config.Upload.MaxInputDimension)
	if err != nil {
		if errors.Is(err, imageio.ErrUnsupportedType) {
			respondWithError(w, http.StatusUnsupportedMediaType, "UnsupportedImage", "Unsupported image type: "+mime)
			return
		}
		if errors.Is(err, imageio.ErrImageTooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "ImageTooLarge", err.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, "InvalidImage", err.Error())
		return
	}
	op.Done(0)

	layout := Layout{ByteOrder: defaultPNGByteOrder}
	if raw := r.FormValue("layout"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &layout); err != nil {
			respondWithError(w, http.StatusBadRequest, "InvalidLayout", "Invalid layout JSON")
			return
		}
		if layout.ByteOrder == "" {
			layout.ByteOrder = defaultPNGByteOrder
		}
	}

	np, apiErr := h.buildNinePatch(img, &layout)
	if apiErr != nil {
		respondWithAPIError(w, apiErr)
		return
	}

	width, height, apiErr := h.renderSize(r)
	if apiErr != nil {
		respondWithAPIError(w, apiErr)
		return
	}

	var buf bytes.Buffer
	if width > 0 {
		op := h.profiler.Start("render")
		out, err := render.Scale(np, width, height)
		if err == nil {
			err = png.Encode(&buf, out)
		}
		if err != nil {
			log.Printf("Error rendering nine-patch: %v", err)
			respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to render image")
			return
		}
		op.Done(buf.Len())
	} else {
		op := h.profiler.Start("png_embed")
		if err := pngchunk.Encode(&buf, np.Image, np.Chunk); err != nil {
			log.Printf("Error encoding nine-patch png: %v", err)
			respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to encode image")
			return
		}
		op.Done(buf.Len())
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Chunk-Byte-Order", ninepatch.ByteOrderName(np.Order))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing image response: %v", err)
	}
}

func (h *ChunkHandlers) buildNinePatch(img image.Image, layout *Layout) (*ninepatch.NinePatch, *apiError) {
	if err := h.validator.Struct(layout); err != nil {
		return nil, validationError(err)
	}
	order, apiErr := parseOrder(layout.ByteOrder)
	if apiErr != nil {
		return nil, apiErr
	}
	b, err := ninepatch.NewBuilderFromImage(img, h.builderOptions(layout.Strict)...)
	if err != nil {
		return nil, &apiError{Status: http.StatusBadRequest, Code: "InvalidDimensions", Message: err.Error()}
	}
	if apiErr := applyLayout(b, layout); apiErr != nil {
		return nil, apiErr
	}

	op := h.profiler.Start("chunk_build")
	np, err := b.BuildNinePatch(order)
	if err != nil {
		return nil, buildFailure(err)
	}
	op.Done(len(np.Chunk))
	return np, nil
}

// renderSize reads render_width and render_height. Both or neither must be
// given; zero means no rendering.
func (h *ChunkHandlers) renderSize(r *http.Request) (int, int, *apiError) {
	ws, hs := r.FormValue("render_width"), r.FormValue("render_height")
	if ws == "" && hs == "" {
		return 0, 0, nil
	}
	width, errW := strconv.Atoi(ws)
	height, errH := strconv.Atoi(hs)
	maxDim := h.config.Upload.MaxDimension
	if errW != nil || errH != nil || width <= 0 || height <= 0 || width > maxDim || height > maxDim {
		return 0, 0, &apiError{
			Status:  http.StatusBadRequest,
			Code:    "InvalidRenderSize",
			Message: "render_width and render_height must both be between 1 and " + strconv.Itoa(maxDim),
		}
	}
	return width, height, nil
}

func (h *ChunkHandlers) builderOptions(strict *bool) []ninepatch.Option {
	opts := []ninepatch.Option{ninepatch.WithStrict(h.config.Chunk.Strict)}
	if strict != nil {
		opts = append(opts, ninepatch.WithStrict(*strict))
	}
	if h.config.Logging.Debug() {
		opts = append(opts, ninepatch.WithLogger(log.Default()))
	}
	return opts
}

func applyLayout(b *ninepatch.Builder, layout *Layout) *apiError {
	if err := b.Apply(ninepatch.AxisX, layout.X...); err != nil {
		return &apiError{Status: http.StatusBadRequest, Code: "InvalidBand", Message: err.Error()}
	}
	if err := b.Apply(ninepatch.AxisY, layout.Y...); err != nil {
		return &apiError{Status: http.StatusBadRequest, Code: "InvalidBand", Message: err.Error()}
	}
	return nil
}

func parseOrder(name string) (binary.ByteOrder, *apiError) {
	order, err := ninepatch.ParseByteOrder(name)
	if err != nil {
		return nil, &apiError{Status: http.StatusBadRequest, Code: "InvalidByteOrder", Message: err.Error()}
	}
	return order, nil
}

func buildFailure(err error) *apiError {
	if errors.Is(err, ninepatch.ErrInvalidRegion) {
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "InvalidRegion", Message: err.Error()}
	}
	log.Printf("Error building chunk: %v", err)
	return &apiError{Status: http.StatusInternalServerError, Code: "InternalError", Message: "Failed to build chunk"}
}
