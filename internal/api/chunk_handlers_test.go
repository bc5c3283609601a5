package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/earthring/ninepatch/internal/compression"
	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/ninepatch"
	"github.com/earthring/ninepatch/internal/performance"
	"github.com/earthring/ninepatch/internal/pngchunk"
	"github.com/earthring/ninepatch/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Chunk:     config.ChunkConfig{ByteOrder: "little"},
		Upload:    config.UploadConfig{MaxBytes: 1 << 20, MaxDimension: 256, MaxInputDimension: 512},
		RateLimit: config.RateLimitConfig{Limit: 1000, Window: time.Minute},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Logging:   config.LoggingConfig{Level: "info"},
	}
}

func newTestServer(t *testing.T) (*testutil.HTTPTestHelper, *performance.Profiler) {
	t.Helper()
	profiler := performance.NewProfiler(true)
	server := NewServer(testConfig(), profiler)
	return testutil.NewHTTPTestHelper(server.Handler), profiler
}

func boolPtr(b bool) *bool { return &b }

func TestBuildChunk_Raw(t *testing.T) {
	helper, profiler := newTestServer(t)

	req := BuildRequest{
		Width:  90,
		Height: 60,
		Layout: Layout{
			X: []ninepatch.BandSpec{{Kind: ninepatch.BandPixels, A: 30, B: 30}},
			Y: []ninepatch.BandSpec{{Kind: ninepatch.BandCentered, A: 20}},
		},
	}
	rr := helper.MakeRequest("POST", "/api/chunks", req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Expected octet-stream, got %s", ct)
	}
	if order := rr.Header().Get("X-Chunk-Byte-Order"); order != "little" {
		t.Errorf("Expected configured byte order little, got %s", order)
	}
	if rr.Header().Get("X-Chunk-X-Divisions") != "2" || rr.Header().Get("X-Chunk-Y-Divisions") != "2" {
		t.Errorf("Expected 2/2 divisions, got %s/%s",
			rr.Header().Get("X-Chunk-X-Divisions"), rr.Header().Get("X-Chunk-Y-Divisions"))
	}

	chunk := rr.Body.Bytes()
	if len(chunk) != 84 {
		t.Fatalf("Expected 84 bytes, got %d", len(chunk))
	}
	if !bytes.Equal(chunk[:4], []byte{1, 2, 2, 9}) {
		t.Errorf("Expected header [1 2 2 9], got %v", chunk[:4])
	}
	want := []uint32{30, 60, 20, 40}
	for i, w := range want {
		if got := binary.LittleEndian.Uint32(chunk[32+4*i:]); got != w {
			t.Errorf("Word %d: expected %d, got %d", 8+i, w, got)
		}
	}

	if m, ok := profiler.GetMetric("chunk_build"); !ok || m.Count != 1 || m.Bytes != 84 {
		t.Errorf("Expected one chunk_build of 84 bytes, got %+v (found %v)", m, ok)
	}
}

func TestBuildChunk_ByteOrderOverride(t *testing.T) {
	helper, _ := newTestServer(t)

	req := BuildRequest{Width: 300, Height: 10, Layout: Layout{
		ByteOrder: "big",
		X:         []ninepatch.BandSpec{{Kind: ninepatch.BandPoints, A: 258, B: 259}},
	}}
	rr := helper.MakeRequest("POST", "/api/chunks", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if order := rr.Header().Get("X-Chunk-Byte-Order"); order != "big" {
		t.Errorf("Expected byte order big, got %s", order)
	}
	if got := rr.Body.Bytes()[32:36]; !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("Expected big-endian 258, got %v", got)
	}
}

func TestBuildChunk_JSONEnvelope(t *testing.T) {
	helper, _ := newTestServer(t)

	req := BuildRequest{Width: 100, Height: 100}
	rr := helper.MakeRequestWithHeaders("POST", "/api/chunks", req, map[string]string{
		"Accept": "application/json",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var envelope compression.CompressedChunk
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Format != compression.FormatZstd || envelope.ByteOrder != "little" {
		t.Errorf("Unexpected envelope %+v", envelope)
	}
	chunk, err := envelope.Chunk()
	if err != nil {
		t.Fatalf("Failed to unpack chunk: %v", err)
	}
	if len(chunk) != 84 || binary.LittleEndian.Uint32(chunk[36:]) != 100 {
		t.Errorf("Expected default 0..100 bands in an 84 byte chunk, got %v", chunk)
	}
}

func TestBuildChunk_Errors(t *testing.T) {
	helper, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing dimensions",
			body:       map[string]interface{}{"x": []interface{}{}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name:       "negative width",
			body:       BuildRequest{Width: -4, Height: 10},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name:       "unknown band kind",
			body:       BuildRequest{Width: 10, Height: 10, Layout: Layout{X: []ninepatch.BandSpec{{Kind: "diagonal", A: 1, B: 2}}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name:       "unknown byte order",
			body:       BuildRequest{Width: 10, Height: 10, Layout: Layout{ByteOrder: "middle"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name: "strict out of extent",
			body: BuildRequest{Width: 10, Height: 10, Layout: Layout{
				Strict: boolPtr(true),
				X:      []ninepatch.BandSpec{{Kind: ninepatch.BandPixels, A: 5, B: 20}},
			}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "InvalidRegion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := helper.MakeRequest("POST", "/api/chunks", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			var resp ErrorResponse
			if err := testutil.ParseJSONResponse(&resp, rr.Body); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("Expected error code %s, got %s (%s)", tt.wantCode, resp.Error, resp.Message)
			}
		})
	}
}

func TestBuildChunk_PermissiveOutOfExtent(t *testing.T) {
	helper, _ := newTestServer(t)

	req := BuildRequest{Width: 10, Height: 10, Layout: Layout{
		X: []ninepatch.BandSpec{{Kind: ninepatch.BandPixels, A: 5, B: 20}},
	}}
	rr := helper.MakeRequest("POST", "/api/chunks", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if got := binary.LittleEndian.Uint32(rr.Body.Bytes()[36:]); got != 25 {
		t.Errorf("Expected end boundary 25 written as given, got %d", got)
	}
}

func TestChunkRoutes_Method(t *testing.T) {
	helper, _ := newTestServer(t)

	rr := helper.MakeRequest("GET", "/api/chunks", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
	rr = helper.MakeRequest("POST", "/api/chunks/extra", BuildRequest{Width: 1, Height: 1})
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestBuildNinePatch_EmbedsChunk(t *testing.T) {
	helper, _ := newTestServer(t)

	img := testutil.StripedImage(30, 10)
	body, contentType := testutil.MultipartUpload("image", "button.png", testutil.EncodePNG(img), map[string]string{
		"layout": `{"x":[{"kind":"pixels","a":10,"b":10}]}`,
	})
	rr := helper.MakeRawRequest("POST", "/api/ninepatch", contentType, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if order := rr.Header().Get("X-Chunk-Byte-Order"); order != "big" {
		t.Errorf("Expected PNG byte order big, got %s", order)
	}

	data := rr.Body.Bytes()
	chunk, ok, err := pngchunk.Find(data, pngchunk.NinePatchType)
	if err != nil || !ok {
		t.Fatalf("Expected npTc chunk, found=%v err=%v", ok, err)
	}
	if !bytes.Equal(chunk[:4], []byte{1, 2, 2, 9}) {
		t.Errorf("Expected header [1 2 2 9], got %v", chunk[:4])
	}
	if x0, x1 := binary.BigEndian.Uint32(chunk[32:]), binary.BigEndian.Uint32(chunk[36:]); x0 != 10 || x1 != 20 {
		t.Errorf("Expected x [10 20], got [%d %d]", x0, x1)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Response is not a valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 30 || decoded.Bounds().Dy() != 10 {
		t.Errorf("Expected 30x10 image, got %v", decoded.Bounds())
	}
}

func TestBuildNinePatch_Render(t *testing.T) {
	helper, profiler := newTestServer(t)

	img := testutil.StripedImage(30, 10)
	body, contentType := testutil.MultipartUpload("image", "button.png", testutil.EncodePNG(img), map[string]string{
		"layout":        `{"x":[{"kind":"pixels","a":10,"b":10}]}`,
		"render_width":  "60",
		"render_height": "10",
	})
	rr := helper.MakeRawRequest("POST", "/api/ninepatch", contentType, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	out, err := png.Decode(rr.Body)
	if err != nil {
		t.Fatalf("Response is not a valid PNG: %v", err)
	}
	if out.Bounds().Dx() != 60 || out.Bounds().Dy() != 10 {
		t.Fatalf("Expected 60x10 render, got %v", out.Bounds())
	}
	checks := []struct {
		x    int
		want string
	}{
		{0, "red"}, {30, "green"}, {59, "blue"},
	}
	for _, c := range checks {
		if got := dominant(out.At(c.x, 5)); got != c.want {
			t.Errorf("Pixel %d: expected %s, got %s", c.x, c.want, got)
		}
	}
	if _, ok := profiler.GetMetric("render"); !ok {
		t.Error("Expected render metric to be recorded")
	}
}

// dominant names the saturated channel of c.
func dominant(c color.Color) string {
	r, g, b, _ := c.RGBA()
	switch {
	case r > 0xf000 && g < 0x1000 && b < 0x1000:
		return "red"
	case g > 0xf000 && r < 0x1000 && b < 0x1000:
		return "green"
	case b > 0xf000 && r < 0x1000 && g < 0x1000:
		return "blue"
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
}

func TestBuildNinePatch_Errors(t *testing.T) {
	helper, _ := newTestServer(t)
	pngData := testutil.EncodePNG(testutil.StripedImage(6, 6))
	wideData := testutil.EncodePNG(testutil.StripedImage(600, 2))

	tests := []struct {
		name       string
		data       []byte
		fields     map[string]string
		wantStatus int
		wantCode   string
	}{
		{"missing image", nil, nil, http.StatusBadRequest, "MissingImage"},
		{"not an image", []byte("just some text, not pixels"), nil, http.StatusUnsupportedMediaType, "UnsupportedImage"},
		{"image too wide", wideData, nil, http.StatusRequestEntityTooLarge, "ImageTooLarge"},
		{"bad layout", pngData, map[string]string{"layout": "{"}, http.StatusBadRequest, "InvalidLayout"},
		{"render width only", pngData, map[string]string{"render_width": "20"}, http.StatusBadRequest, "InvalidRenderSize"},
		{"render too large", pngData, map[string]string{"render_width": "9000", "render_height": "10"}, http.StatusBadRequest, "InvalidRenderSize"},
		{
			"strict overlap",
			pngData,
			map[string]string{"layout": `{"strict":true,"y":[{"kind":"points","a":1,"b":4},{"kind":"points","a":3,"b":5}]}`},
			http.StatusUnprocessableEntity,
			"InvalidRegion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := testutil.MultipartUpload("image", "in.png", tt.data, tt.fields)
			rr := helper.MakeRawRequest("POST", "/api/ninepatch", contentType, body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			var resp ErrorResponse
			if err := testutil.ParseJSONResponse(&resp, rr.Body); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("Expected error code %s, got %s (%s)", tt.wantCode, resp.Error, resp.Message)
			}
		})
	}
}

func TestBuildNinePatch_NotMultipart(t *testing.T) {
	helper, _ := newTestServer(t)
	rr := helper.MakeRawRequest("POST", "/api/ninepatch", "text/plain", strings.NewReader("hello"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}
