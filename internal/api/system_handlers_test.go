package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"testing"

	"github.com/earthring/ninepatch/internal/ninepatch"
	"github.com/earthring/ninepatch/internal/performance"
	"github.com/earthring/ninepatch/internal/testutil"
)

func TestHealth(t *testing.T) {
	helper, _ := newTestServer(t)

	rr := helper.MakeRequest("GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp HealthResponse
	if err := testutil.ParseJSONResponse(&resp, rr.Body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Service != serviceName {
		t.Errorf("Unexpected health response %+v", resp)
	}

	if rr := helper.MakeRequest("POST", "/health", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for POST, got %d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	helper, _ := newTestServer(t)

	helper.MakeRequest("POST", "/api/chunks", BuildRequest{Width: 8, Height: 8})
	rr := helper.MakeRequest("GET", "/api/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var report performance.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if !report.Enabled {
		t.Error("Expected profiling to be enabled")
	}
	found := false
	for _, m := range report.Metrics {
		if m.Name == "chunk_build" && m.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected one chunk_build in report, got %+v", report.Metrics)
	}
}

func TestPublicConfig(t *testing.T) {
	helper, _ := newTestServer(t)

	rr := helper.MakeRequest("GET", "/api/config", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var cfg PublicConfig
	if err := testutil.ParseJSONResponse(&cfg, rr.Body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if cfg.ByteOrder != "little" || cfg.PaletteSize != ninepatch.PaletteSize || cfg.MaxDivisions != 255 {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if !slices.Contains(cfg.BandKinds, ninepatch.BandCenteredFraction) {
		t.Errorf("Expected band kinds to include centered_fraction, got %v", cfg.BandKinds)
	}
	if cfg.MaxInputDimension != 512 {
		t.Errorf("Expected max input dimension 512, got %d", cfg.MaxInputDimension)
	}
	if !slices.Contains(cfg.ImageTypes, "image/webp") {
		t.Errorf("Expected image types to include webp, got %v", cfg.ImageTypes)
	}
}

func TestCORSMiddleware(t *testing.T) {
	helper, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed origin", "GET", "http://localhost:5173", "http://localhost:5173", http.StatusOK},
		{"unknown origin", "GET", "https://evil.example.com", "", http.StatusOK},
		{"preflight", "OPTIONS", "http://localhost:5173", "http://localhost:5173", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := helper.MakeRequestWithHeaders(tt.method, "/health", nil, map[string]string{"Origin": tt.origin})
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	if !originAllowed([]string{"*"}, "https://anything.example.com") {
		t.Error("Expected wildcard to allow any origin")
	}
	if originAllowed([]string{"*"}, "") {
		t.Error("Expected empty origin to be rejected")
	}
}

func TestSecurityHeaders(t *testing.T) {
	helper, _ := newTestServer(t)

	rr := helper.MakeRequest("GET", "/health", nil)
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, want := range headers {
		if got := rr.Header().Get(k); got != want {
			t.Errorf("Expected %s %q, got %q", k, want, got)
		}
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected rate limit header 1000, got %q", rr.Header().Get("X-RateLimit-Limit"))
	}
}
