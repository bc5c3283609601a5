package api

import "github.com/earthring/ninepatch/internal/ninepatch"

// Layout describes the bands of a build. Bands are applied in order.
type Layout struct {
	ByteOrder string               `json:"byte_order,omitempty" validate:"omitempty,oneof=little big native"`
	Strict    *bool                `json:"strict,omitempty"`
	X         []ninepatch.BandSpec `json:"x,omitempty" validate:"max=127,dive"`
	Y         []ninepatch.BandSpec `json:"y,omitempty" validate:"max=127,dive"`
}

// BuildRequest is the body of POST /api/chunks and of websocket "build"
// messages.
type BuildRequest struct {
	Width  int `json:"width" validate:"required,gt=0"`
	Height int `json:"height" validate:"required,gt=0"`
	Layout
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// apiError carries the HTTP status and code for a failed build.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return e.Code + ": " + e.Message
}
