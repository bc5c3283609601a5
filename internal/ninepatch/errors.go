package ninepatch

import "github.com/pkg/errors"

var (
	// ErrInvalidDimensions is returned when a builder is created with a
	// non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid image dimensions")

	// ErrInvalidRegion is returned by Validate and by strict builds when the
	// accumulated bands are not sorted, overlap, leave the image or exceed
	// the division count a chunk can carry.
	ErrInvalidRegion = errors.New("invalid stretch region")

	// ErrNoImage is returned by BuildNinePatch on a builder created from bare
	// dimensions.
	ErrNoImage = errors.New("builder has no source image")

	// ErrUnknownBand is returned for band descriptors with an unknown kind or
	// the wrong number of values.
	ErrUnknownBand = errors.New("unknown band descriptor")
)
