// Package ninepatch builds the binary chunk that tells a nine-patch renderer
// which horizontal and vertical bands of an image may stretch.
//
// The image is split into J horizontal and K vertical segments. Bands added
// to the builder mark the stretchable segments; everything between them is
// fixed. A chunk for a 4x3 split looks like:
//
//	     F0   S0    F1     S1
//	  +-----+----+------+-------+
//	S2|  0  |  1 |  2   |   3   |
//	  +-----+----+------+-------+
//	F2|  4  |  5 |  6   |   7   |
//	  +-----+----+------+-------+
//	S3|  8  |  9 |  10  |   11  |
//	  +-----+----+------+-------+
//
// Band lists may start or end with either kind of segment.
package ninepatch

import (
	"image"
	"log"
	"math"
	"slices"

	"github.com/pkg/errors"
)

// Axis selects the x (horizontal) or y (vertical) band list.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// axis holds the boundaries of one band list as flattened (start, end)
// pairs in insertion order.
type axis struct {
	extent int
	bounds []int
}

func (a *axis) points(start, end int) {
	a.bounds = append(a.bounds, start, end)
}

func (a *axis) span(start, size int) {
	a.points(start, start+size)
}

func (a *axis) spanFraction(start, size float32) {
	s := toPixels(start, a.extent)
	a.points(s, s+toPixels(size, a.extent))
}

func (a *axis) pointsFraction(f1, f2 float32) {
	a.points(toPixels(f1, a.extent), toPixels(f2, a.extent))
}

func (a *axis) centered(size int) {
	start := (a.extent - size) / 2
	a.points(start, start+size)
}

func (a *axis) centeredFraction(f float32) {
	a.centered(toPixels(f, a.extent))
}

// resolved returns a copy of the boundaries, or the whole extent as a single
// band when nothing was added.
func (a *axis) resolved() []int {
	if len(a.bounds) == 0 {
		return []int{0, a.extent}
	}
	return slices.Clone(a.bounds)
}

// fillDefault records the whole extent as the only band of an empty axis.
func (a *axis) fillDefault() {
	if len(a.bounds) == 0 {
		a.points(0, a.extent)
	}
}

// toPixels converts a fraction of extent to pixels, truncating toward zero.
// The product is taken in float32, so 0.57 of 100 is 57.
func toPixels(f float32, extent int) int {
	v := float32(f * float32(extent))
	return saturate(float64(v))
}

// saturate truncates v toward zero. NaN maps to 0 and results saturate at
// the int32 range.
func saturate(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

// Builder accumulates stretch bands for one image. Every Add method appends
// exactly one (start, end) pair and never fails: bands outside the image,
// reversed or overlapping bands are recorded as given. A Builder is not safe
// for concurrent use.
type Builder struct {
	extent Extent
	img    image.Image
	x, y   axis
	strict bool
	logger *log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithStrict makes BuildChunk and BuildNinePatch reject band lists that fail
// Validate instead of encoding them.
func WithStrict(strict bool) Option {
	return func(b *Builder) {
		b.strict = strict
	}
}

// WithLogger reports Validate findings through l on permissive builds.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder returns a builder for an image of the given size.
func NewBuilder(width, height int, opts ...Option) (*Builder, error) {
	ext, err := NewExtent(width, height)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		extent: ext,
		x:      axis{extent: ext.Width},
		y:      axis{extent: ext.Height},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewBuilderFromImage returns a builder sized to img's bounds. The image is
// kept for BuildNinePatch.
func NewBuilderFromImage(img image.Image, opts ...Option) (*Builder, error) {
	if img == nil {
		return nil, errors.Wrap(ErrNoImage, "nil image")
	}
	bounds := img.Bounds()
	b, err := NewBuilder(bounds.Dx(), bounds.Dy(), opts...)
	if err != nil {
		return nil, err
	}
	b.img = img
	return b, nil
}

// Extent returns the image size the builder was created with.
func (b *Builder) Extent() Extent { return b.extent }

// Image returns the source image, or nil for a dimensions-only builder.
func (b *Builder) Image() image.Image { return b.img }

// Strict reports whether strict validation is enabled.
func (b *Builder) Strict() bool { return b.strict }

// XRegions returns the x boundaries that would be encoded.
func (b *Builder) XRegions() []int { return b.x.resolved() }

// YRegions returns the y boundaries that would be encoded.
func (b *Builder) YRegions() []int { return b.y.resolved() }

func (b *Builder) axis(ax Axis) *axis {
	if ax == AxisY {
		return &b.y
	}
	return &b.x
}

// AddXRegion marks [x, x+width) as stretchable.
func (b *Builder) AddXRegion(x, width int) *Builder {
	b.x.span(x, width)
	return b
}

// AddXRegionPoints marks [x1, x2) as stretchable.
func (b *Builder) AddXRegionPoints(x1, x2 int) *Builder {
	b.x.points(x1, x2)
	return b
}

// AddXRegionFraction is AddXRegion with start and width given as fractions
// of the image width.
func (b *Builder) AddXRegionFraction(x, width float32) *Builder {
	b.x.spanFraction(x, width)
	return b
}

// AddXRegionPointsFraction is AddXRegionPoints with both ends given as
// fractions of the image width.
func (b *Builder) AddXRegionPointsFraction(x1, x2 float32) *Builder {
	b.x.pointsFraction(x1, x2)
	return b
}

// AddXCenteredRegion marks a band of the given width centered horizontally.
func (b *Builder) AddXCenteredRegion(width int) *Builder {
	b.x.centered(width)
	return b
}

// AddXCenteredRegionFraction is AddXCenteredRegion with the width given as a
// fraction of the image width.
func (b *Builder) AddXCenteredRegionFraction(width float32) *Builder {
	b.x.centeredFraction(width)
	return b
}

// AddYRegion marks [y, y+height) as stretchable.
func (b *Builder) AddYRegion(y, height int) *Builder {
	b.y.span(y, height)
	return b
}

// AddYRegionPoints marks [y1, y2) as stretchable.
func (b *Builder) AddYRegionPoints(y1, y2 int) *Builder {
	b.y.points(y1, y2)
	return b
}

// AddYRegionFraction is AddYRegion with start and height given as fractions
// of the image height.
func (b *Builder) AddYRegionFraction(y, height float32) *Builder {
	b.y.spanFraction(y, height)
	return b
}

// AddYRegionPointsFraction is AddYRegionPoints with both ends given as
// fractions of the image height.
func (b *Builder) AddYRegionPointsFraction(y1, y2 float32) *Builder {
	b.y.pointsFraction(y1, y2)
	return b
}

// AddYCenteredRegion marks a band of the given height centered vertically.
func (b *Builder) AddYCenteredRegion(height int) *Builder {
	b.y.centered(height)
	return b
}

// AddYCenteredRegionFraction is AddYCenteredRegion with the height given as
// a fraction of the image height.
func (b *Builder) AddYCenteredRegionFraction(height float32) *Builder {
	b.y.centeredFraction(height)
	return b
}
