package ninepatch

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BandKind names one of the Add* forms of the builder.
type BandKind string

const (
	BandPixels           BandKind = "pixels"            // AddXRegion(a, b)
	BandPoints           BandKind = "points"            // AddXRegionPoints(a, b)
	BandFraction         BandKind = "fraction"          // AddXRegionFraction(a, b)
	BandFractionPoints   BandKind = "fraction_points"   // AddXRegionPointsFraction(a, b)
	BandCentered         BandKind = "centered"          // AddXCenteredRegion(a)
	BandCenteredFraction BandKind = "centered_fraction" // AddXCenteredRegionFraction(a)
)

// BandSpec is a serializable band descriptor. Pixel kinds truncate A and B
// to integers.
type BandSpec struct {
	Kind BandKind `json:"kind" validate:"required,oneof=pixels points fraction fraction_points centered centered_fraction"`
	A    float64  `json:"a"`
	B    float64  `json:"b,omitempty"`
}

// BandKinds returns every BandKind in declaration order.
func BandKinds() []BandKind {
	return []BandKind{BandPixels, BandPoints, BandFraction, BandFractionPoints, BandCentered, BandCenteredFraction}
}

func (k BandKind) arity() int {
	if k == BandCentered || k == BandCenteredFraction {
		return 1
	}
	return 2
}

// ParseBand parses the textual form "kind:a[,b]", for example
// "pixels:30,30", "centered:20" or "fraction_points:0.1,0.9".
func ParseBand(s string) (BandSpec, error) {
	kind, args, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return BandSpec{}, errors.Wrapf(ErrUnknownBand, "%q: missing ':'", s)
	}
	spec := BandSpec{Kind: BandKind(strings.ToLower(kind))}
	if err := validate.Struct(spec); err != nil {
		return BandSpec{}, errors.Wrapf(ErrUnknownBand, "%q: kind %q", s, kind)
	}
	fields := strings.Split(args, ",")
	if len(fields) != spec.Kind.arity() {
		return BandSpec{}, errors.Wrapf(ErrUnknownBand, "%q: %s takes %d values", s, spec.Kind, spec.Kind.arity())
	}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return BandSpec{}, errors.Wrapf(ErrUnknownBand, "%q: %v", s, err)
		}
		vals[i] = v
	}
	spec.A = vals[0]
	if len(vals) > 1 {
		spec.B = vals[1]
	}
	return spec, nil
}

func (s BandSpec) String() string {
	a := strconv.FormatFloat(s.A, 'g', -1, 64)
	if s.Kind.arity() == 1 {
		return string(s.Kind) + ":" + a
	}
	return string(s.Kind) + ":" + a + "," + strconv.FormatFloat(s.B, 'g', -1, 64)
}

// Apply appends bands to the given axis in order. Each descriptor is checked
// for a known kind before anything is appended; band geometry is not
// checked.
func (b *Builder) Apply(ax Axis, bands ...BandSpec) error {
	for i, spec := range bands {
		if err := validate.Struct(spec); err != nil {
			return errors.Wrapf(ErrUnknownBand, "%s band %d: %s", ax, i, validationSummary(err))
		}
	}
	a := b.axis(ax)
	for _, spec := range bands {
		switch spec.Kind {
		case BandPixels:
			a.span(truncate(spec.A), truncate(spec.B))
		case BandPoints:
			a.points(truncate(spec.A), truncate(spec.B))
		case BandFraction:
			a.spanFraction(float32(spec.A), float32(spec.B))
		case BandFractionPoints:
			a.pointsFraction(float32(spec.A), float32(spec.B))
		case BandCentered:
			a.centered(truncate(spec.A))
		case BandCenteredFraction:
			a.centeredFraction(float32(spec.A))
		}
	}
	return nil
}

// truncate converts a JSON or flag number to a pixel count.
func truncate(v float64) int {
	return saturate(v)
}
