// Package render draws a nine-patch at an arbitrary size. It is a reference
// consumer for previews and tests: fixed segments keep their size and
// stretchable bands share whatever space is left.
package render

import (
	"image"
	"image/draw"
	"slices"

	"github.com/disintegration/gift"
	"github.com/pkg/errors"

	"github.com/earthring/ninepatch/internal/ninepatch"
)

// Segment is one slice of an axis, either fixed or stretchable.
type Segment struct {
	Start, End int
	Stretch    bool
}

// Size returns the segment length in pixels.
func (s Segment) Size() int { return s.End - s.Start }

// Segments splits [0, extent) into alternating fixed and stretchable
// segments. Bands are clipped to the image, empty or reversed bands are
// dropped, and overlapping bands are merged, so any band list yields a
// usable layout.
func Segments(bounds []int, extent int) []Segment {
	var bands [][2]int
	for i := 0; i+1 < len(bounds); i += 2 {
		start, end := max(bounds[i], 0), min(bounds[i+1], extent)
		if start < end {
			bands = append(bands, [2]int{start, end})
		}
	}
	slices.SortFunc(bands, func(a, b [2]int) int { return a[0] - b[0] })

	var segs []Segment
	pos := 0
	for _, band := range bands {
		if band[0] > pos {
			segs = append(segs, Segment{Start: pos, End: band[0]})
		}
		if n := len(segs); n > 0 && segs[n-1].Stretch && band[0] <= segs[n-1].End {
			segs[n-1].End = max(segs[n-1].End, band[1])
		} else {
			segs = append(segs, Segment{Start: band[0], End: band[1], Stretch: true})
		}
		pos = segs[len(segs)-1].End
	}
	if pos < extent {
		segs = append(segs, Segment{Start: pos, End: extent})
	}
	return segs
}

// Layout returns the destination size of every segment for a target
// length. If the target covers the fixed segments, they keep their size and
// stretchable segments split the rest in proportion to their size.
// Otherwise stretchable segments collapse and fixed ones shrink
// proportionally. Sizes always sum to target.
func Layout(segs []Segment, target int) []int {
	fixed, stretch := 0, 0
	for _, s := range segs {
		if s.Stretch {
			stretch += s.Size()
		} else {
			fixed += s.Size()
		}
	}

	sizes := make([]int, len(segs))
	switch {
	case stretch == 0:
		distribute(sizes, segs, target, func(Segment) bool { return true })
	case target >= fixed:
		for i, s := range segs {
			if !s.Stretch {
				sizes[i] = s.Size()
			}
		}
		distribute(sizes, segs, target-fixed, func(s Segment) bool { return s.Stretch })
	default:
		distribute(sizes, segs, target, func(s Segment) bool { return !s.Stretch })
	}
	return sizes
}

// distribute splits total across the selected segments by size, using
// cumulative rounding so the parts add up exactly.
func distribute(sizes []int, segs []Segment, total int, pick func(Segment) bool) {
	weight := 0
	for _, s := range segs {
		if pick(s) {
			weight += s.Size()
		}
	}
	if weight == 0 {
		return
	}
	cum, prev := 0, 0
	for i, s := range segs {
		if !pick(s) {
			continue
		}
		cum += s.Size()
		next := cum * total / weight
		sizes[i] = next - prev
		prev = next
	}
}

// Scale draws np at width x height.
func Scale(np *ninepatch.NinePatch, width, height int) (*image.NRGBA, error) {
	if np == nil || np.Image == nil {
		return nil, errors.New("nine-patch has no image")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid target size %dx%d", width, height)
	}

	src := toNRGBA(np.Image)
	b := src.Bounds()
	xs := Segments(np.XRegions, b.Dx())
	ys := Segments(np.YRegions, b.Dy())
	xSizes := Layout(xs, width)
	ySizes := Layout(ys, height)

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	dy := 0
	for j, ySeg := range ys {
		dx := 0
		for i, xSeg := range xs {
			w, h := xSizes[i], ySizes[j]
			if w > 0 && h > 0 {
				patch := src.SubImage(image.Rect(xSeg.Start, ySeg.Start, xSeg.End, ySeg.End))
				g := gift.New(gift.Resize(w, h, gift.LinearResampling))
				g.DrawAt(dst, patch, image.Pt(dx, dy), gift.CopyOperator)
			}
			dx += w
		}
		dy += ySizes[j]
	}
	return dst, nil
}

// toNRGBA copies any image into an *image.NRGBA with bounds at (0,0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
