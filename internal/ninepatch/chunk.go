package ninepatch

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

const (
	// PaletteSize is the number of color words written after the bands.
	// Renderers ignore the value for geometry; it only has to match the
	// count in the header.
	PaletteSize = 9

	// NoColor marks a segment as having no single solid color.
	NoColor uint32 = 0x00000001

	// wasTranslated is the first header byte.
	wasTranslated = 1

	// headerWords covers the four header bytes, two skip words, four padding
	// words (left, right, top, bottom) and one more skip word.
	headerWords = 1 + 2 + 4 + 1

	wordSize = 4

	// MaxDivisions is the largest boundary count the one-byte header
	// fields hold.
	MaxDivisions = 255
)

// ChunkSize returns the encoded length in bytes of a chunk with the given
// number of x and y boundaries.
func ChunkSize(xCount, yCount int) int {
	return wordSize * (headerWords + xCount + yCount + PaletteSize)
}

// BuildChunk encodes the accumulated bands. Every 4-byte word is written in
// order; renderers that read the chunk in memory expect
// binary.NativeEndian, compiled PNG resources use binary.BigEndian.
//
// An axis with no bands gets one band covering the whole image, and that
// band is kept: regions added afterwards accumulate onto it, and repeated
// calls without new regions return identical bytes. In permissive mode (the default) the error is only non-nil for a
// nil order; with WithStrict(true) bands failing Validate are rejected.
func (b *Builder) BuildChunk(order binary.ByteOrder) ([]byte, error) {
	if order == nil {
		return nil, errors.New("nil byte order")
	}
	b.x.fillDefault()
	b.y.fillDefault()
	if b.strict {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	} else if b.logger != nil {
		for _, issue := range b.Issues() {
			b.logger.Printf("Warning: ninepatch %s: %s", b.extent, issue)
		}
	}
	return encodeChunk(order, b.XRegions(), b.YRegions()), nil
}

func encodeChunk(order binary.ByteOrder, xs, ys []int) []byte {
	buf := make([]byte, ChunkSize(len(xs), len(ys)))

	buf[0] = wasTranslated
	buf[1] = byte(len(xs))
	buf[2] = byte(len(ys))
	buf[3] = PaletteSize
	// Words 1..7 (skip, skip, padding l/r/t/b, skip) stay zero.

	off := headerWords * wordSize
	put := func(v uint32) {
		order.PutUint32(buf[off:], v)
		off += wordSize
	}
	for _, v := range xs {
		put(uint32(int32(v)))
	}
	for _, v := range ys {
		put(uint32(int32(v)))
	}
	for i := 0; i < PaletteSize; i++ {
		put(NoColor)
	}
	return buf
}

// ParseByteOrder maps a configuration name to a byte order. Accepted names
// are "little" (or "le"), "big" (or "be", "network") and "native"; the empty
// string selects native order.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "little", "le", "littleendian":
		return binary.LittleEndian, nil
	case "big", "be", "network", "bigendian":
		return binary.BigEndian, nil
	case "", "native", "nativeendian":
		return binary.NativeEndian, nil
	default:
		return nil, errors.Errorf("unknown byte order %q", name)
	}
}

// ByteOrderName returns the short configuration name of order.
func ByteOrderName(order binary.ByteOrder) string {
	switch order {
	case binary.LittleEndian:
		return "little"
	case binary.BigEndian:
		return "big"
	case binary.NativeEndian:
		return "native"
	default:
		return order.String()
	}
}
