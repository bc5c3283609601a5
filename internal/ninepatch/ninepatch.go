package ninepatch

import (
	"encoding/binary"
	"image"

	"github.com/pkg/errors"
)

// NinePatch pairs a source image with its encoded chunk and the bands the
// chunk was built from, ready to hand to a renderer.
type NinePatch struct {
	Image    image.Image
	Chunk    []byte
	Order    binary.ByteOrder
	XRegions []int
	YRegions []int
}

// BuildNinePatch encodes the chunk and wraps it with the builder's image.
// It fails with ErrNoImage for builders created by NewBuilder.
func (b *Builder) BuildNinePatch(order binary.ByteOrder) (*NinePatch, error) {
	if b.img == nil {
		return nil, ErrNoImage
	}
	chunk, err := b.BuildChunk(order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build chunk")
	}
	return &NinePatch{
		Image:    b.img,
		Chunk:    chunk,
		Order:    order,
		XRegions: b.XRegions(),
		YRegions: b.YRegions(),
	}, nil
}

// Bounds returns the bounds of the source image.
func (n *NinePatch) Bounds() image.Rectangle {
	return n.Image.Bounds()
}
