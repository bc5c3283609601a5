package compression

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

// FormatZstd is the Format value of compressed chunk envelopes.
const FormatZstd = "binary_zstd"

// CompressedChunk is a compressed chunk ready for JSON transmission.
type CompressedChunk struct {
	Format           string `json:"format"`            // "binary_zstd"
	ByteOrder        string `json:"byte_order"`        // word order of the chunk
	Data             string `json:"data"`              // Base64-encoded compressed data
	Size             int    `json:"size"`              // Compressed size in bytes
	UncompressedSize int    `json:"uncompressed_size"` // Chunk size in bytes
}

// FormatCompressedChunk compresses chunk and wraps it for JSON transmission.
func FormatCompressedChunk(chunk []byte, byteOrder string) (*CompressedChunk, error) {
	compressed, err := CompressChunk(chunk)
	if err != nil {
		return nil, err
	}
	return &CompressedChunk{
		Format:           FormatZstd,
		ByteOrder:        byteOrder,
		Data:             base64.StdEncoding.EncodeToString(compressed),
		Size:             len(compressed),
		UncompressedSize: len(chunk),
	}, nil
}

// Chunk decodes the envelope back to the raw chunk bytes.
func (c *CompressedChunk) Chunk() ([]byte, error) {
	if c.Format != FormatZstd {
		return nil, errors.Errorf("unsupported format %q", c.Format)
	}
	data, err := base64.StdEncoding.DecodeString(c.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64")
	}
	chunk, err := DecompressChunk(data)
	if err != nil {
		return nil, err
	}
	if len(chunk) != c.UncompressedSize {
		return nil, errors.Errorf("expected %d bytes, got %d", c.UncompressedSize, len(chunk))
	}
	return chunk, nil
}
