package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compression settings for chunk payloads. Chunks are small, so a single
// low-memory encoder is shared.
var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	encoderErr  error

	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error
)

func sharedEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = zstd.NewWriter(
			nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithLowerEncoderMem(true),
		)
	})
	return encoder, encoderErr
}

func sharedDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		decoder, decoderErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return decoder, decoderErr
}

// CompressChunk compresses an encoded chunk with zstd.
func CompressChunk(chunk []byte) ([]byte, error) {
	if chunk == nil {
		return nil, errors.New("chunk is nil")
	}
	enc, err := sharedEncoder()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd encoder")
	}
	return enc.EncodeAll(chunk, make([]byte, 0, len(chunk))), nil
}

// DecompressChunk reverses CompressChunk. It only restores the bytes; it
// does not interpret them.
func DecompressChunk(data []byte) ([]byte, error) {
	dec, err := sharedDecoder()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd decoder")
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress chunk")
	}
	return out, nil
}
