// Package pngchunk embeds nine-patch chunks into PNG files the way compiled
// Android resources carry them: as an "npTc" ancillary chunk placed right
// after IHDR.
package pngchunk

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"

	"github.com/pkg/errors"
)

// NinePatchType is the PNG chunk type of a compiled nine-patch.
const NinePatchType = "npTc"

var signature = []byte("\x89PNG\r\n\x1a\n")

// Encode writes img as a PNG with payload stored in an npTc chunk. Compiled
// resources expect the payload words in big-endian order.
func Encode(w io.Writer, img image.Image, payload []byte) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrap(err, "failed to encode png")
	}
	out, err := Insert(buf.Bytes(), NinePatchType, payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return errors.Wrap(err, "failed to write png")
	}
	return nil
}

// Insert returns a copy of the encoded PNG data with a chunk of type typ
// added directly after IHDR.
func Insert(data []byte, typ string, payload []byte) ([]byte, error) {
	if len(typ) != 4 {
		return nil, errors.Errorf("chunk type %q must be 4 bytes", typ)
	}
	chunks, err := split(data)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != "IHDR" {
		return nil, errors.New("png does not start with IHDR")
	}

	out := make([]byte, 0, len(data)+len(payload)+12)
	out = append(out, signature...)
	out = append(out, data[chunks[0].start:chunks[0].end]...)
	out = appendChunk(out, typ, payload)
	out = append(out, data[chunks[0].end:]...)
	return out, nil
}

// Find returns the payload of the first chunk of type typ.
func Find(data []byte, typ string) ([]byte, bool, error) {
	chunks, err := split(data)
	if err != nil {
		return nil, false, err
	}
	for _, c := range chunks {
		if c.typ == typ {
			return data[c.start+8 : c.end-4], true, nil
		}
	}
	return nil, false, nil
}

type span struct {
	typ        string
	start, end int
}

// split walks the chunk list and checks lengths and CRCs.
func split(data []byte) ([]span, error) {
	if !bytes.HasPrefix(data, signature) {
		return nil, errors.New("not a png file")
	}
	var chunks []span
	off := len(signature)
	for off < len(data) {
		if len(data)-off < 12 {
			return nil, errors.Errorf("truncated chunk at offset %d", off)
		}
		n := int(binary.BigEndian.Uint32(data[off:]))
		end := off + 12 + n
		if n < 0 || end > len(data) {
			return nil, errors.Errorf("chunk at offset %d overruns file", off)
		}
		typ := string(data[off+4 : off+8])
		want := binary.BigEndian.Uint32(data[end-4:])
		if got := crc32.ChecksumIEEE(data[off+4 : end-4]); got != want {
			return nil, errors.Errorf("chunk %s: crc mismatch", typ)
		}
		chunks = append(chunks, span{typ: typ, start: off, end: end})
		off = end
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func appendChunk(out []byte, typ string, payload []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	body := len(out)
	out = append(out, typ...)
	out = append(out, payload...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[body:]))
}
