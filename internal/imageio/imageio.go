// Package imageio sniffs and decodes source images for nine-patch builds.
package imageio

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	_ "github.com/xfmoulet/qoi" // register QOI decoder
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupportedType is returned for inputs that are not a supported image
// format.
var ErrUnsupportedType = errors.New("unsupported image type")

// ErrImageTooLarge is returned when a header declares more pixels per axis
// than the caller allows. The check runs before any pixel data is decoded.
var ErrImageTooLarge = errors.New("image dimensions too large")

// SupportedTypes lists the MIME types Decode accepts.
var SupportedTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
	"image/qoi",
}

// Decode reads an image from r. The content type is sniffed from the bytes,
// never taken from a file name or request header. Images wider or taller
// than maxDimension are rejected with ErrImageTooLarge.
func Decode(r io.Reader, limit int64, maxDimension int) (image.Image, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read image")
	}
	if int64(len(data)) > limit {
		return nil, "", errors.Errorf("image exceeds %d bytes", limit)
	}

	mime := detect(data)
	if !supported(mime) {
		return nil, mime, errors.Wrapf(ErrUnsupportedType, "%s", mime)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, mime, errors.Wrapf(err, "failed to read %s header", mime)
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, mime, errors.Wrapf(ErrImageTooLarge, "%dx%d exceeds %d", cfg.Width, cfg.Height, maxDimension)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, mime, errors.Wrapf(err, "failed to decode %s", mime)
	}
	return img, mime, nil
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string, limit int64, maxDimension int) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to open image")
	}
	defer f.Close()
	return Decode(f, limit, maxDimension)
}

// detect returns the MIME type of data. mimetype does not know QOI, so its
// magic is checked first.
func detect(data []byte) string {
	if bytes.HasPrefix(data, []byte("qoif")) {
		return "image/qoi"
	}
	return mimetype.Detect(data).String()
}

func supported(mime string) bool {
	for _, t := range SupportedTypes {
		if mime == t {
			return true
		}
	}
	return false
}
