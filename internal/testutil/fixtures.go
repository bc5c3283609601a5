package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
)

// Stripe colors used by StripedImage, left to right.
var (
	Red   = color.NRGBA{R: 255, A: 255}
	Green = color.NRGBA{G: 255, A: 255}
	Blue  = color.NRGBA{B: 255, A: 255}
)

// StripedImage returns a width x height image split into three vertical
// stripes (red, green, blue) of equal width. width should be a multiple of 3.
func StripedImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	stripes := []color.NRGBA{Red, Green, Blue}
	third := max(width/3, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, stripes[min(x/third, 2)])
		}
	}
	return img
}

// EncodePNG encodes img as PNG and panics on failure
func EncodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// MultipartUpload builds a multipart body with one file part and extra
// form fields. It returns the body and its Content-Type header.
func MultipartUpload(field, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			panic(err)
		}
		if _, err := part.Write(data); err != nil {
			panic(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			panic(err)
		}
	}
	if err := mw.Close(); err != nil {
		panic(err)
	}
	return &body, mw.FormDataContentType()
}
