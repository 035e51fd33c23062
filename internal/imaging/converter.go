// Package imaging converts arbitrary input images into the canonical WebP
// form used throughout the pipeline. All work happens in memory; nothing is
// ever written to disk.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"os"

	"github.com/chai2010/webp"

	// Register decoders for every allowed upload extension.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeError reports input bytes that could not be decoded as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Info describes an image without converting it.
type Info struct {
	Format string
	Width  int
	Height int
}

// ConvertFile reads the file at path and converts it like Convert. The file
// is fully consumed before returning; no handle stays open.
func ConvertFile(path string, quality int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return Convert(data, quality)
}

// ConvertReader drains r into memory and converts like Convert.
func ConvertReader(r io.Reader, quality int) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image stream: %w", err)
	}
	return Convert(data, quality)
}

// Convert decodes the input image and re-encodes it as lossy WebP at the
// given quality. Paletted images are promoted to full RGBA; every other
// color mode is flattened to plain RGB, so the encoder only ever sees the
// two layouts it supports well.
func Convert(data []byte, quality int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	img = normalizeColorMode(img)

	var buf bytes.Buffer
	opts := &webp.Options{Lossless: false, Quality: float32(quality)}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}

	// Size report only; never affects the returned bytes.
	original := len(data)
	compressed := buf.Len()
	if original > 0 {
		ratio := (1 - float64(compressed)/float64(original)) * 100
		log.Printf("[imaging] Converted %s %.2f KB -> webp %.2f KB (%.2f%% reduction)",
			format, float64(original)/1024, float64(compressed)/1024, ratio)
	}

	return buf.Bytes(), nil
}

// Probe reports format and dimensions without a full decode.
func Probe(data []byte) (*Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// normalizeColorMode guarantees the encoder receives one of two layouts:
// paletted images are promoted to full-alpha NRGBA, anything else that is
// not already (N)RGBA is flattened to opaque RGBA.
func normalizeColorMode(img image.Image) image.Image {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA:
		return img
	case *image.Paletted:
		b := img.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
