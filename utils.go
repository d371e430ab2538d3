package main

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
)

// LoadCarrier decodes the image at path into an NRGBA grid. NRGBA
// keeps channel bytes exactly as stored, so the LSBs survive a PNG
// round trip even when the alpha channel's low bit is touched;
// premultiplied RGBA would rescale color channels on re-encode and
// destroy the hidden data.
func LoadCarrier(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imcode: decode carrier %s: %w", path, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA copies any image.Image into an *image.NRGBA with bounds
// starting at (0,0). Images that already have that shape pass through
// untouched.
func toNRGBA(src image.Image) *image.NRGBA {
	if g, ok := src.(*image.NRGBA); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// SaveCarrier writes grid as PNG at path. The file appears atomically
// via a temp file and rename, so an aborted run leaves no truncated
// output behind.
func SaveCarrier(grid *image.NRGBA, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imcode-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := png.Encode(tmp, grid); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("imcode: encode png: %w", err)
	}
	return commit(tmp, tmpPath, path)
}

// SaveBytes writes data to path with the same temp-and-rename scheme.
func SaveBytes(data []byte, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imcode-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	return commit(tmp, tmpPath, path)
}

func commit(f *os.File, tmpPath, path string) error {
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
