package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

// MaxPhotoBytes bounds the photo file read from disk.
const MaxPhotoBytes = 5 << 20

func loadPhoto(path string) (*Image, error) {
	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if info.Size() > MaxPhotoBytes {
		return nil, fmt.Errorf("photo exceeds %d bytes", MaxPhotoBytes)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("unsupported photo format %q", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("photo has no size")
	}
	return &Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func (img *Image) extension() string {
	if img.Format == "jpeg" {
		return "jpeg"
	}
	return "png"
}

func (img *Image) contentType() string {
	return "image/" + img.extension()
}

// extentEMU returns the display size at the fixed photo width.
func (img *Image) extentEMU() (cx, cy int64) {
	cx = int64(PhotoWidthInch * emuPerInch)
	cy = cx * int64(img.Height) / int64(img.Width)
	return cx, cy
}
