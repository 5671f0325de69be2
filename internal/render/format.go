package render

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is a raster encoding.
type Format int

const (
	PNG Format = iota
	JPEG
	GIF
	TIFF
	BMP
)

var formatNames = map[Format]string{
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	TIFF: "tiff",
	BMP:  "bmp",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	return f.String()
}

// ParseFormat resolves a format name or file extension, with or without a
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "tif", "tiff":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	}
	return PNG, fmt.Errorf("unsupported image format %q", s)
}

func encode(w io.Writer, im image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, im)
	case JPEG:
		return jpeg.Encode(w, im, &jpeg.Options{Quality: 90})
	case GIF:
		return gif.Encode(w, im, nil)
	case TIFF:
		return tiff.Encode(w, im, nil)
	case BMP:
		return bmp.Encode(w, im)
	default:
		return fmt.Errorf("unsupported image format %v", f)
	}
}
