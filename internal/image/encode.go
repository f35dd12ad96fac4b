package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ParseFormat normalizes a requested output format; empty means PNG.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatWebP:
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// ContentType returns the MIME type of an output format.
func ContentType(format string) string {
	if format == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// Encode writes img to w in the given format. WebP output is lossless.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
		return nil
	case FormatPNG, "":
		return png.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(img image.Image, format string) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := Encode(buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
