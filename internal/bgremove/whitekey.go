package bgremove

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// WhiteKey makes near-white pixels transparent. It suits line-art
// silhouettes on a plain white background.
type WhiteKey struct {
	// Threshold is compared against 16-bit RGBA channels.
	Threshold uint32
}

// Remove implements Remover.
func (k WhiteKey) Remove(ctx context.Context, data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img := imaging.Clone(src)
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if r > k.Threshold && g > k.Threshold && b > k.Threshold && a > k.Threshold {
				img.Set(x, y, color.Transparent)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WhiteKeyInitializer returns an Initializer for a WhiteKey remover.
func WhiteKeyInitializer(threshold int) Initializer {
	return func(context.Context) (Remover, error) {
		return WhiteKey{Threshold: uint32(threshold)}, nil
	}
}
