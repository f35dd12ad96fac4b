// Package export turns a card into a downloadable image file.
package export

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
	imagepkg "github.com/youruser/birdcard/internal/image"
)

// DefaultName is used when the card has no title.
const DefaultName = "bird-card"

// Rasterizer draws a card into an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, form cards.FormState, t compositor.Transform, src compositor.Source) (image.Image, error)
}

// Result is an encoded card ready to be sent as an attachment.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Filename derives the download name from the card title: trimmed, whitespace
// runs collapsed to hyphens, lower-cased, with the format's extension.
func Filename(title, format string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = DefaultName
	}
	if format == "" {
		format = imagepkg.FormatPNG
	}
	return cards.Slug(name) + "." + format
}

// Export rasterizes and encodes the card. Errors are returned unchanged in
// meaning; callers restore their trigger state themselves.
func Export(ctx context.Context, r Rasterizer, form cards.FormState, t compositor.Transform, src compositor.Source, format string) (Result, error) {
	format, err := imagepkg.ParseFormat(format)
	if err != nil {
		return Result{}, err
	}
	img, err := r.Rasterize(ctx, form, t, src)
	if err != nil {
		return Result{}, fmt.Errorf("rasterizing card: %w", err)
	}
	data, err := imagepkg.EncodeBytes(img, format)
	if err != nil {
		return Result{}, fmt.Errorf("encoding card: %w", err)
	}
	return Result{
		Filename:    Filename(form.Name, format),
		ContentType: imagepkg.ContentType(format),
		Data:        data,
	}, nil
}
