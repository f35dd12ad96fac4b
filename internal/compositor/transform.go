// Package compositor holds the silhouette layer transform and derives the
// style applied to the card's background layer.
package compositor

import "fmt"

const (
	DefaultScalePercent = 85
	MinScalePercent     = 10

	// DefaultSilhouette is shown when neither an upload nor a URL is set.
	DefaultSilhouette = "assets/silhouettes/southern-ground-hornbill-2.png"
)

// Transform is the offset, zoom and mirror state of the silhouette layer.
type Transform struct {
	OffsetX      int  `json:"offset_x" yaml:"offset_x"`
	OffsetY      int  `json:"offset_y" yaml:"offset_y"`
	ScalePercent int  `json:"scale_percent" yaml:"scale_percent"`
	Flipped      bool `json:"flipped" yaml:"flipped"`
}

// Default returns {0, 0, 85, false}.
func Default() Transform {
	return Transform{ScalePercent: DefaultScalePercent}
}

// Nudge moves the layer. Offsets are not clamped.
func Nudge(t Transform, dx, dy int) Transform {
	t.OffsetX += dx
	t.OffsetY += dy
	return t
}

// Zoom changes the scale, never going below MinScalePercent.
func Zoom(t Transform, delta int) Transform {
	t.ScalePercent = max(MinScalePercent, t.ScalePercent+delta)
	return t
}

// Flip toggles the horizontal mirror.
func Flip(t Transform) Transform {
	t.Flipped = !t.Flipped
	return t
}

// Reset discards every nudge, zoom and flip.
func Reset() Transform {
	return Default()
}

// Normalize raises an out-of-range scale (e.g. a zero value decoded from a
// card file) to the floor.
func (t Transform) Normalize() Transform {
	if t.ScalePercent < MinScalePercent {
		if t.ScalePercent == 0 {
			t.ScalePercent = DefaultScalePercent
		} else {
			t.ScalePercent = MinScalePercent
		}
	}
	return t
}

// PositionLabel is the text shown next to the nudge controls.
func (t Transform) PositionLabel() string {
	if t.OffsetX == 0 && t.OffsetY == 0 {
		return "0, 0"
	}
	return fmt.Sprintf("%dpx, %dpx", t.OffsetX, t.OffsetY)
}

// SizeLabel is the text shown next to the zoom controls.
func (t Transform) SizeLabel() string {
	return fmt.Sprintf("%d%%", t.ScalePercent)
}
