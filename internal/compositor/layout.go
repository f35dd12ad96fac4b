package compositor

import "image"

// Placement computes where the silhouette lands inside a layer of the given
// size, in layer pixels, at the given upscale factor. The image width is
// ScalePercent of the layer width with height following the aspect ratio, and
// the position follows CSS "calc(50% + Xpx)": the centered origin plus the
// offset. Mirroring is applied to the whole layer afterwards, not here.
func Placement(t Transform, layer, img image.Point, scale int) image.Rectangle {
	t = t.Normalize()
	if scale < 1 {
		scale = 1
	}
	w := layer.X * t.ScalePercent / 100
	h := 0
	if img.X > 0 {
		h = w * img.Y / img.X
	}
	x := (layer.X-w)/2 + t.OffsetX*scale
	y := (layer.Y-h)/2 + t.OffsetY*scale
	return image.Rect(x, y, x+w, y+h)
}
