package imagepkg

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-hclog"
	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
	"github.com/youruser/birdcard/internal/icons"
	"github.com/youruser/birdcard/internal/render"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// Card geometry in CSS pixels; everything is multiplied by the renderer scale.
const (
	CardWidth  = 400
	CardHeight = 600
	cardRadius = 16
)

var (
	layerRect      = image.Rect(96, 78, 392, 330)
	foodRect       = image.Rect(8, 134, 92, 206)
	powerRect      = image.Rect(8, 338, 392, 452)
	flavorRect     = image.Rect(16, 462, 290, 592)
	continentRect  = image.Rect(300, 522, 392, 592)
	expansionPoint = image.Pt(8, 564)

	cardFill   = color.NRGBA{0xf5, 0xee, 0xdc, 0xff}
	inkColor   = color.NRGBA{0x22, 0x22, 0x22, 0xff}
	mutedColor = color.NRGBA{0x55, 0x55, 0x55, 0xff}
	lightInk   = color.NRGBA{0xff, 0xff, 0xff, 0xff}

	powerFills = map[string]color.NRGBA{
		"brown":  {0x8b, 0x5a, 0x2b, 0xff},
		"pink":   {0xc9, 0x6f, 0x8c, 0xff},
		"teal":   {0x2f, 0x85, 0x82, 0xff},
		"yellow": {0xb8, 0x8a, 0x1c, 0xff},
		"white":  {0xff, 0xff, 0xff, 0xff},
	}
	noPowerFill = color.NRGBA{0xe8, 0xe2, 0xd0, 0xff}
)

// CardRenderer rasterizes a card the way the preview lays it out. Missing
// icons are skipped like broken images in the editor.
type CardRenderer struct {
	Assets *AssetStore
	Loader *Loader
	Scale  int
	Logger hclog.Logger

	fonts fontSet
}

func NewCardRenderer(assets *AssetStore, loader *Loader, scale int, logger hclog.Logger) *CardRenderer {
	if scale < 1 {
		scale = 1
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CardRenderer{Assets: assets, Loader: loader, Scale: scale, Logger: logger}
}

func (r *CardRenderer) px(v int) int { return v * r.Scale }

func (r *CardRenderer) rect(rc image.Rectangle) image.Rectangle {
	return image.Rect(r.px(rc.Min.X), r.px(rc.Min.Y), r.px(rc.Max.X), r.px(rc.Max.Y))
}

func (r *CardRenderer) face(style fontStyle, size float64) (font.Face, error) {
	return r.fonts.face(style, size*float64(r.Scale))
}

func (r *CardRenderer) asset(base string) image.Image {
	if r.Assets == nil {
		return nil
	}
	img, err := r.Assets.Image(base)
	if err != nil {
		r.Logger.Debug("asset unavailable", "asset", base, "error", err)
		return nil
	}
	return img
}

func (r *CardRenderer) icon(name string) image.Image {
	return r.asset("icons/" + name)
}

// Rasterize draws the card on a transparent canvas at the renderer scale.
func (r *CardRenderer) Rasterize(ctx context.Context, form cards.FormState, t compositor.Transform, src compositor.Source) (image.Image, error) {
	canvas := image.NewNRGBA(image.Rect(0, 0, r.px(CardWidth), r.px(CardHeight)))
	fillRoundedRect(canvas, canvas.Bounds(), r.px(cardRadius), cardFill)

	r.drawSilhouette(ctx, canvas, t, src)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	steps := []func(*image.NRGBA, cards.FormState) error{
		r.drawTitle,
		r.drawLeftColumn,
		r.drawPower,
		r.drawFlavor,
		r.drawContinents,
		r.drawExpansion,
	}
	for _, step := range steps {
		if err := step(canvas, form); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

func (r *CardRenderer) drawSilhouette(ctx context.Context, dst *image.NRGBA, t compositor.Transform, src compositor.Source) {
	if r.Loader == nil {
		return
	}
	ref := compositor.Recompute(t, src).Image
	img, err := r.Loader.Load(ctx, ref)
	if err != nil {
		r.Logger.Warn("silhouette skipped", "source", shortRef(ref), "error", err)
		return
	}
	lr := r.rect(layerRect)
	layer := SilhouetteLayer(img, t, lr.Size(), r.Scale)
	draw.Draw(dst, lr, layer, image.Point{}, draw.Over)
}

// SilhouetteLayer renders img into a transparent layer of the given size:
// scaled to ScalePercent of the layer width, centered plus offset, and the
// whole layer mirrored when flipped. Only the visible part of the source is
// resampled, so large zooms stay cheap.
func SilhouetteLayer(img image.Image, t compositor.Transform, size image.Point, scale int) *image.NRGBA {
	layer := imaging.New(size.X, size.Y, color.NRGBA{})
	b := img.Bounds()
	placed := compositor.Placement(t, size, b.Size(), scale)
	visible := placed.Intersect(layer.Bounds())
	if visible.Empty() || placed.Dx() == 0 || placed.Dy() == 0 {
		if t.Flipped {
			return imaging.FlipH(layer)
		}
		return layer
	}

	crop := image.Rect(
		b.Min.X+(visible.Min.X-placed.Min.X)*b.Dx()/placed.Dx(),
		b.Min.Y+(visible.Min.Y-placed.Min.Y)*b.Dy()/placed.Dy(),
		b.Min.X+(visible.Max.X-placed.Min.X)*b.Dx()/placed.Dx(),
		b.Min.Y+(visible.Max.Y-placed.Min.Y)*b.Dy()/placed.Dy(),
	)
	if crop.Dx() < 1 {
		crop.Max.X = crop.Min.X + 1
	}
	if crop.Dy() < 1 {
		crop.Max.Y = crop.Min.Y + 1
	}
	part := imaging.Resize(imaging.Crop(img, crop), visible.Dx(), visible.Dy(), imaging.Lanczos)
	draw.Draw(layer, visible, part, image.Point{}, draw.Over)

	if t.Flipped {
		return imaging.FlipH(layer)
	}
	return layer
}

func (r *CardRenderer) drawTitle(dst *image.NRGBA, f cards.FormState) error {
	bold, err := r.face(styleBold, 20)
	if err != nil {
		return err
	}
	italic, err := r.face(styleItalic, 11)
	if err != nil {
		return err
	}
	regular, err := r.face(styleRegular, 11)
	if err != nil {
		return err
	}

	drawString(dst, bold, inkColor, image.Pt(r.px(100), r.px(14)), f.Name)
	y := 40
	if native := strings.TrimSpace(f.Native); native != "" {
		drawString(dst, regular, mutedColor, image.Pt(r.px(100), r.px(y)), native)
		y += 15
	}
	drawString(dst, italic, mutedColor, image.Pt(r.px(100), r.px(y)), f.Scientific)

	if ws := render.Wingspan(f.Wingspan); ws != "" {
		drawStringRight(dst, regular, inkColor, r.px(layerRect.Max.X-4), r.px(layerRect.Max.Y-16), ws)
	}
	return nil
}

func (r *CardRenderer) drawLeftColumn(dst *image.NRGBA, f cards.FormState) error {
	y := 10
	for _, h := range cards.Habitats {
		if !f.HasHabitat(h) {
			continue
		}
		r.pasteIcon(dst, r.icon(h), image.Rect(10, y, 46, y+36))
		y += 40
	}

	regular, err := r.face(styleRegular, 12)
	if err != nil {
		return err
	}
	items, err := parseInline(icons.Iconize(render.FoodCost(f), false, false))
	if err != nil {
		return fmt.Errorf("food cost: %w", err)
	}
	tb := textBox{
		rect:     r.rect(foodRect),
		regular:  regular,
		color:    inkColor,
		iconSize: r.px(20),
		icons:    r.asset,
	}
	tb.draw(dst, items)

	points, err := r.face(styleBold, 22)
	if err != nil {
		return err
	}
	drawString(dst, points, inkColor, image.Pt(r.px(14), r.px(212)), f.Points)

	if f.Nest != "" {
		r.pasteIcon(dst, r.icon(f.Nest), image.Rect(10, 250, 40, 280))
	}
	egg := r.icon("smallegg")
	for i := 0; i < f.EggCount(); i++ {
		x := 46 + i*14
		if x+12 > layerRect.Min.X {
			break
		}
		r.pasteIcon(dst, egg, image.Rect(x, 258, x+12, 270))
	}
	return nil
}

func (r *CardRenderer) drawPower(dst *image.NRGBA, f cards.FormState) error {
	fill, ok := powerFills[f.PowerColor]
	if !ok {
		fill = noPowerFill
	}
	pr := r.rect(powerRect)
	draw.Draw(dst, pr, image.NewUniform(fill), image.Point{}, draw.Over)

	x := powerRect.Min.X + 4
	for _, pi := range cards.PowerIcons {
		if f.HasPowerIcon(pi.Key) {
			r.pasteIcon(dst, r.icon(pi.Asset), image.Rect(x, powerRect.Min.Y+6, x+22, powerRect.Min.Y+28))
			x += 26
		}
	}

	regular, err := r.face(styleRegular, 12)
	if err != nil {
		return err
	}
	bold, err := r.face(styleBold, 12)
	if err != nil {
		return err
	}
	items, err := parseInline(render.PowerText(f.PowerColor, f.PowerText))
	if err != nil {
		return fmt.Errorf("power text: %w", err)
	}
	ink := inkColor
	if render.IsDarkPower(f.PowerColor) {
		ink = lightInk
	}
	tb := textBox{
		rect:     image.Rect(r.px(x+4), pr.Min.Y+r.px(6), pr.Max.X-r.px(6), pr.Max.Y-r.px(4)),
		regular:  regular,
		bold:     bold,
		color:    ink,
		iconSize: r.px(16),
		icons:    r.asset,
	}
	tb.draw(dst, items)
	return nil
}

func (r *CardRenderer) drawFlavor(dst *image.NRGBA, f cards.FormState) error {
	if strings.TrimSpace(f.Flavor) == "" {
		return nil
	}
	italic, err := r.face(styleItalic, 11)
	if err != nil {
		return err
	}
	b := &inlineBuilder{}
	b.addText(f.Flavor, false)
	tb := textBox{rect: r.rect(flavorRect), regular: italic, color: mutedColor}
	tb.draw(dst, b.items)
	return nil
}

func (r *CardRenderer) drawContinents(dst *image.NRGBA, f cards.FormState) error {
	for _, name := range render.ContinentIcons(f) {
		r.pasteIcon(dst, r.icon(name), continentRect)
	}
	return nil
}

func (r *CardRenderer) drawExpansion(dst *image.NRGBA, f cards.FormState) error {
	switch f.Expansion {
	case "":
		return nil
	case cards.CustomExpansion:
		c, ok := parseHexColor(f.ExpansionColor)
		if !ok {
			c = mutedColor
		}
		badge := image.Rect(expansionPoint.X, expansionPoint.Y, expansionPoint.X+28, expansionPoint.Y+28)
		fillRoundedRect(dst, r.rect(badge), r.px(14), c)
		if text := strings.TrimSpace(f.ExpansionText); text != "" {
			face, err := r.face(styleBold, 10)
			if err != nil {
				return err
			}
			w := measure(face, text)
			drawString(dst, face, lightInk, image.Pt(r.px(badge.Min.X+14)-w/2, r.px(badge.Min.Y+8)), text)
		}
	default:
		r.pasteIcon(dst, r.asset("icons/expansion-indicators/"+f.Expansion),
			image.Rect(expansionPoint.X, expansionPoint.Y, expansionPoint.X+28, expansionPoint.Y+28))
	}
	return nil
}

// pasteIcon fits img into the box given in CSS pixels, centered.
func (r *CardRenderer) pasteIcon(dst *image.NRGBA, img image.Image, box image.Rectangle) {
	if img == nil {
		return
	}
	sb := r.rect(box)
	fitted := imaging.Fit(img, sb.Dx(), sb.Dy(), imaging.Lanczos)
	fb := fitted.Bounds()
	pt := image.Pt(sb.Min.X+(sb.Dx()-fb.Dx())/2, sb.Min.Y+(sb.Dy()-fb.Dy())/2)
	draw.Draw(dst, fb.Add(pt), fitted, fb.Min, draw.Over)
}

// fillRoundedRect paints c inside rc, leaving the rounded-off corners untouched.
func fillRoundedRect(dst *image.NRGBA, rc image.Rectangle, radius int, c color.Color) {
	radius = min(radius, rc.Dx()/2, rc.Dy()/2)
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		for x := rc.Min.X; x < rc.Max.X; x++ {
			if !insideRounded(x, y, rc, radius) {
				continue
			}
			if nc.A == 0xff {
				dst.SetNRGBA(x, y, nc)
			} else {
				dst.Set(x, y, blend(dst.NRGBAAt(x, y), nc))
			}
		}
	}
}

func insideRounded(x, y int, rc image.Rectangle, radius int) bool {
	if radius <= 0 {
		return true
	}
	cx, cy := x, y
	switch {
	case x < rc.Min.X+radius:
		cx = rc.Min.X + radius
	case x >= rc.Max.X-radius:
		cx = rc.Max.X - radius - 1
	}
	switch {
	case y < rc.Min.Y+radius:
		cy = rc.Min.Y + radius
	case y >= rc.Max.Y-radius:
		cy = rc.Max.Y - radius - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}

func blend(dst, src color.NRGBA) color.NRGBA {
	a := uint32(src.A)
	inv := 255 - a
	outA := a + uint32(dst.A)*inv/255
	if outA == 0 {
		return color.NRGBA{}
	}
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*uint32(dst.A)*inv/255) / outA)
	}
	return color.NRGBA{mix(src.R, dst.R), mix(src.G, dst.G), mix(src.B, dst.B), uint8(outA)}
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, true
}
