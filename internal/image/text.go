package imagepkg

import (
	"fmt"
	"image"
	"image/color"
	"path"
	"strings"
	"sync"
	"unicode"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type fontStyle int

const (
	styleRegular fontStyle = iota
	styleBold
	styleItalic
)

// fontSet parses the Go fonts once. Faces keep glyph caches and are not safe
// for concurrent use, so every render asks for its own.
type fontSet struct {
	once  sync.Once
	err   error
	fonts map[fontStyle]*opentype.Font
}

func (set *fontSet) load() error {
	set.once.Do(func() {
		set.fonts = map[fontStyle]*opentype.Font{}
		for style, ttf := range map[fontStyle][]byte{
			styleRegular: goregular.TTF,
			styleBold:    gobold.TTF,
			styleItalic:  goitalic.TTF,
		} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				set.err = fmt.Errorf("parsing font: %w", err)
				return
			}
			set.fonts[style] = f
		}
	})
	return set.err
}

func (set *fontSet) face(style fontStyle, size float64) (font.Face, error) {
	if err := set.load(); err != nil {
		return nil, err
	}
	return opentype.NewFace(set.fonts[style], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// inline is one unbreakable run of power or flavor text: a word or an icon.
// space marks whitespace before it, the only place a line may wrap.
type inline struct {
	text  string
	icon  string // asset path without extension, e.g. icons/seed-dark-glow
	bold  bool
	space bool
}

type inlineBuilder struct {
	items []inline
	space bool
}

func (b *inlineBuilder) addText(s string, bold bool) {
	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		b.items = append(b.items, inline{text: word.String(), bold: bold, space: b.space})
		b.space = false
		word.Reset()
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			flush()
			b.space = true
			continue
		}
		word.WriteRune(r)
	}
	flush()
}

func (b *inlineBuilder) addIcon(src string) {
	b.items = append(b.items, inline{icon: iconAsset(src), space: b.space})
	b.space = false
}

// iconAsset maps an <img src> such as assets/icons/fish.png to icons/fish.
func iconAsset(src string) string {
	p := assetPath(src)
	return strings.TrimSuffix(p, path.Ext(p))
}

// parseInline flattens an iconized HTML fragment into words and icons.
// <picture> contributes its <img> fallback; text inside span.intro is bold.
func parseInline(fragment string) ([]inline, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}
	b := &inlineBuilder{}
	var walk func(n *html.Node, bold bool)
	walk = func(n *html.Node, bold bool) {
		switch n.Type {
		case html.TextNode:
			b.addText(n.Data, bold)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Img:
				if src := getAttr(n, "src"); src != "" {
					b.addIcon(src)
				}
				return
			case atom.Source:
				return
			case atom.Span:
				if hasClass(n, "intro") {
					bold = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, bold)
		}
	}
	for _, n := range nodes {
		walk(n, false)
	}
	return b.items, nil
}

func getAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textBox draws inline runs into a rectangle, wrapping at whitespace and
// dropping whatever does not fit vertically.
type textBox struct {
	rect     image.Rectangle
	regular  font.Face
	bold     font.Face
	color    color.Color
	iconSize int
	icons    func(asset string) image.Image
}

func (tb textBox) faceFor(it inline) font.Face {
	if it.bold && tb.bold != nil {
		return tb.bold
	}
	return tb.regular
}

func (tb textBox) width(it inline) int {
	if it.icon != "" {
		return tb.iconSize
	}
	return font.MeasureString(tb.faceFor(it), it.text).Ceil()
}

// draw renders items and returns the number of lines used.
func (tb textBox) draw(dst draw.Image, items []inline) int {
	if len(items) == 0 {
		return 0
	}
	m := tb.regular.Metrics()
	ascent := m.Ascent.Ceil()
	descent := m.Descent.Ceil()
	lineHeight := max(m.Height.Ceil(), tb.iconSize+2)
	spaceW := font.MeasureString(tb.regular, " ").Ceil()

	x := tb.rect.Min.X
	baseline := tb.rect.Min.Y + ascent + (lineHeight-ascent-descent)/2
	lines := 1
	src := image.NewUniform(tb.color)

	for _, it := range items {
		w := tb.width(it)
		gap := 0
		if it.space && x > tb.rect.Min.X {
			gap = spaceW
		}
		if x+gap+w > tb.rect.Max.X && x > tb.rect.Min.X && it.space {
			x = tb.rect.Min.X
			gap = 0
			baseline += lineHeight
			lines++
		}
		if baseline+descent > tb.rect.Max.Y {
			return lines - 1
		}
		x += gap

		if it.icon != "" {
			if tb.icons != nil {
				if icon := tb.icons(it.icon); icon != nil {
					fitted := imaging.Fit(icon, tb.iconSize, tb.iconSize, imaging.Lanczos)
					top := baseline + descent - tb.iconSize + (lineHeight-ascent-descent)/4
					pt := image.Pt(x+(tb.iconSize-fitted.Bounds().Dx())/2, top)
					draw.Draw(dst, fitted.Bounds().Add(pt), fitted, fitted.Bounds().Min, draw.Over)
				}
			}
		} else {
			d := font.Drawer{
				Dst:  dst,
				Src:  src,
				Face: tb.faceFor(it),
				Dot:  fixed.P(x, baseline),
			}
			d.DrawString(it.text)
		}
		x += w
	}
	return lines
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawString draws a single line with its top-left corner at pt.
func drawString(dst draw.Image, face font.Face, c color.Color, pt image.Point, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// drawStringRight draws a single line ending at the right edge x.
func drawStringRight(dst draw.Image, face font.Face, c color.Color, right, top int, s string) {
	drawString(dst, face, c, image.Pt(right-measure(face, s), top), s)
}
