// Package icons turns icon names and marked-up text into <picture> markup.
package icons

import (
	"html"
	"strings"
)

// BaseDir is the asset root every icon reference resolves under.
const BaseDir = "assets/icons/"

// Ref is the pair of sibling assets an icon resolves to.
type Ref struct {
	Name string
	WebP string
	PNG  string
}

// Resolve returns the WebP and PNG siblings of name under base.
func Resolve(base, name string) Ref {
	return Ref{
		Name: name,
		WebP: base + name + ".webp",
		PNG:  base + name + ".png",
	}
}

// PictureOptions controls the attributes of a rendered <picture>.
type PictureOptions struct {
	Base         string // defaults to BaseDir
	PictureClass string
	ImgClass     string
	Alt          string // defaults to the icon name
	AriaLabel    string
}

// Picture renders the inline glyph used inside iconized text.
func Picture(name string) string {
	return RenderPicture(name, PictureOptions{
		PictureClass: "icon-picture",
		ImgClass:     "icon-image",
		AriaLabel:    name + " icon",
	})
}

// RenderPicture renders a <picture> with a WebP source, a PNG source and a
// PNG <img> fallback.
func RenderPicture(name string, o PictureOptions) string {
	base := o.Base
	if base == "" {
		base = BaseDir
	}
	alt := o.Alt
	if alt == "" {
		alt = name
	}
	ref := Resolve(base, name)

	var b strings.Builder
	b.WriteString("<picture")
	writeAttr(&b, "class", o.PictureClass)
	b.WriteString(`><source type="image/webp" srcset="`)
	b.WriteString(html.EscapeString(ref.WebP))
	b.WriteString(`"><source type="image/png" srcset="`)
	b.WriteString(html.EscapeString(ref.PNG))
	b.WriteString(`"><img`)
	writeAttr(&b, "class", o.ImgClass)
	writeAttr(&b, "src", ref.PNG)
	writeAttr(&b, "alt", alt)
	writeAttr(&b, "aria-label", o.AriaLabel)
	b.WriteString("></picture>")
	return b.String()
}

func writeAttr(b *strings.Builder, key, val string) {
	if val == "" && key != "alt" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(val))
	b.WriteByte('"')
}
