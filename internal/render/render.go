// Package render derives every card preview region from the editor form.
// Each region is computed independently from the current FormState; nothing
// depends on a previous render.
package render

import (
	"html"
	"strings"

	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/icons"
)

const (
	// NoFoodToken is rendered when a card costs nothing.
	NoFoodToken = "[no-food]"

	expansionBase = "assets/icons/expansion-indicators/"
)

// Preview holds one HTML fragment per card region. Text regions are escaped;
// the rest is markup built from icon names.
type Preview struct {
	Name          string `json:"name"`
	Native        string `json:"native"`
	NativeVisible bool   `json:"native_visible"`
	Scientific    string `json:"scientific"`
	Habitats      string `json:"habitats"`
	Food          string `json:"food"`
	Points        string `json:"points"`
	Nest          string `json:"nest"`
	Eggs          string `json:"eggs"`
	Wingspan      string `json:"wingspan"`
	PowerClass    string `json:"power_class"`
	PowerIcons    string `json:"power_icons"`
	PowerText     string `json:"power_text"`
	Flavor        string `json:"flavor"`
	Continents    string `json:"continents"`
	Expansion     string `json:"expansion"`
	CustomOptions bool   `json:"custom_expansion_options"`
}

// Render re-derives the whole preview from f.
func Render(f cards.FormState) Preview {
	native := strings.TrimSpace(f.Native)
	return Preview{
		Name:          html.EscapeString(f.Name),
		Native:        html.EscapeString(native),
		NativeVisible: native != "",
		Scientific:    html.EscapeString(f.Scientific),
		Habitats:      Habitats(f),
		Food:          icons.Iconize(FoodCost(f), false, false),
		Points:        html.EscapeString(f.Points),
		Nest:          Nest(f.Nest),
		Eggs:          Eggs(f.EggCount()),
		Wingspan:      html.EscapeString(Wingspan(f.Wingspan)),
		PowerClass:    PowerClass(f.PowerColor),
		PowerIcons:    PowerIcons(f),
		PowerText:     PowerText(f.PowerColor, f.PowerText),
		Flavor:        html.EscapeString(f.Flavor),
		Continents:    Continents(f),
		Expansion:     Expansion(f),
		CustomOptions: f.Expansion == cards.CustomExpansion,
	}
}

// Habitats renders the checked habitats in fixed order. The middle icon of a
// full set of three gets an extra class so it can sit between the others.
func Habitats(f cards.FormState) string {
	var checked []string
	for _, h := range cards.Habitats {
		if f.HasHabitat(h) {
			checked = append(checked, h)
		}
	}
	var b strings.Builder
	for i, h := range checked {
		cls := "habitat-wrapper"
		if len(checked) == 3 && i == 1 {
			cls = "habitat-wrapper habitat-2-3"
		}
		b.WriteString(icons.RenderPicture(h, icons.PictureOptions{PictureClass: cls, ImgClass: "habitat"}))
	}
	return b.String()
}

// FoodCost expands food quantities into icon tokens: n repetitions of [f] per
// food in fixed order, joined by "/" for alternative costs and "+" otherwise,
// prefixed with "*" when starred. A zero total yields NoFoodToken.
func FoodCost(f cards.FormState) string {
	var tokens []string
	for _, food := range cards.FoodTypes {
		for i := 0; i < f.FoodCount(food); i++ {
			tokens = append(tokens, "["+food+"]")
		}
	}
	sep := "+"
	if f.FoodAlternative {
		sep = "/"
	}
	cost := strings.Join(tokens, sep)
	if cost == "" {
		cost = NoFoodToken
	}
	if f.FoodStar {
		cost = "*" + cost
	}
	return cost
}

// Nest renders the nest picture, or nothing when no nest type is selected.
func Nest(nest string) string {
	if nest == "" {
		return ""
	}
	return icons.RenderPicture(nest, icons.PictureOptions{})
}

// Eggs renders one small egg per egg of capacity, at most cards.MaxEggs.
func Eggs(n int) string {
	n = min(n, cards.MaxEggs)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(icons.RenderPicture("smallegg", icons.PictureOptions{PictureClass: "egg", Alt: "egg"}))
	}
	return b.String()
}

// Wingspan appends the unit to a non-empty wingspan.
func Wingspan(ws string) string {
	ws = strings.TrimSpace(ws)
	if ws == "" {
		return ""
	}
	return ws + "cm"
}

// PowerClass returns the row class for a known power color.
func PowerClass(color string) string {
	if _, ok := cards.PowerTitles[color]; ok {
		return color
	}
	return ""
}

// IsDarkPower reports whether power text sits on a dark background and so
// needs the dark and glow icon variants.
func IsDarkPower(color string) bool {
	return color != "" && color != "white"
}

// PowerIcons renders the checked power icons in fixed order.
func PowerIcons(f cards.FormState) string {
	var b strings.Builder
	for _, pi := range cards.PowerIcons {
		if f.HasPowerIcon(pi.Key) {
			b.WriteString("<span>")
			b.WriteString(icons.Picture(pi.Asset))
			b.WriteString("</span>")
		}
	}
	return b.String()
}

// PowerText renders the title for the color followed by the iconized text.
func PowerText(color, text string) string {
	var b strings.Builder
	if color != "" {
		b.WriteString(`<span class="intro">`)
		b.WriteString(cards.PowerTitles[color])
		b.WriteString(": </span>")
	}
	dark := IsDarkPower(color)
	b.WriteString("<span>")
	b.WriteString(icons.Iconize(text, dark, dark))
	b.WriteString("</span>")
	return b.String()
}

// ContinentIcons returns the base map followed by one overlay per checked
// continent in enumeration order, regardless of the order they were checked.
func ContinentIcons(f cards.FormState) []string {
	out := []string{"map"}
	for _, c := range cards.Continents {
		if f.HasContinent(c.Key) {
			out = append(out, c.Icon)
		}
	}
	return out
}

// Continents renders the map with its overlays.
func Continents(f cards.FormState) string {
	var b strings.Builder
	b.WriteString(icons.RenderPicture("map", icons.PictureOptions{ImgClass: "continent-base"}))
	for _, c := range cards.Continents {
		if f.HasContinent(c.Key) {
			b.WriteString(icons.RenderPicture(c.Icon, icons.PictureOptions{ImgClass: "continent-top", Alt: c.Key}))
		}
	}
	return b.String()
}

// Expansion renders the expansion indicator image, or a colored badge for a
// custom expansion.
func Expansion(f cards.FormState) string {
	switch f.Expansion {
	case "":
		return ""
	case cards.CustomExpansion:
		var b strings.Builder
		b.WriteString(`<span id="custom-expansion-indicator" class="custom-expansion-indicator"`)
		if c := strings.TrimSpace(f.ExpansionColor); c != "" {
			b.WriteString(` style="background-color: `)
			b.WriteString(html.EscapeString(c))
			b.WriteString(`"`)
		}
		b.WriteString(">")
		b.WriteString(html.EscapeString(strings.TrimSpace(f.ExpansionText)))
		b.WriteString("</span>")
		return b.String()
	default:
		return icons.RenderPicture(f.Expansion, icons.PictureOptions{Base: expansionBase, ImgClass: "expansion-indicator"})
	}
}
