package share

import (
	"fmt"
	"strings"

	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/render"
)

// Summary renders a card as plain text, one attribute per line, in card
// order.
func Summary(f cards.FormState) string {
	lines := []string{}
	if f.Name != "" {
		lines = append(lines, "# "+f.Name)
	}
	if f.Scientific != "" {
		lines = append(lines, "Scientific: "+f.Scientific)
	}
	var habs []string
	for _, h := range cards.Habitats {
		if f.HasHabitat(h) {
			habs = append(habs, h)
		}
	}
	if len(habs) > 0 {
		lines = append(lines, "Habitats: "+strings.Join(habs, ", "))
	}
	lines = append(lines, "Food: "+render.FoodCost(f))
	if f.Points != "" {
		lines = append(lines, "Points: "+f.Points)
	}
	if f.Nest != "" || f.Eggs > 0 {
		lines = append(lines, fmt.Sprintf("Nest: %s, %d eggs", f.Nest, f.Eggs))
	}
	if ws := render.Wingspan(f.Wingspan); ws != "" {
		lines = append(lines, "Wingspan: "+ws)
	}
	if f.PowerText != "" {
		title := cards.PowerTitles[f.PowerColor]
		if title != "" {
			title += ": "
		}
		lines = append(lines, "Power: "+title+f.PowerText)
	}
	return strings.Join(lines, "\n")
}
