package cards

import "strings"

type FilterOptions struct {
	Habitats    []string `form:"habitat"`
	Foods       []string `form:"food"`
	PowerColors []string `form:"color"`
	Nests       []string `form:"nest"`
	FreeWords   string   `form:"q"`
}

func containsAny(hay []string, needles []string) bool {
	for _, n := range needles {
		for _, h := range hay {
			if h == n {
				return true
			}
		}
	}
	return false
}

// Filter keeps presets matching every non-empty option. Within one option any
// value may match; free words must all appear in the name, scientific name,
// power text or flavor text.
func Filter(presets []Preset, opt FilterOptions) []Preset {
	var out []Preset
	for _, p := range presets {
		f := p.Form
		if len(opt.Habitats) > 0 && !containsAny(f.Habitats, opt.Habitats) {
			continue
		}
		if len(opt.Foods) > 0 {
			var foods []string
			for food, n := range f.Food {
				if n > 0 {
					foods = append(foods, food)
				}
			}
			if !containsAny(foods, opt.Foods) {
				continue
			}
		}
		if len(opt.PowerColors) > 0 && !containsAny([]string{f.PowerColor}, opt.PowerColors) {
			continue
		}
		if len(opt.Nests) > 0 && !containsAny([]string{f.Nest}, opt.Nests) {
			continue
		}
		if opt.FreeWords != "" {
			hay := strings.ToLower(strings.Join([]string{f.Name, f.Native, f.Scientific, f.PowerText, f.Flavor}, " "))
			ok := true
			for _, k := range strings.Fields(opt.FreeWords) {
				if !strings.Contains(hay, strings.ToLower(k)) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
