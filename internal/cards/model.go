package cards

import "strings"

// Habitats in the order they appear on the card.
var Habitats = []string{"forest", "grassland", "wetland"}

// FoodTypes in the order their icons are laid out in a food cost.
var FoodTypes = []string{"invertebrate", "seed", "fish", "fruit", "rodent", "nectar", "wild"}

// Continent is a checkbox key and the overlay icon it lights up on the map.
type Continent struct {
	Key  string
	Icon string
}

// Continents in overlay order.
var Continents = []Continent{
	{"na", "map_na"},
	{"amn", "map_amn"},
	{"ams", "map_ams"},
	{"e", "map_e"},
	{"a", "map_a"},
	{"af", "map_af"},
	{"o", "map_o"},
	{"an", "map_an"},
}

// PowerTitles maps a power color to the heading of the power text.
var PowerTitles = map[string]string{
	"brown":  "WHEN ACTIVATED",
	"white":  "WHEN PLAYED",
	"pink":   "ONCE BETWEEN TURNS",
	"teal":   "ROUND END",
	"yellow": "GAME END",
}

// PowerColors lists every accepted power color.
var PowerColors = []string{"brown", "pink", "teal", "yellow", "white"}

// PowerIcons maps a power icon checkbox to its asset name.
var PowerIcons = []struct {
	Key   string
	Asset string
}{
	{"predator", "predator"},
	{"flocking", "flocking"},
	{"bonus", "bonus_cards"},
}

// NestTypes lists the nest pictures the editor offers.
var NestTypes = []string{"bowl", "cavity", "ground", "platform", "wild"}

// Expansions lists the indicator images under the expansion-indicators
// directory, in menu order.
var Expansions = []string{"core", "european", "oceania", "asia", "americas"}

// FormState is every editor field. It is re-read in full on every render.
type FormState struct {
	Name       string `json:"name" yaml:"name"`
	Native     string `json:"native" yaml:"native"`
	Scientific string `json:"scientific" yaml:"scientific"`

	Habitats []string `json:"habitats" yaml:"habitats"`

	Food            map[string]int `json:"food" yaml:"food" binding:"dive,lte=6"`
	FoodAlternative bool           `json:"food_or" yaml:"food_or"`
	FoodStar        bool           `json:"food_star" yaml:"food_star"`

	Points   string `json:"points" yaml:"points"`
	Nest     string `json:"nest" yaml:"nest"`
	Eggs     int    `json:"eggs" yaml:"eggs" binding:"lte=6"`
	Wingspan string `json:"wingspan" yaml:"wingspan"`

	PowerColor string   `json:"power_color" yaml:"power_color"`
	PowerIcons []string `json:"power_icons" yaml:"power_icons"`
	PowerText  string   `json:"power_text" yaml:"power_text"`
	Flavor     string   `json:"flavor" yaml:"flavor"`

	Continents []string `json:"continents" yaml:"continents"`

	Expansion      string `json:"expansion" yaml:"expansion"`
	ExpansionColor string `json:"expansion_color" yaml:"expansion_color"`
	ExpansionText  string `json:"expansion_text" yaml:"expansion_text"`
}

// CustomExpansion is the expansion value that renders a colored text badge
// instead of an indicator image.
const CustomExpansion = "custom"

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// HasHabitat reports whether the habitat box is checked.
func (f FormState) HasHabitat(h string) bool { return contains(f.Habitats, h) }

// HasContinent reports whether the continent box is checked.
func (f FormState) HasContinent(key string) bool { return contains(f.Continents, key) }

// HasPowerIcon reports whether the power icon box is checked.
func (f FormState) HasPowerIcon(key string) bool { return contains(f.PowerIcons, key) }

// Quantity limits of the editor inputs. Every renderer emits one element per
// unit, so counts are clamped to these wherever a form enters the service.
const (
	MaxFood = 6
	MaxEggs = 6
)

// FoodCount returns the quantity for a food type clamped to [0, MaxFood].
func (f FormState) FoodCount(food string) int {
	return min(max(0, f.Food[food]), MaxFood)
}

// EggCount returns the egg capacity clamped to [0, MaxEggs].
func (f FormState) EggCount() int {
	return min(max(0, f.Eggs), MaxEggs)
}

// Normalize clamps every quantity into its editor range and drops unknown
// food types.
func (f FormState) Normalize() FormState {
	f.Eggs = f.EggCount()
	if f.Food != nil {
		food := make(map[string]int, len(f.Food))
		for _, name := range FoodTypes {
			if n := f.FoodCount(name); n > 0 {
				food[name] = n
			}
		}
		f.Food = food
	}
	return f
}

// Slug collapses whitespace runs to hyphens and lower-cases the result.
func Slug(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}
