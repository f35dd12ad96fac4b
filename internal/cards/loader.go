package cards

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a ready-made card the editor can be filled from.
type Preset struct {
	ID   string    `json:"id" yaml:"id"`
	Form FormState `json:"form" yaml:"form"`
}

func parseListCell(s string) []string {
	s = strings.ReplaceAll(s, "|", "/")
	parts := strings.Split(s, "/")
	out := []string{}
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" && t != "-" {
			out = append(out, t)
		}
	}
	return out
}

// parseFoodCell reads "seed:2/fish" style cells; a bare name counts once.
func parseFoodCell(s string) (map[string]int, error) {
	out := map[string]int{}
	for _, item := range parseListCell(s) {
		name, qty, found := strings.Cut(item, ":")
		n := 1
		if found {
			v, err := strconv.Atoi(strings.TrimSpace(qty))
			if err != nil {
				return nil, fmt.Errorf("food %q: %w", item, err)
			}
			n = v
		}
		out[strings.TrimSpace(name)] += n
	}
	return out, nil
}

func parseBoolCell(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// LoadPresetsFromDataDir loads presets from a data directory (best-effort).
// birds.csv is the main list; custom_birds.csv and presets.yaml are optional.
func LoadPresetsFromDataDir(dataDir string) ([]Preset, error) {
	files := []string{
		filepath.Join(dataDir, "birds.csv"),
		filepath.Join(dataDir, "custom_birds.csv"),
		filepath.Join(dataDir, "presets.yaml"),
	}

	var all []Preset
	var found bool
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		found = true
		load := loadSingleCSV
		if filepath.Ext(f) == ".yaml" {
			load = loadYAML
		}
		ps, err := load(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
		all = append(all, ps...)
	}
	if !found {
		return nil, fmt.Errorf("no preset files found in %s", dataDir)
	}
	return all, nil
}

// loadYAML reads a list of presets. Entries without an id get the slug of
// their name.
func loadYAML(path string) ([]Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ps []Preset
	if err := yaml.Unmarshal(b, &ps); err != nil {
		return nil, err
	}
	out := ps[:0]
	for _, p := range ps {
		if p.Form.Name == "" {
			continue
		}
		if p.ID == "" {
			p.ID = Slug(p.Form.Name)
		}
		p.Form = p.Form.Normalize()
		out = append(out, p)
	}
	return out, nil
}

func loadSingleCSV(path string) ([]Preset, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	r := csv.NewReader(fp)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv %s has no header", path)
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Preset{}
	for line, row := range rows[1:] {
		f := FormState{
			Name:            get(row, "name"),
			Native:          get(row, "native"),
			Scientific:      get(row, "scientific"),
			Habitats:        parseListCell(get(row, "habitats")),
			FoodAlternative: parseBoolCell(get(row, "food_or")),
			FoodStar:        parseBoolCell(get(row, "food_star")),
			Points:          get(row, "points"),
			Nest:            get(row, "nest"),
			Wingspan:        get(row, "wingspan"),
			PowerColor:      get(row, "power_color"),
			PowerIcons:      parseListCell(get(row, "power_icons")),
			PowerText:       get(row, "power_text"),
			Flavor:          get(row, "flavor"),
			Continents:      parseListCell(get(row, "continents")),
			Expansion:       get(row, "expansion"),
		}
		if f.Name == "" {
			continue
		}
		food, err := parseFoodCell(get(row, "food"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+2, err)
		}
		f.Food = food
		if eggs := get(row, "eggs"); eggs != "" && eggs != "-" {
			v, err := strconv.Atoi(eggs)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: eggs: %w", path, line+2, err)
			}
			f.Eggs = v
		}

		id := get(row, "id")
		if id == "" {
			id = Slug(f.Name)
		}
		out = append(out, Preset{ID: id, Form: f.Normalize()})
	}
	return out, nil
}
