package share

import (
	"errors"
	"strings"
	"testing"

	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
)

func TestEncodeDecode(t *testing.T) {
	in := FromSession(
		cards.FormState{Name: "Barn Owl", Food: map[string]int{"rodent": 2}, Continents: []string{"e", "na"}},
		compositor.Nudge(compositor.Default(), 4, -2),
		compositor.Source{URL: "https://example.com/owl.png"},
	)
	token, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token is not URL safe: %s", token)
	}
	out, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Form.Name != "Barn Owl" || out.Form.FoodCount("rodent") != 2 || out.Transform != in.Transform || out.Image != in.Image {
		t.Errorf("decoded = %+v", out)
	}
}

func TestDecodeClampsQuantities(t *testing.T) {
	token, err := Encode(Card{Form: cards.FormState{
		Name: "Greedy",
		Eggs: 2_000_000,
		Food: map[string]int{"seed": 2_000_000},
	}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Form.Eggs != cards.MaxEggs || out.Form.Food["seed"] != cards.MaxFood {
		t.Errorf("decoded quantities = %d eggs, %v food", out.Form.Eggs, out.Form.Food)
	}
}

func TestFromSessionDropsUploads(t *testing.T) {
	c := FromSession(cards.FormState{}, compositor.Default(), compositor.Source{DataURL: "data:image/png;base64,AAAA"})
	if c.Image != "" {
		t.Errorf("upload should not be shared, got %q", c.Image)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, tok := range []string{"", "!!!", "aGVsbG8", strings.Repeat("a", MaxTokenLen+1)} {
		if _, err := Decode(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Decode(%.10q) err = %v", tok, err)
		}
	}
}

func TestSummary(t *testing.T) {
	got := Summary(cards.FormState{
		Name:            "Mallard",
		Habitats:        []string{"wetland", "grassland"},
		Food:            map[string]int{"seed": 1, "invertebrate": 1},
		FoodAlternative: true,
		PowerColor:      "white",
		PowerText:       "Draw 1 [card].",
	})
	want := []string{
		"# Mallard",
		"Habitats: grassland, wetland",
		"Food: [invertebrate]/[seed]",
		"Power: WHEN PLAYED: Draw 1 [card].",
	}
	if got != strings.Join(want, "\n") {
		t.Errorf("Summary =\n%s\nwant\n%s", got, strings.Join(want, "\n"))
	}
}
