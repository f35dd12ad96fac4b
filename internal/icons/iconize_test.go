package icons

import (
	"strings"
	"testing"
)

func TestIconizeWithoutTokensIsIdentity(t *testing.T) {
	cases := []string{
		"Draw 2 cards.",
		"no [Brackets] with capitals",
		"[123] digits are not a token",
		"<b>already markup</b>",
		"[]",
	}
	for _, in := range cases {
		if got := Iconize(in, false, false); got != in {
			t.Errorf("Iconize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestIconizeEmpty(t *testing.T) {
	if got := Iconize("", true, true); got != "" {
		t.Errorf("Iconize(\"\") = %q, want empty", got)
	}
}

func TestIconizeTrailingPunctuation(t *testing.T) {
	for _, p := range []string{".", ",", ";", "-", ")"} {
		got := Iconize("Gain 1 [fish]"+p+" then rest", false, false)
		want := `Gain 1 <span class="nobr">` + Picture("fish") + p + `</span> then rest`
		if got != want {
			t.Errorf("punctuation %q:\n got %s\nwant %s", p, got, want)
		}
	}
}

func TestIconizeBareIcon(t *testing.T) {
	cases := map[string]string{
		"[fish] x":   Picture("fish") + " x",
		"end [fish]": "end " + Picture("fish"),
		"[fish]!":    Picture("fish") + "!",
		"[a][b].":    Picture("a") + `<span class="nobr">` + Picture("b") + `.</span>`,
	}
	for in, want := range cases {
		if got := Iconize(in, false, false); got != want {
			t.Errorf("Iconize(%q):\n got %s\nwant %s", in, got, want)
		}
	}
	if got := Iconize("[fish]!", false, false); strings.Contains(got, "nobr") {
		t.Errorf("icon followed by '!' should not be wrapped: %s", got)
	}
}

func TestIconizeReferencesBothSiblings(t *testing.T) {
	got := Iconize("[wild]", false, false)
	for _, want := range []string{"assets/icons/wild.webp", "assets/icons/wild.png"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %s", want, got)
		}
	}
}

func TestIconizeDarkSeed(t *testing.T) {
	got := Iconize("[seed]", true, false)
	if !strings.Contains(got, "seed-dark.png") || !strings.Contains(got, "seed-dark.webp") {
		t.Errorf("dark output missing seed-dark assets: %s", got)
	}
	if strings.Contains(got, "/seed.png") || strings.Contains(got, "/seed.webp") {
		t.Errorf("dark output still references plain seed: %s", got)
	}
}

func TestIconizeDarkIsIdempotent(t *testing.T) {
	once := Iconize("[seed] and [fish]", true, false)
	twice := Pipeline[1].Rewrite(once)
	if once != twice {
		t.Errorf("dark rewrite not idempotent:\n once %s\ntwice %s", once, twice)
	}
}

func TestIconizeDarkGlowSeed(t *testing.T) {
	got := Iconize("[seed]", true, true)
	if !strings.Contains(got, "seed-dark-glow.png") || !strings.Contains(got, "seed-dark-glow.webp") {
		t.Errorf("missing seed-dark-glow: %s", got)
	}
	if strings.Contains(got, "/seed-glow.") {
		t.Errorf("seed rewritten to plain glow: %s", got)
	}
}

func TestIconizeGlowOnly(t *testing.T) {
	got := Iconize("[seed] [forest] [predator]", false, true)
	for _, want := range []string{"seed-glow.png", "forest-glow.webp", "predator.png"} {
		if !strings.Contains(got, want) {
			t.Errorf("glow output missing %q: %s", want, got)
		}
	}
	if strings.Contains(got, "predator-glow") {
		t.Errorf("predator has no glow variant: %s", got)
	}
}

func TestIconizeUnknownNameStillRenders(t *testing.T) {
	got := Iconize("[not_an-icon]", false, false)
	if got != Picture("not_an-icon") {
		t.Errorf("unknown token = %s", got)
	}
}

func TestPipelineOrder(t *testing.T) {
	var names []string
	for _, st := range Pipeline {
		names = append(names, st.Name)
	}
	if got := strings.Join(names, ","); got != "tokens,dark,glow" {
		t.Errorf("pipeline order = %s, want tokens,dark,glow", got)
	}
}

func TestResolve(t *testing.T) {
	ref := Resolve(BaseDir, "nectar")
	if ref.WebP != "assets/icons/nectar.webp" || ref.PNG != "assets/icons/nectar.png" {
		t.Errorf("Resolve = %+v", ref)
	}
}

func TestRenderPictureEscapes(t *testing.T) {
	got := RenderPicture(`x"y`, PictureOptions{})
	if strings.Contains(got, `x"y`) {
		t.Errorf("attribute not escaped: %s", got)
	}
}
