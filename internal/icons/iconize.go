package icons

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\[([a-z_-]+)\]`)

// nonBreakingFollowers are the characters that stay glued to a preceding icon.
const nonBreakingFollowers = ".,;-)"

// Options selects the optional rewrite stages.
type Options struct {
	Dark bool
	Glow bool
}

// Stage is one rewrite pass over the intermediate markup.
type Stage struct {
	Name    string
	Enabled func(Options) bool
	Rewrite func(string) string
}

// glowVariants is ordered: seed must be rewritten before seed-dark so that a
// dark seed becomes seed-dark-glow and never seed-glow.
var glowVariants = []struct {
	from, to string
}{
	{"forest", "forest-glow"},
	{"grassland", "grassland-glow"},
	{"wetland", "wetland-glow"},
	{"seed", "seed-glow"},
	{"seed-dark", "seed-dark-glow"},
	{"invertebrate", "invertebrate-glow"},
	{"fish", "fish-glow"},
	{"fruit", "fruit-glow"},
	{"rodent", "rodent-glow"},
	{"nectar", "nectar-glow"},
	{"wild", "wild-glow"},
}

type assetRewrite struct {
	pattern *regexp.Regexp
	repl    string
}

var (
	darkRewrite = assetRewrite{
		pattern: regexp.MustCompile(`seed\.(png|webp)`),
		repl:    "seed-dark.$1",
	}
	glowRewrites = compileGlow()
)

func compileGlow() []assetRewrite {
	out := make([]assetRewrite, 0, len(glowVariants))
	for _, v := range glowVariants {
		out = append(out, assetRewrite{
			pattern: regexp.MustCompile(regexp.QuoteMeta(v.from) + `\.(png|webp)`),
			repl:    v.to + ".$1",
		})
	}
	return out
}

// Pipeline runs tokens, then dark, then glow. Later stages match file names
// produced by earlier ones, so the order must not change.
var Pipeline = []Stage{
	{
		Name:    "tokens",
		Enabled: func(Options) bool { return true },
		Rewrite: substituteTokens,
	},
	{
		Name:    "dark",
		Enabled: func(o Options) bool { return o.Dark },
		Rewrite: func(s string) string {
			return darkRewrite.pattern.ReplaceAllString(s, darkRewrite.repl)
		},
	},
	{
		Name:    "glow",
		Enabled: func(o Options) bool { return o.Glow },
		Rewrite: func(s string) string {
			for _, r := range glowRewrites {
				s = r.pattern.ReplaceAllString(s, r.repl)
			}
			return s
		},
	},
}

// Iconize replaces every [name] token in text with an inline icon picture.
// Names are not validated; an unknown name yields a broken image reference.
func Iconize(text string, dark, glow bool) string {
	return IconizeWith(text, Options{Dark: dark, Glow: glow})
}

// IconizeWith is Iconize with the stage switches in a struct.
func IconizeWith(text string, opts Options) string {
	if text == "" {
		return ""
	}
	out := text
	for _, st := range Pipeline {
		if st.Enabled(opts) {
			out = st.Rewrite(out)
		}
	}
	return out
}

func substituteTokens(s string) string {
	matches := tokenPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		name := s[m[2]:m[3]]
		end := m[1]
		if end < len(s) && strings.IndexByte(nonBreakingFollowers, s[end]) >= 0 {
			b.WriteString(`<span class="nobr">`)
			b.WriteString(Picture(name))
			b.WriteByte(s[end])
			b.WriteString("</span>")
			end++
		} else {
			b.WriteString(Picture(name))
		}
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
