package compositor

import (
	"fmt"
	"strings"
)

// Source is where the silhouette image comes from. An upload always wins
// over a typed URL.
type Source struct {
	DataURL string `json:"data_url,omitempty"`
	URL     string `json:"url,omitempty"`
}

// WithUpload replaces the source with an uploaded image and clears the URL.
func (s Source) WithUpload(dataURL string) Source {
	return Source{DataURL: dataURL}
}

// WithURL replaces the source with a typed URL and drops any upload.
func (s Source) WithURL(url string) Source {
	return Source{URL: strings.TrimSpace(url)}
}

// Ref returns the user-provided reference, or "" when nothing was provided.
func (s Source) Ref() string {
	if s.DataURL != "" {
		return s.DataURL
	}
	return strings.TrimSpace(s.URL)
}

// Resolve returns the image to display, falling back to DefaultSilhouette.
func (s Source) Resolve() string {
	if ref := s.Ref(); ref != "" {
		return ref
	}
	return DefaultSilhouette
}

// Style is the CSS applied to the silhouette layer.
type Style struct {
	Image     string `json:"image"`
	Size      string `json:"size"`
	Position  string `json:"position"`
	Transform string `json:"transform"`
}

// Recompute derives the layer style from t and src. It never fails.
func Recompute(t Transform, src Source) Style {
	t = t.Normalize()
	st := Style{
		Image:    src.Resolve(),
		Size:     fmt.Sprintf("%d%%", t.ScalePercent),
		Position: fmt.Sprintf("calc(50%% + %dpx) calc(50%% + %dpx)", t.OffsetX, t.OffsetY),
	}
	if t.Flipped {
		st.Transform = "scaleX(-1)"
	}
	return st
}

// CSS renders the style as an inline declaration list.
func (s Style) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "background-image: url('%s'); ", strings.ReplaceAll(s.Image, "'", "%27"))
	fmt.Fprintf(&b, "background-size: %s; ", s.Size)
	fmt.Fprintf(&b, "background-position: %s;", s.Position)
	if s.Transform != "" {
		fmt.Fprintf(&b, " transform: %s;", s.Transform)
	}
	return b.String()
}
