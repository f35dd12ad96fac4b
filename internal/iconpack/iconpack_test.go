package iconpack

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const redSquare = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10"><rect x="0" y="0" width="10" height="10" fill="#ff0000"/></svg>`

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{0, 0, 255, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func iconTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "seed.png"))
	writePNG(t, filepath.Join(root, "expansion-indicators", "core.png"))
	writePNG(t, filepath.Join(root, "drafts", "old.png"))
	if err := os.WriteFile(filepath.Join(root, "fish.svg"), []byte(redSquare), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestScan(t *testing.T) {
	root := iconTree(t)
	got, err := Scan(root, nil, []string{"drafts"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{filepath.Join("expansion-indicators", "core.png"), "fish.svg", "seed.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan = %v, want %v", got, want)
	}

	got, err = Scan(root, []string{"*.svg"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"fish.svg"}) {
		t.Errorf("svg only = %v", got)
	}
}

func TestRunWritesSiblings(t *testing.T) {
	root := iconTree(t)
	sources, err := Scan(root, nil, []string{"drafts/**"})
	if err != nil {
		t.Fatal(err)
	}
	results := Run(context.Background(), Config{Root: root, Workers: 2, SVGScale: 2}, sources)
	for _, r := range results {
		if r.Error != "" {
			t.Errorf("%s: %s", r.Source, r.Error)
		}
	}
	for _, name := range []string{"seed.webp", "fish.png", "fish.webp", "expansion-indicators/core.webp"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "drafts", "old.webp")); err == nil {
		t.Error("excluded icon was converted")
	}

	f, err := os.Open(filepath.Join(root, "fish.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 20 || cfg.Height != 20 {
		t.Errorf("fish.png = %dx%d, want 20x20", cfg.Width, cfg.Height)
	}

	again := Run(context.Background(), Config{Root: root, Workers: 1}, sources)
	for _, r := range again {
		if len(r.Wrote) != 0 {
			t.Errorf("second run rewrote %v", r.Wrote)
		}
	}
}

func TestRunReportsBadSource(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	results := Run(context.Background(), Config{Root: root, Reporter: &LineReporter{Out: &out}}, []string{"broken.png"})
	if results[0].Error == "" {
		t.Error("expected an error for a broken png")
	}
	if !strings.Contains(out.String(), "[1/1] broken.png") {
		t.Errorf("reporter output = %q", out.String())
	}
}

func TestRasterizeSVG(t *testing.T) {
	img, err := RasterizeSVG(strings.NewReader(redSquare), 1)
	if err != nil {
		t.Fatalf("RasterizeSVG: %v", err)
	}
	r, g, b, a := img.At(5, 5).RGBA()
	if r>>8 != 0xff || g != 0 || b != 0 || a>>8 != 0xff {
		t.Errorf("center = %d,%d,%d,%d, want opaque red", r>>8, g>>8, b>>8, a>>8)
	}
}
