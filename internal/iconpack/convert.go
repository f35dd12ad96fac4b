package iconpack

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	imagepkg "github.com/youruser/birdcard/internal/image"
	"github.com/youruser/birdcard/internal/util"
)

// Config holds the settings shared by one run.
type Config struct {
	Root     string
	Workers  int
	SVGScale float64
	// Force rewrites siblings that already exist.
	Force    bool
	Reporter Reporter
}

// Result is the outcome for one source icon.
type Result struct {
	Source string   `json:"source"`
	Wrote  []string `json:"wrote,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Run converts sources with a worker pool. Results are in source order.
func Run(ctx context.Context, cfg Config, sources []string) []Result {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	rep := cfg.Reporter
	if rep == nil {
		rep = nopReporter{}
	}

	results := make([]Result, len(sources))
	var processed atomic.Int64
	rep.Start(len(sources))

	work := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Source: sources[idx], Error: err.Error()}
				} else {
					results[idx] = processIcon(cfg, sources[idx])
				}
				rep.Update(int(processed.Add(1)), sources[idx])
			}
		}()
	}
	for i := range sources {
		work <- i
	}
	close(work)
	wg.Wait()
	rep.Finish()
	return results
}

func processIcon(cfg Config, rel string) Result {
	res := Result{Source: rel}
	src := filepath.Join(cfg.Root, rel)
	stem := strings.TrimSuffix(src, filepath.Ext(src))
	pngPath, webpPath := stem+".png", stem+".webp"

	var img image.Image
	var err error
	if strings.EqualFold(filepath.Ext(src), ".svg") {
		img, err = rasterizeSVGFile(src, cfg.SVGScale)
	} else {
		img, err = imaging.Open(src)
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	for _, target := range []struct {
		path   string
		format string
	}{
		{pngPath, imagepkg.FormatPNG},
		{webpPath, imagepkg.FormatWebP},
	} {
		if target.path == src || (!cfg.Force && exists(target.path)) {
			continue
		}
		data, err := imagepkg.EncodeBytes(img, target.format)
		if err != nil {
			res.Error = fmt.Sprintf("%s encode: %v", target.format, err)
			return res
		}
		if err := util.WriteFile(target.path, data); err != nil {
			res.Error = err.Error()
			return res
		}
		rel, _ := filepath.Rel(cfg.Root, target.path)
		res.Wrote = append(res.Wrote, rel)
	}
	return res
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func rasterizeSVGFile(path string, scale float64) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return RasterizeSVG(f, scale)
}

// RasterizeSVG draws an SVG at scale times its view box onto a transparent
// canvas.
func RasterizeSVG(r io.Reader, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, err
	}
	w := int(icon.ViewBox.W * scale)
	h := int(icon.ViewBox.H * scale)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has an empty view box")
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1)
	return img, nil
}
