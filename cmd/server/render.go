package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
	"github.com/youruser/birdcard/internal/config"
	"github.com/youruser/birdcard/internal/export"
	imagepkg "github.com/youruser/birdcard/internal/image"
	"github.com/youruser/birdcard/internal/logging"
	"github.com/youruser/birdcard/internal/util"
	"gopkg.in/yaml.v3"
)

var (
	renderOut    string
	renderFormat string
)

// cardFile is the YAML layout accepted by the render command.
type cardFile struct {
	Card      cards.FormState       `yaml:"card"`
	Transform *compositor.Transform `yaml:"transform"`
	Image     string                `yaml:"image"`
}

func readCardFile(path string) (cardFile, error) {
	var cf cardFile
	b, err := os.ReadFile(path)
	if err != nil {
		return cf, err
	}
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return cf, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cf, nil
}

func (cf cardFile) transform() compositor.Transform {
	if cf.Transform == nil {
		return compositor.Default()
	}
	return cf.Transform.Normalize()
}

// source reads local images into a data URL so they are decoded like uploads;
// URLs and asset paths are passed through.
func (cf cardFile) source(baseDir string) (compositor.Source, error) {
	ref := strings.TrimSpace(cf.Image)
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "assets/") {
		return compositor.Source{}.WithURL(ref), nil
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return compositor.Source{}, err
	}
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".webp":
		mime = "image/webp"
	}
	return compositor.Source{}.WithUpload(imagepkg.EncodeDataURL(mime, b)), nil
}

var renderCmd = &cobra.Command{
	Use:   "render <card.yaml>...",
	Short: "Render card files to images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger := logging.NewLogger("birdcard", cfg.LogLevel, os.Stderr)

		assetFS := os.DirFS(cfg.AssetDir)
		renderer := imagepkg.NewCardRenderer(
			imagepkg.NewAssetStore(assetFS),
			&imagepkg.Loader{Assets: assetFS, Client: util.NewClient(cfg.DownloadTimeout), MaxBytes: cfg.MaxUploadBytes},
			cfg.ExportScale,
			logger.Named("render"),
		)

		ctx := context.Background()
		for _, path := range args {
			cf, err := readCardFile(path)
			if err != nil {
				return err
			}
			src, err := cf.source(filepath.Dir(path))
			if err != nil {
				return err
			}
			res, err := export.Export(ctx, renderer, cf.Card, cf.transform(), src, renderFormat)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out := filepath.Join(renderOut, res.Filename)
			if err := util.WriteFile(out, res.Data); err != nil {
				return err
			}
			logger.Info("rendered card", "input", path, "output", out, "bytes", len(res.Data))
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", ".", "output directory")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", imagepkg.FormatPNG, "png or webp")
	rootCmd.AddCommand(renderCmd)
}
