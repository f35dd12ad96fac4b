package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/youruser/birdcard/internal/api"
	"github.com/youruser/birdcard/internal/bgremove"
	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/config"
	imagepkg "github.com/youruser/birdcard/internal/image"
	"github.com/youruser/birdcard/internal/logging"
	"github.com/youruser/birdcard/internal/render"
	"github.com/youruser/birdcard/internal/session"
	"github.com/youruser/birdcard/internal/util"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor and card API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return runServer(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// removerInitializer picks the background removal backend.
func removerInitializer(cfg config.Config) bgremove.Initializer {
	switch cfg.Remover {
	case config.RemoverHTTP:
		return bgremove.RemoteInitializer(cfg.RemoverURL, cfg.RemoverTimeout)
	case config.RemoverNone:
		return bgremove.DisabledInitializer()
	default:
		return bgremove.WhiteKeyInitializer(cfg.WhiteThreshold)
	}
}

// previewIcons lists every icon the renderer can draw so it can be decoded
// once at start-up.
func previewIcons() []string {
	names := []string{"map", "smallegg", render.NoFoodToken[1 : len(render.NoFoodToken)-1]}
	names = append(names, cards.Habitats...)
	names = append(names, cards.NestTypes...)
	for _, f := range cards.FoodTypes {
		names = append(names, f, f+"-glow")
	}
	names = append(names, "seed-dark", "seed-dark-glow")
	for _, c := range cards.Continents {
		names = append(names, c.Icon)
	}
	for _, p := range cards.PowerIcons {
		names = append(names, p.Asset)
	}
	for _, h := range cards.Habitats {
		names = append(names, h+"-glow")
	}
	return names
}

func runServer(cfg config.Config) error {
	logger := logging.NewLogger("birdcard", cfg.LogLevel, os.Stderr)
	if cfg.ConfigPath != "" {
		logger.Info("loaded config", "path", cfg.ConfigPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	assetFS := os.DirFS(cfg.AssetDir)
	assets := imagepkg.NewAssetStore(assetFS)
	// Silhouette URLs come from users; only trusted setups may reach
	// private hosts.
	client := util.NewPublicClient(cfg.DownloadTimeout)
	if cfg.AllowPrivateURLs {
		client = util.NewClient(cfg.DownloadTimeout)
	}
	loader := &imagepkg.Loader{
		Assets:   assetFS,
		Client:   client,
		MaxBytes: cfg.MaxUploadBytes,
	}
	renderer := imagepkg.NewCardRenderer(assets, loader, cfg.ExportScale, logger.Named("render"))

	handle := bgremove.NewHandle(removerInitializer(cfg))
	handle.Preload(ctx)
	logger.Info("background removal loading", "backend", cfg.Remover)

	dataDir := cfg.DataDir
	h := &api.Handlers{
		Sessions:   session.NewStore(cfg.SessionTTL),
		Removal:    bgremove.NewService(handle, loader, logger.Named("bgremove")),
		Rasterizer: renderer,
		Presets: func() ([]cards.Preset, error) {
			return cards.LoadPresetsFromDataDir(dataDir)
		},
		PublicURL:      cfg.PublicURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Breakpoint:     cfg.Breakpoint,
		Logger:         logger.Named("api"),
	}
	if _, err := cards.LoadPresetsFromDataDir(dataDir); err != nil {
		logger.Warn("presets unavailable", "error", err)
	}

	srv := api.NewServer(cfg.Addr, h, api.RouteOptions{AssetDir: cfg.AssetDir, Editor: true})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := assets.Preload(gctx, previewIcons()); err != nil {
			logger.Warn("icon preload failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shut down", "remover", handle.State().String())
	return nil
}
