// Command iconpack writes the missing PNG and WebP siblings of every icon
// under an asset directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/youruser/birdcard/internal/iconpack"
	"github.com/youruser/birdcard/internal/logging"
)

var (
	include  []string
	exclude  []string
	workers  int
	svgScale float64
	force    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "iconpack [dir]",
	Short: "Generate PNG/WebP icon pairs",
	Long: `iconpack scans an icon directory for PNG and SVG sources and writes
whichever of the .png and .webp siblings is missing, so every icon picture
has both formats to choose from.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "assets/icons"
		if len(args) == 1 {
			root = args[0]
		}
		logger := logging.NewLogger("iconpack", logLevel, os.Stderr)

		sources, err := iconpack.Scan(root, include, exclude)
		if err != nil {
			return err
		}
		logger.Debug("scanned", "root", root, "sources", len(sources))

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		results := iconpack.Run(ctx, iconpack.Config{
			Root:     root,
			Workers:  workers,
			SVGScale: svgScale,
			Force:    force,
			Reporter: iconpack.NewReporter(),
		}, sources)

		var written, failed int
		for _, r := range results {
			written += len(r.Wrote)
			if r.Error != "" {
				failed++
				logger.Error("icon failed", "source", r.Source, "error", r.Error)
			}
		}
		logger.Info("done", "sources", len(sources), "written", written, "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d icons failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringSliceVar(&include, "include", iconpack.DefaultInclude, "glob patterns to include")
	rootCmd.Flags().StringSliceVar(&exclude, "exclude", nil, "glob patterns to exclude")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "parallel conversions")
	rootCmd.Flags().Float64Var(&svgScale, "svg-scale", 2, "SVG rasterization scale relative to the view box")
	rootCmd.Flags().BoolVar(&force, "force", false, "rewrite existing siblings")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
