package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmacro/numix-cursor-hidpi/internal/cache"
	"github.com/tmacro/numix-cursor-hidpi/internal/config"
	"github.com/tmacro/numix-cursor-hidpi/internal/pipeline"
)

var (
	buildSrc         string
	buildOut         string
	buildBaseSize    int
	buildMultipliers []float64
	buildStrict      bool
	buildJobs        int
	buildRasterizer  string
	buildNoCache     bool
	buildVerbose     bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildSrc, "src", "", "source tree directory (default from theme.toml)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output directory (default from theme.toml)")
	buildCmd.Flags().IntVar(&buildBaseSize, "base-size", 0, "base cursor size in pixels")
	buildCmd.Flags().Float64SliceVar(&buildMultipliers, "multipliers", nil, "size multipliers, e.g. 1.0,1.25,2.0")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "fail the run if any cursor or alias fails")
	buildCmd.Flags().IntVar(&buildJobs, "jobs", 0, "max concurrent renders and bundles")
	buildCmd.Flags().StringVar(&buildRasterizer, "rasterizer", "", "rasterizer backend: native or inkscape")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "disable the render cache")
	buildCmd.Flags().BoolVar(&buildVerbose, "verbose", false, "enable debug logging")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render, bundle and package the cursor theme",
	// Failures are already printed in detail above the summary; keep
	// cobra from repeating the returned error so each failure is
	// reported once (Execute prints the one-line exit reason).
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(".")
		if err != nil {
			return err
		}
		if buildSrc != "" {
			cfg.SrcDir = buildSrc
		}
		if buildOut != "" {
			cfg.OutputDir = buildOut
		}
		if buildBaseSize != 0 {
			cfg.BaseSize = buildBaseSize
		}
		if len(buildMultipliers) != 0 {
			cfg.Multipliers = buildMultipliers
		}
		if buildJobs != 0 {
			cfg.Jobs = buildJobs
		}
		if buildRasterizer != "" {
			cfg.Rasterizer = buildRasterizer
		}
		if cmd.Flags().Changed("strict") {
			cfg.Strict = buildStrict
		}

		opts := []pipeline.Option{pipeline.WithLogger(buildLogger())}
		if !buildNoCache {
			c, err := cache.Open(cfg.BuildDir)
			if err != nil {
				warn("Render cache unavailable: %v", err)
			} else {
				defer c.Close()
				opts = append(opts, pipeline.WithCache(c))
			}
		}

		info("Building %s...", cfg.Name)
		report, err := pipeline.New(cfg, opts...).Run(context.Background())
		if err != nil {
			return err
		}

		for _, name := range report.Built {
			infoSub(":: :: %s", name)
		}
		for _, f := range report.Failed {
			fail("!! !! %s: %v", f.Name, f.Err)
		}
		for _, aliasErr := range report.AliasErrors {
			fail("!! !! %v", aliasErr)
		}
		info("%s", report.Summary())

		if report.ExitCode(cfg.Strict) != 0 {
			return fmt.Errorf("build failed: %d cursors, %d aliases", len(report.Failed), len(report.AliasErrors))
		}
		return nil
	},
}

func buildLogger() *slog.Logger {
	level := slog.LevelWarn
	if buildVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
