package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/tmacro/numix-cursor-hidpi/internal/theme"
)

// Config is the immutable build configuration threaded through the
// pipeline. It is assembled once from theme.toml plus flag overrides and
// validated before any work starts.
type Config struct {
	Name        string    `toml:"name"`
	Comment     string    `toml:"comment"`
	BaseSize    int       `toml:"base_size"`
	Multipliers []float64 `toml:"multipliers"`
	SrcDir      string    `toml:"src_dir"`
	OutputDir   string    `toml:"output_dir"`
	BuildDir    string    `toml:"build_dir"`
	Strict      bool      `toml:"strict"`
	Jobs        int       `toml:"jobs"`
	Rasterizer  string    `toml:"rasterizer"`
}

const (
	RasterizerNative   = "native"
	RasterizerInkscape = "inkscape"
)

// Default returns the configuration the HiDPI theme is built with when no
// theme.toml or flags override it.
func Default() Config {
	return Config{
		Name:        "Numix-HIDPI",
		Comment:     "Numix cursor theme for HiDPI displays",
		BaseSize:    24,
		Multipliers: []float64{1.0, 1.25, 5.0 / 3, 1.875, 25.0 / 12, 55.0 / 24, 2.5, 10.0 / 3},
		SrcDir:      "src",
		OutputDir:   "dist",
		BuildDir:    "build",
		Jobs:        8,
		Rasterizer:  RasterizerNative,
	}
}

// Load reads theme.toml from dir if present and merges it over the
// defaults. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, "theme.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", theme.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate checks the static invariants the rest of the pipeline relies on.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: theme name is empty", theme.ErrInvalidConfig)
	}
	if c.BaseSize <= 0 {
		return fmt.Errorf("%w: base_size %d, must be positive", theme.ErrInvalidConfig, c.BaseSize)
	}
	if len(c.Multipliers) == 0 {
		return fmt.Errorf("%w: multipliers is empty", theme.ErrInvalidConfig)
	}
	for _, m := range c.Multipliers {
		if m <= 0 {
			return fmt.Errorf("%w: multiplier %v, must be positive", theme.ErrInvalidConfig, m)
		}
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs %d, must be at least 1", theme.ErrInvalidConfig, c.Jobs)
	}
	switch c.Rasterizer {
	case RasterizerNative, RasterizerInkscape:
	default:
		return fmt.Errorf("%w: unknown rasterizer %q", theme.ErrInvalidConfig, c.Rasterizer)
	}
	return nil
}

// ThemeDir is the theme root inside the output directory.
func (c Config) ThemeDir() string {
	return filepath.Join(c.OutputDir, c.Name)
}

// CursorsDir is where compiled cursor artifacts and aliases land.
func (c Config) CursorsDir() string {
	return filepath.Join(c.ThemeDir(), "cursors")
}

// IconsDir holds the intermediate per-size PNG renders.
func (c Config) IconsDir() string {
	return filepath.Join(c.BuildDir, "icons")
}
