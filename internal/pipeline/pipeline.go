// Package pipeline drives a full theme build: rasterize every cursor source
// at every size, bundle the bitmaps into Xcursor artifacts, resolve aliases
// and write the installable theme directory.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tmacro/numix-cursor-hidpi/internal/alias"
	"github.com/tmacro/numix-cursor-hidpi/internal/cache"
	"github.com/tmacro/numix-cursor-hidpi/internal/config"
	"github.com/tmacro/numix-cursor-hidpi/internal/render"
	"github.com/tmacro/numix-cursor-hidpi/internal/theme"
	"github.com/tmacro/numix-cursor-hidpi/internal/xcursor"
)

type Pipeline struct {
	cfg   config.Config
	ras   render.Rasterizer
	comp  xcursor.Compiler
	cache *cache.Cache
	log   *slog.Logger
}

// Option configures a Pipeline beyond its defaults.
type Option func(*Pipeline)

// WithRasterizer substitutes the rasterizer, mainly for tests.
func WithRasterizer(r render.Rasterizer) Option {
	return func(p *Pipeline) { p.ras = r }
}

// WithCompiler substitutes the cursor compiler, mainly for tests.
func WithCompiler(c xcursor.Compiler) Option {
	return func(p *Pipeline) { p.comp = c }
}

// WithCache enables the render cache and build journal.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func New(cfg config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg: cfg,
		log: slog.New(slog.DiscardHandler),
	}
	switch cfg.Rasterizer {
	case config.RasterizerInkscape:
		p.ras = render.NewInkscape()
	default:
		p.ras = render.NewNative()
	}
	p.comp = xcursor.NewXcursorgen()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// renderKey identifies one unique rasterization. Cursors share frames, so
// the same (frame, size) pair is rendered once per build.
type renderKey struct {
	svgName string
	size    int
}

type renderTask struct {
	key     renderKey
	svgPath string
	outPath string
	hash    string
}

// Run executes the whole build. Static configuration defects abort before
// any work; per-cursor failures are collected into the Report and never
// block sibling cursors.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	sizes, err := theme.ResolveSizes(p.cfg.BaseSize, p.cfg.Multipliers)
	if err != nil {
		return nil, err
	}
	src, err := theme.DiscoverSources(p.cfg.SrcDir)
	if err != nil {
		return nil, err
	}
	p.log.Info("discovered sources",
		"cursors", len(src.Cursors), "svgs", len(src.SVGs), "sizes", len(sizes))

	for _, dir := range []string{p.cfg.IconsDir(), filepath.Join(p.cfg.BuildDir, "manifests"), p.cfg.CursorsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	report := &Report{Theme: p.cfg.Name, StartedAt: time.Now()}

	hashes := p.hashSources(src)
	renderErrs := p.renderAll(ctx, src, sizes, hashes)
	artifacts := p.bundleAll(ctx, src, sizes, hashes, renderErrs, report)
	report.Aliases, report.AliasErrors = alias.Apply(src.Aliases, artifacts, p.cfg.CursorsDir())
	if err := p.finalize(src); err != nil {
		return report, err
	}

	report.FinishedAt = time.Now()
	p.journal(report)
	return report, nil
}

// pngPath names the intermediate bitmap for one (frame, size) pair. With
// the cache enabled the name also carries the source digest, so bitmaps
// rendered from different SVG content can never share a path and a stale
// cache row can never alias onto fresher content.
func (p *Pipeline) pngPath(svgName string, size int, hash string) string {
	if hash != "" {
		return filepath.Join(p.cfg.IconsDir(), fmt.Sprintf("%s_%d_%s.png", svgName, size, hash[:8]))
	}
	return filepath.Join(p.cfg.IconsDir(), fmt.Sprintf("%s_%d.png", svgName, size))
}

// renderAll rasterizes every unique (frame, size) pair on a bounded worker
// pool and returns the failures keyed by pair. Output paths derive from the
// pair (plus source digest), so concurrent tasks never collide on the
// filesystem.
func (p *Pipeline) renderAll(ctx context.Context, src *theme.Sources, sizes []int, hashes map[string]string) map[renderKey]error {
	var tasks []renderTask
	seen := make(map[renderKey]bool)
	missing := make(map[renderKey]error)
	for _, spec := range src.Cursors {
		for _, f := range spec.Frames {
			svgPath, ok := src.SVGs[f.SVGName]
			for _, size := range sizes {
				key := renderKey{f.SVGName, size}
				if seen[key] {
					continue
				}
				seen[key] = true
				if !ok {
					missing[key] = fmt.Errorf("%w: no svg source named %q", render.ErrRenderFailure, f.SVGName)
					continue
				}
				tasks = append(tasks, renderTask{
					key:     key,
					svgPath: svgPath,
					outPath: p.pngPath(f.SVGName, size, hashes[f.SVGName]),
					hash:    hashes[f.SVGName],
				})
			}
		}
	}

	var mu sync.Mutex
	errs := missing
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Jobs)
	for _, task := range tasks {
		wg.Add(1)
		go func(tk renderTask) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := p.renderOne(ctx, tk); err != nil {
				p.log.Warn("render failed", "svg", tk.key.svgName, "size", tk.key.size, "error", err)
				mu.Lock()
				errs[tk.key] = err
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()
	return errs
}

// hashSources digests each discovered svg once for cache addressing,
// keyed by frame name. An unreadable source has no entry, which bypasses
// the cache and lets the rasterizer surface the real error.
func (p *Pipeline) hashSources(src *theme.Sources) map[string]string {
	hashes := make(map[string]string)
	if p.cache == nil {
		return hashes
	}
	for name, path := range src.SVGs {
		h, err := cache.HashFile(path)
		if err != nil {
			p.log.Debug("hash source", "svg", path, "error", err)
			continue
		}
		hashes[name] = h
	}
	return hashes
}

func (p *Pipeline) renderOne(ctx context.Context, tk renderTask) error {
	if p.cache != nil && tk.hash != "" {
		if cached, ok := p.cache.LookupRender(tk.hash, tk.key.size); ok && cached == tk.outPath {
			p.log.Debug("render cached", "svg", tk.key.svgName, "size", tk.key.size)
			return nil
		}
	}

	if err := p.ras.Rasterize(ctx, tk.svgPath, tk.outPath, tk.key.size); err != nil {
		return err
	}
	p.log.Debug("rendered", "svg", tk.key.svgName, "size", tk.key.size)

	if p.cache != nil && tk.hash != "" {
		if err := p.cache.RecordRender(tk.hash, tk.key.size, tk.outPath); err != nil {
			p.log.Debug("record render", "error", err)
		}
	}
	return nil
}

// bundleAll compiles one artifact per cursor whose frames all rendered,
// again bounded by the jobs limit. Returns canonical name -> artifact path
// for the alias pass.
func (p *Pipeline) bundleAll(ctx context.Context, src *theme.Sources, sizes []int, hashes map[string]string, renderErrs map[renderKey]error, report *Report) map[string]string {
	artifacts := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Jobs)

	for _, spec := range src.Cursors {
		wg.Add(1)
		go func(spec theme.CursorSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := p.bundleCursor(ctx, spec, sizes, hashes, renderErrs)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Warn("cursor failed", "cursor", spec.Name, "error", err)
				report.Failed = append(report.Failed, CursorFailure{Name: spec.Name, Err: err})
				return
			}
			p.log.Info("cursor built", "cursor", spec.Name)
			report.Built = append(report.Built, spec.Name)
			artifacts[spec.Name] = out
		}(spec)
	}
	wg.Wait()

	sort.Strings(report.Built)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Name < report.Failed[j].Name })
	return artifacts
}

func (p *Pipeline) bundleCursor(ctx context.Context, spec theme.CursorSpec, sizes []int, hashes map[string]string, renderErrs map[renderKey]error) (string, error) {
	var frames []theme.RenderedFrame
	for _, size := range sizes {
		for _, f := range spec.Frames {
			if err := renderErrs[renderKey{f.SVGName, size}]; err != nil {
				return "", err
			}
			hot, err := theme.ScaleHotspot(f.Hotspot, f.Size, size)
			if err != nil {
				return "", err
			}
			frames = append(frames, theme.RenderedFrame{
				Size:    size,
				Hotspot: hot,
				PNGPath: p.pngPath(f.SVGName, size, hashes[f.SVGName]),
				Delay:   f.Delay,
			})
		}
	}

	manifest := filepath.Join(p.cfg.BuildDir, "manifests", spec.Name)
	out := filepath.Join(p.cfg.CursorsDir(), spec.Name)
	if err := xcursor.Bundle(ctx, p.comp, frames, manifest, out); err != nil {
		return "", err
	}
	return out, nil
}

// finalize installs the theme descriptors: the source tree's .theme files
// verbatim, or a generated index.theme when the tree ships none.
func (p *Pipeline) finalize(src *theme.Sources) error {
	if len(src.ThemeFiles) == 0 {
		index := fmt.Sprintf("[Icon Theme]\nName=%s\nComment=%s\n", p.cfg.Name, p.cfg.Comment)
		path := filepath.Join(p.cfg.ThemeDir(), "index.theme")
		if err := os.WriteFile(path, []byte(index), 0644); err != nil {
			return fmt.Errorf("write index.theme: %w", err)
		}
		return nil
	}
	for _, tf := range src.ThemeFiles {
		dst := filepath.Join(p.cfg.ThemeDir(), filepath.Base(tf))
		if err := copyFile(tf, dst); err != nil {
			return fmt.Errorf("copy %s: %w", tf, err)
		}
	}
	return nil
}

// journal records the run in the build cache. Journal failures are logged,
// never fatal.
func (p *Pipeline) journal(report *Report) {
	if p.cache == nil {
		return
	}
	err := p.cache.RecordBuild(cache.BuildRecord{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Theme:      report.Theme,
		Built:      len(report.Built),
		Failed:     len(report.Failed),
		Aliases:    len(report.Aliases),
		Summary:    report.Summary(),
	})
	if err != nil {
		p.log.Warn("journal build", "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
