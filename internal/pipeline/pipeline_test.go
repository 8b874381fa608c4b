package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/tmacro/numix-cursor-hidpi/internal/alias"
	"github.com/tmacro/numix-cursor-hidpi/internal/cache"
	"github.com/tmacro/numix-cursor-hidpi/internal/config"
	"github.com/tmacro/numix-cursor-hidpi/internal/render"
	"github.com/tmacro/numix-cursor-hidpi/internal/theme"
)

type fakeRasterizer struct {
	mu      sync.Mutex
	calls   map[string]int // "name@size" -> invocations
	failing map[string]bool
}

func newFakeRasterizer() *fakeRasterizer {
	return &fakeRasterizer{calls: make(map[string]int), failing: make(map[string]bool)}
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, svgPath, outPath string, size int) error {
	name := filepath.Base(svgPath)
	f.mu.Lock()
	f.calls[fmt.Sprintf("%s@%d", name, size)]++
	f.mu.Unlock()
	if f.failing[name] {
		return fmt.Errorf("%w: synthetic failure for %s", render.ErrRenderFailure, name)
	}
	// Embed the source content so tests can tell which revision of an svg
	// a bitmap was rendered from.
	data, err := os.ReadFile(svgPath)
	if err != nil {
		return fmt.Errorf("%w: %v", render.ErrRenderFailure, err)
	}
	return os.WriteFile(outPath, []byte(fmt.Sprintf("bitmap %s %d", strings.TrimSpace(string(data)), size)), 0644)
}

func (f *fakeRasterizer) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeCompiler struct{}

func (fakeCompiler) Compile(ctx context.Context, manifestPath, outPath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Name = "Test-Theme"
	cfg.BaseSize = 24
	cfg.Multipliers = []float64{1.0, 2.0}
	cfg.SrcDir = filepath.Join(root, "src")
	cfg.BuildDir = filepath.Join(root, "build")
	cfg.OutputDir = filepath.Join(root, "dist")
	cfg.Jobs = 4
	return cfg
}

func writeSource(t *testing.T, srcDir, rel, content string) {
	t.Helper()
	path := filepath.Join(srcDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeTestTree(t *testing.T, cfg config.Config) {
	t.Helper()
	writeSource(t, cfg.SrcDir, "cursor/left_ptr.cursor", "24 4 4 left_ptr\n")
	writeSource(t, cfg.SrcDir, "cursor/hand2.cursor", "24 8 2 hand2\n")
	writeSource(t, cfg.SrcDir, "svg/left_ptr.svg", "<svg>left</svg>")
	writeSource(t, cfg.SrcDir, "svg/hand2.svg", "<svg>hand</svg>")
	writeSource(t, cfg.SrcDir, "aliases", "left_ptr default\nhand2 pointer\n")
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writeTestTree(t, cfg)

	ras := newFakeRasterizer()
	p := New(cfg, WithRasterizer(ras), WithCompiler(fakeCompiler{}))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !report.Clean() {
		t.Fatalf("expected clean run, got %s", report.Summary())
	}
	want := []string{"hand2", "left_ptr"}
	if !sort.StringsAreSorted(report.Built) || len(report.Built) != 2 ||
		report.Built[0] != want[0] || report.Built[1] != want[1] {
		t.Errorf("Built = %v, want %v", report.Built, want)
	}

	for _, name := range []string{"left_ptr", "hand2", "default", "pointer"} {
		if _, err := os.Stat(filepath.Join(cfg.CursorsDir(), name)); err != nil {
			t.Errorf("missing cursor entry %s: %v", name, err)
		}
	}

	// Alias content matches its canonical artifact byte for byte.
	canonical, err := os.ReadFile(filepath.Join(cfg.CursorsDir(), "left_ptr"))
	if err != nil {
		t.Fatal(err)
	}
	aliased, err := os.ReadFile(filepath.Join(cfg.CursorsDir(), "default"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(canonical, aliased) {
		t.Errorf("alias content differs from canonical artifact")
	}

	// Manifest frames are ascending by size with scaled hotspots.
	wantManifest := "24 4 4 %s\n48 8 8 %s\n"
	png24 := filepath.Join(cfg.IconsDir(), "left_ptr_24.png")
	png48 := filepath.Join(cfg.IconsDir(), "left_ptr_48.png")
	if got := string(canonical); got != fmt.Sprintf(wantManifest, png24, png48) {
		t.Errorf("left_ptr manifest:\n%s", got)
	}

	index, err := os.ReadFile(filepath.Join(cfg.ThemeDir(), "index.theme"))
	if err != nil {
		t.Fatalf("index.theme missing: %v", err)
	}
	if !bytes.Contains(index, []byte("Name=Test-Theme")) {
		t.Errorf("index.theme content:\n%s", index)
	}
}

func TestRunDeduplicatesSharedFrames(t *testing.T) {
	cfg := testConfig(t)
	// Two cursors rendering the same vector source.
	writeSource(t, cfg.SrcDir, "cursor/left_ptr.cursor", "24 4 4 shared\n")
	writeSource(t, cfg.SrcDir, "cursor/right_ptr.cursor", "24 20 4 shared\n")
	writeSource(t, cfg.SrcDir, "svg/shared.svg", "<svg/>")

	ras := newFakeRasterizer()
	p := New(cfg, WithRasterizer(ras), WithCompiler(fakeCompiler{}))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two sizes, one shared svg: exactly two rasterizations.
	if got := ras.total(); got != 2 {
		t.Errorf("rasterizer ran %d times, want 2 (calls: %v)", got, ras.calls)
	}
}

func TestRunBestEffortIsolatesFailedCursor(t *testing.T) {
	cfg := testConfig(t)
	writeTestTree(t, cfg)
	writeSource(t, cfg.SrcDir, "cursor/broken.cursor", "24 1 1 ghost\n") // no ghost.svg

	p := New(cfg, WithRasterizer(newFakeRasterizer()), WithCompiler(fakeCompiler{}))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Failed) != 1 || report.Failed[0].Name != "broken" {
		t.Fatalf("Failed = %v, want just broken", report.Failed)
	}
	if !errors.Is(report.Failed[0].Err, render.ErrRenderFailure) {
		t.Errorf("failure cause = %v, want ErrRenderFailure", report.Failed[0].Err)
	}
	if len(report.Built) != 2 {
		t.Errorf("Built = %v, siblings must not be blocked", report.Built)
	}
	if _, err := os.Stat(filepath.Join(cfg.CursorsDir(), "broken")); !os.IsNotExist(err) {
		t.Errorf("failed cursor must not produce an artifact")
	}

	if code := report.ExitCode(false); code != 0 {
		t.Errorf("best-effort exit code = %d, want 0", code)
	}
	if code := report.ExitCode(true); code == 0 {
		t.Errorf("strict exit code = 0, want non-zero")
	}
}

func TestRunFailedRenderMarksAllDependentCursors(t *testing.T) {
	cfg := testConfig(t)
	writeTestTree(t, cfg)

	ras := newFakeRasterizer()
	ras.failing["hand2.svg"] = true
	p := New(cfg, WithRasterizer(ras), WithCompiler(fakeCompiler{}))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Failed) != 1 || report.Failed[0].Name != "hand2" {
		t.Errorf("Failed = %v", report.Failed)
	}
	if len(report.Built) != 1 || report.Built[0] != "left_ptr" {
		t.Errorf("Built = %v", report.Built)
	}
	// The alias onto the failed cursor is unresolved, the other applies.
	if len(report.AliasErrors) != 1 || !errors.Is(report.AliasErrors[0], alias.ErrUnresolved) {
		t.Errorf("AliasErrors = %v, want one ErrUnresolved", report.AliasErrors)
	}
	if len(report.Aliases) != 1 || report.Aliases[0].Alias != "default" {
		t.Errorf("Aliases = %v", report.Aliases)
	}
}

func TestRunInvalidConfigAbortsBeforeWork(t *testing.T) {
	cfg := testConfig(t)
	writeTestTree(t, cfg)
	cfg.BaseSize = 0

	ras := newFakeRasterizer()
	p := New(cfg, WithRasterizer(ras), WithCompiler(fakeCompiler{}))
	if _, err := p.Run(context.Background()); !errors.Is(err, theme.ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
	if ras.total() != 0 {
		t.Errorf("no rendering may happen on invalid config")
	}
}

func TestRunCacheSkipsUnchangedRenders(t *testing.T) {
	cfg := testConfig(t)
	writeTestTree(t, cfg)

	c, err := cache.Open(cfg.BuildDir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ras := newFakeRasterizer()
	p := New(cfg, WithRasterizer(ras), WithCompiler(fakeCompiler{}), WithCache(c))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := ras.total()
	if first != 4 { // 2 svgs x 2 sizes
		t.Fatalf("first run rendered %d, want 4", first)
	}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := ras.total(); got != first {
		t.Errorf("second run re-rendered %d bitmaps, want 0", got-first)
	}

	// Touching a source invalidates only that source's renders.
	writeSource(t, cfg.SrcDir, "svg/hand2.svg", "<svg>hand v2</svg>")
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if got := ras.total(); got != first+2 {
		t.Errorf("third run rendered %d new bitmaps, want 2", got-first)
	}

	rec, err := c.LatestBuild()
	if err != nil {
		t.Fatalf("LatestBuild: %v", err)
	}
	if rec.Built != 2 || rec.Failed != 0 {
		t.Errorf("journal = %+v", rec)
	}
}

func TestRunCacheBundlesMatchingContentAfterRevert(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg.SrcDir, "cursor/left_ptr.cursor", "24 4 4 left_ptr\n")
	writeSource(t, cfg.SrcDir, "svg/left_ptr.svg", "content-a")

	c, err := cache.Open(cfg.BuildDir)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ras := newFakeRasterizer()
	p := New(cfg, WithRasterizer(ras), WithCompiler(fakeCompiler{}), WithCache(c))
	run := func() {
		t.Helper()
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}

	// Edit the source, then revert it: the bitmaps bundled for the
	// reverted content must have been rendered from that content, not
	// from the edit that briefly occupied the same frame name.
	run()
	writeSource(t, cfg.SrcDir, "svg/left_ptr.svg", "content-b")
	run()
	writeSource(t, cfg.SrcDir, "svg/left_ptr.svg", "content-a")
	run()

	artifact, err := os.ReadFile(filepath.Join(cfg.CursorsDir(), "left_ptr"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(artifact)), "\n")
	if len(lines) != 2 {
		t.Fatalf("artifact manifest:\n%s", artifact)
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 4 {
			t.Fatalf("manifest line %q", line)
		}
		bitmap, err := os.ReadFile(fields[3])
		if err != nil {
			t.Fatalf("bundled bitmap missing: %v", err)
		}
		if !strings.Contains(string(bitmap), "content-a") {
			t.Errorf("bitmap %s rendered from wrong source revision: %q", fields[3], bitmap)
		}
	}

	// The revert reuses the first run's bitmaps rather than re-rendering.
	if got := ras.total(); got != 4 {
		t.Errorf("rendered %d bitmaps, want 4 (2 sizes x 2 distinct revisions)", got)
	}
}

func TestRunCopiesThemeFiles(t *testing.T) {
	cfg := testConfig(t)
	writeTestTree(t, cfg)
	writeSource(t, cfg.SrcDir, "theme/index.theme", "[Icon Theme]\nName=Shipped\n")

	p := New(cfg, WithRasterizer(newFakeRasterizer()), WithCompiler(fakeCompiler{}))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.ThemeDir(), "index.theme"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("Name=Shipped")) {
		t.Errorf("shipped theme file not copied, got:\n%s", data)
	}
}

func TestReportSummary(t *testing.T) {
	report := &Report{
		Theme: "Test-Theme",
		Built: []string{"left_ptr"},
		Failed: []CursorFailure{
			{Name: "hand2", Err: fmt.Errorf("render exploded")},
		},
	}
	s := report.Summary()
	for _, want := range []string{"1 cursors built", "1 failed", "hand2", "render exploded"} {
		if !bytes.Contains([]byte(s), []byte(want)) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}
