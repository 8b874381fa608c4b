package xcursor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tmacro/numix-cursor-hidpi/internal/theme"
)

// Bundle validates and orders the rendered frames of one cursor, writes the
// compiler manifest next to the artifact, and invokes the compiler. On any
// failure no artifact file is left behind.
//
// Frames are emitted smallest size first so readers that scan for the best
// match pick correctly regardless of how the compiler orders internally.
// Animation frames (non-zero delay) may repeat a size; two static frames of
// the same size make the lookup ambiguous and are rejected as a
// configuration defect.
func Bundle(ctx context.Context, comp Compiler, frames []theme.RenderedFrame, manifestPath, outPath string) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames to bundle for %s", ErrBundleFailure, outPath)
	}

	ordered := make([]theme.RenderedFrame, len(frames))
	copy(ordered, frames)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Size < ordered[j].Size })

	staticSeen := make(map[int]bool)
	for _, f := range ordered {
		if f.Delay != 0 {
			continue
		}
		if staticSeen[f.Size] {
			return fmt.Errorf("%w: duplicate static frame at size %d for %s", ErrBundleFailure, f.Size, outPath)
		}
		staticSeen[f.Size] = true
	}

	if err := writeManifest(ordered, manifestPath); err != nil {
		return err
	}

	if err := comp.Compile(ctx, manifestPath, outPath); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}

// writeManifest emits xcursorgen config lines: "size xhot yhot image" with
// an optional trailing delay, one per frame.
func writeManifest(frames []theme.RenderedFrame, path string) error {
	var sb strings.Builder
	for _, f := range frames {
		if f.Delay > 0 {
			fmt.Fprintf(&sb, "%d %d %d %s %d\n", f.Size, f.Hotspot.X, f.Hotspot.Y, f.PNGPath, f.Delay)
		} else {
			fmt.Fprintf(&sb, "%d %d %d %s\n", f.Size, f.Hotspot.X, f.Hotspot.Y, f.PNGPath)
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("%w: write manifest %s: %v", ErrBundleFailure, path, err)
	}
	return nil
}
