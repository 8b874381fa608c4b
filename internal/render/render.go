// Package render rasterizes vector cursor sources into square PNG bitmaps.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrRenderFailure marks a failed rasterization. It is fatal for the cursor
// that needed the bitmap, never for the whole build.
var ErrRenderFailure = errors.New("render failure")

// Rasterizer renders one vector source into a size x size bitmap with a
// transparent background. Implementations may link a library or shell out
// to an external tool.
type Rasterizer interface {
	Rasterize(ctx context.Context, svgPath, outPath string, size int) error
}

// verifyOutput rejects a rasterization whose product is missing or empty,
// which is how an external tool's silent failure shows up.
func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: output %s missing: %v", ErrRenderFailure, path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: output %s is empty", ErrRenderFailure, path)
	}
	return nil
}
