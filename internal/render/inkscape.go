package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single inkscape invocation so one hung render
// cannot stall the whole build.
const DefaultTimeout = 2 * time.Minute

// Inkscape shells out to the inkscape binary for rasterization, matching
// how the theme was originally built.
type Inkscape struct {
	// Command is the binary to invoke, overridable for tests.
	Command string
	Timeout time.Duration
}

func NewInkscape() *Inkscape {
	return &Inkscape{Command: "inkscape", Timeout: DefaultTimeout}
}

func (r *Inkscape) Rasterize(ctx context.Context, svgPath, outPath string, size int) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	dim := strconv.Itoa(size)
	cmd := exec.CommandContext(ctx, r.Command, svgPath, "-o", outPath, "-w", dim, "-h", dim)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return fmt.Errorf("%w: %s %s: %v: %s", ErrRenderFailure, r.Command, svgPath, err, msg)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrRenderFailure, r.Command, svgPath, err)
	}
	return verifyOutput(outPath)
}
