// Package xcursor bundles per-size cursor bitmaps into Xcursor artifacts
// by driving an external cursor compiler.
package xcursor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrBundleFailure marks a failed cursor compilation. It is fatal for the
// cursor being bundled, never for the whole build.
var ErrBundleFailure = errors.New("bundle failure")

// Compiler turns a manifest of (size, hotspot, bitmap, delay) lines into
// one binary Xcursor file. The default implementation shells out to
// xcursorgen; tests substitute their own.
type Compiler interface {
	Compile(ctx context.Context, manifestPath, outPath string) error
}

// DefaultTimeout bounds a single compiler invocation.
const DefaultTimeout = 2 * time.Minute

// Xcursorgen invokes the xcursorgen binary.
type Xcursorgen struct {
	Command string
	Timeout time.Duration
}

func NewXcursorgen() *Xcursorgen {
	return &Xcursorgen{Command: "xcursorgen", Timeout: DefaultTimeout}
}

func (x *Xcursorgen) Compile(ctx context.Context, manifestPath, outPath string) error {
	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, x.Command, manifestPath, outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return fmt.Errorf("%w: %s: %v: %s", ErrBundleFailure, x.Command, err, msg)
		}
		return fmt.Errorf("%w: %s: %v", ErrBundleFailure, x.Command, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("%w: artifact %s missing: %v", ErrBundleFailure, outPath, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: artifact %s is empty", ErrBundleFailure, outPath)
	}
	return nil
}
