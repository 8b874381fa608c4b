package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

// supersample renders at twice the target resolution before downscaling;
// small cursor sizes lose too much edge detail when rasterized directly.
const supersample = 2

// Native rasterizes SVGs in-process with oksvg, no external tool needed.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (n *Native) Rasterize(ctx context.Context, svgPath, outPath string, size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size %d", ErrRenderFailure, size)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	f, err := os.Open(svgPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrRenderFailure, svgPath, err)
	}
	defer f.Close()

	icon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrRenderFailure, svgPath, err)
	}

	vbW, vbH := icon.ViewBox.W, icon.ViewBox.H
	if vbW <= 0 || vbH <= 0 {
		return fmt.Errorf("%w: %s has no usable viewbox", ErrRenderFailure, svgPath)
	}

	// Scale to fit the square canvas, centered, aspect preserved.
	maxDim := math.Max(vbW, vbH)
	dstW := int(math.Round(float64(size) * vbW / maxDim))
	dstH := int(math.Round(float64(size) * vbH / maxDim))
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	bigW, bigH := dstW*supersample, dstH*supersample
	big := image.NewRGBA(image.Rect(0, 0, bigW, bigH))
	icon.SetTarget(0, 0, float64(bigW), float64(bigH))
	scanner := rasterx.NewScannerGV(bigW, bigH, big, big.Bounds())
	icon.Draw(rasterx.NewDasher(bigW, bigH, scanner), 1.0)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	x0 := (size - dstW) / 2
	y0 := (size - dstH) / 2
	rect := image.Rect(x0, y0, x0+dstW, y0+dstH)
	xdraw.CatmullRom.Scale(dst, rect, big, big.Bounds(), xdraw.Over, nil)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrRenderFailure, outPath, err)
	}
	if err := png.Encode(out, dst); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("%w: encode %s: %v", ErrRenderFailure, outPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrRenderFailure, outPath, err)
	}
	return verifyOutput(outPath)
}
