package theme

import (
	"fmt"
	"math"
	"sort"
)

// ResolveSizes expands a base pixel size by a set of DPI multipliers into
// the list of sizes every cursor is rendered at. The result is deduplicated
// and sorted ascending.
func ResolveSizes(base int, multipliers []float64) ([]int, error) {
	if base <= 0 {
		return nil, fmt.Errorf("%w: base size %d, must be positive", ErrInvalidConfig, base)
	}
	if len(multipliers) == 0 {
		return nil, fmt.Errorf("%w: no size multipliers", ErrInvalidConfig)
	}

	seen := make(map[int]bool)
	var sizes []int
	for _, m := range multipliers {
		if m <= 0 {
			return nil, fmt.Errorf("%w: multiplier %v, must be positive", ErrInvalidConfig, m)
		}
		size := int(math.Round(float64(base) * m))
		if size < 1 {
			size = 1
		}
		if !seen[size] {
			seen[size] = true
			sizes = append(sizes, size)
		}
	}
	sort.Ints(sizes)
	return sizes, nil
}

// ScaleHotspot maps a hotspot defined at refSize onto a bitmap of
// targetSize, clamping into [0, targetSize-1] so rounding can never push
// the hotspot off the bitmap edge.
func ScaleHotspot(h Hotspot, refSize, targetSize int) (Hotspot, error) {
	if refSize <= 0 {
		return Hotspot{}, fmt.Errorf("%w: reference size %d, must be positive", ErrInvalidConfig, refSize)
	}
	if targetSize <= 0 {
		return Hotspot{}, fmt.Errorf("%w: target size %d, must be positive", ErrInvalidConfig, targetSize)
	}
	scale := float64(targetSize) / float64(refSize)
	return Hotspot{
		X: clamp(int(math.Round(float64(h.X)*scale)), 0, targetSize-1),
		Y: clamp(int(math.Round(float64(h.Y)*scale)), 0, targetSize-1),
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
