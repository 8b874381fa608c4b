package theme

import "errors"

// ErrInvalidConfig marks static configuration defects that abort a build
// before any rendering starts.
var ErrInvalidConfig = errors.New("invalid config")

type Hotspot struct {
	X int
	Y int
}

// SourceFrame is one line of a .cursor file: a vector source rendered at a
// reference size with a hotspot defined at that size. Delay is only set for
// animation frames.
type SourceFrame struct {
	Size    int
	Hotspot Hotspot
	SVGName string
	Delay   int
}

// CursorSpec describes one canonical cursor to build.
type CursorSpec struct {
	Name   string
	Frames []SourceFrame
}

// RenderedFrame is a SourceFrame rasterized at one target size, ready for
// bundling. PNGPath points at an intermediate file in the build directory.
type RenderedFrame struct {
	Size    int
	Hotspot Hotspot
	PNGPath string
	Delay   int
}

// Sources is everything discovered under a theme source tree.
type Sources struct {
	Cursors    []CursorSpec
	SVGs       map[string]string // frame name -> svg path
	Aliases    map[string][]string
	ThemeFiles []string
}
