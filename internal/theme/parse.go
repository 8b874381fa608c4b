package theme

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseCursorFile reads a .cursor definition. Each non-empty line is
// "size hot_x hot_y frame_name" with an optional trailing delay in
// milliseconds for animation frames.
func ParseCursorFile(path string) (CursorSpec, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	spec := CursorSpec{Name: name}

	f, err := os.Open(path)
	if err != nil {
		return spec, fmt.Errorf("open cursor file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		frame, err := parseCursorLine(line)
		if err != nil {
			return spec, fmt.Errorf("%w: %s:%d: %v", ErrInvalidConfig, path, lineNo, err)
		}
		spec.Frames = append(spec.Frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return spec, fmt.Errorf("read cursor file: %w", err)
	}
	if len(spec.Frames) == 0 {
		return spec, fmt.Errorf("%w: %s: no frames defined", ErrInvalidConfig, path)
	}
	return spec, nil
}

func parseCursorLine(line string) (SourceFrame, error) {
	parts := strings.Fields(line)
	if len(parts) != 4 && len(parts) != 5 {
		return SourceFrame{}, fmt.Errorf("expected 4 or 5 fields, got %d", len(parts))
	}

	size, err := strconv.Atoi(parts[0])
	if err != nil || size <= 0 {
		return SourceFrame{}, fmt.Errorf("bad size %q", parts[0])
	}
	hotX, err := strconv.Atoi(parts[1])
	if err != nil || hotX < 0 {
		return SourceFrame{}, fmt.Errorf("bad hotspot x %q", parts[1])
	}
	hotY, err := strconv.Atoi(parts[2])
	if err != nil || hotY < 0 {
		return SourceFrame{}, fmt.Errorf("bad hotspot y %q", parts[2])
	}

	frame := SourceFrame{
		Size:    size,
		Hotspot: Hotspot{X: hotX, Y: hotY},
		SVGName: parts[3],
	}
	if len(parts) == 5 {
		delay, err := strconv.Atoi(parts[4])
		if err != nil || delay < 0 {
			return SourceFrame{}, fmt.Errorf("bad delay %q", parts[4])
		}
		frame.Delay = delay
	}
	return frame, nil
}

// ParseAliasFile reads the aliases table: one "canonical alias" pair per
// line, mapping canonical cursor names onto the alternate names different
// desktop environments look up.
func ParseAliasFile(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alias file: %w", err)
	}
	defer f.Close()

	aliases := make(map[string][]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %s:%d: expected \"canonical alias\", got %q", ErrInvalidConfig, path, lineNo, line)
		}
		aliases[parts[0]] = append(aliases[parts[0]], parts[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return aliases, nil
}

// DiscoverSources walks a theme source tree laid out as src/cursor/*.cursor,
// src/svg/*.svg, src/aliases and src/theme/*.theme.
func DiscoverSources(srcDir string) (*Sources, error) {
	src := &Sources{SVGs: make(map[string]string), Aliases: make(map[string][]string)}

	cursorFiles, err := filepath.Glob(filepath.Join(srcDir, "cursor", "*.cursor"))
	if err != nil {
		return nil, err
	}
	if len(cursorFiles) == 0 {
		return nil, fmt.Errorf("%w: no .cursor files under %s", ErrInvalidConfig, filepath.Join(srcDir, "cursor"))
	}
	for _, path := range cursorFiles {
		spec, err := ParseCursorFile(path)
		if err != nil {
			return nil, err
		}
		src.Cursors = append(src.Cursors, spec)
	}

	svgFiles, err := filepath.Glob(filepath.Join(srcDir, "svg", "*.svg"))
	if err != nil {
		return nil, err
	}
	for _, path := range svgFiles {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		src.SVGs[name] = path
	}

	aliasPath := filepath.Join(srcDir, "aliases")
	if _, err := os.Stat(aliasPath); err == nil {
		src.Aliases, err = ParseAliasFile(aliasPath)
		if err != nil {
			return nil, err
		}
	}

	src.ThemeFiles, err = filepath.Glob(filepath.Join(srcDir, "theme", "*.theme"))
	if err != nil {
		return nil, err
	}
	return src, nil
}
