// Package alias maps desktop-environment cursor names onto built artifacts.
package alias

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrUnresolved marks an alias whose canonical cursor was never built. It
// is fatal for that alias only.
var ErrUnresolved = errors.New("unresolved alias")

// Entry records one applied alias.
type Entry struct {
	Alias  string
	Target string
}

// Apply creates one directory entry per alias inside cursorsDir, each
// resolving to the canonical artifact's content. Symlinks are preferred;
// on filesystems without symlink support the artifact is byte-copied.
// artifacts maps canonical name to artifact path. Failed aliases are
// reported individually and never abort the rest.
func Apply(table map[string][]string, artifacts map[string]string, cursorsDir string) ([]Entry, []error) {
	var entries []Entry
	var errs []error

	for canonical, aliases := range table {
		target, ok := artifacts[canonical]
		if !ok {
			for _, a := range aliases {
				errs = append(errs, fmt.Errorf("%w: %s -> %s: cursor was not built", ErrUnresolved, a, canonical))
			}
			continue
		}
		for _, a := range aliases {
			if err := link(target, canonical, filepath.Join(cursorsDir, a)); err != nil {
				errs = append(errs, fmt.Errorf("alias %s -> %s: %w", a, canonical, err))
				continue
			}
			entries = append(entries, Entry{Alias: a, Target: canonical})
		}
	}
	return entries, errs
}

// link points aliasPath at the canonical artifact. The symlink target is
// the bare canonical name so the theme directory stays relocatable.
func link(artifactPath, canonical, aliasPath string) error {
	if err := os.Remove(aliasPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Symlink(canonical, aliasPath); err == nil {
		return nil
	}
	return copyFile(artifactPath, aliasPath)
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
		os.Remove(dst)
		return err
	}
	return out.Close()
}
