package diagfmt

import (
	"path/filepath"

	"bindgen/internal/source"
)

// displayPath renders the path of f according to mode.
func displayPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if f == nil {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeRelative, PathModeAuto:
		if f.Flags&source.FileVirtual != 0 {
			return f.Path
		}
		return f.RelPath(fs.BaseDir())
	}
	return f.Path
}
