package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"bindgen/internal/decl"
	"bindgen/internal/source"
)

// CheckDeclSpans runs a minimal set of span invariants on loaded declarations:
// 1) every declaration span is non-empty and within its file's content
// 2) every field span is non-empty and contained in its declaration span
// 3) declarations of one file do not overlap and keep source order
func CheckDeclSpans(fs *source.FileSet, decls []*decl.Decl) error {
	if fs == nil {
		return fmt.Errorf("nil file set")
	}
	last := make(map[source.FileID]source.Span)
	for _, d := range decls {
		if d == nil {
			return fmt.Errorf("nil declaration")
		}
		sp := d.Span
		f := fs.Get(sp.File)
		if f == nil {
			return fmt.Errorf("%s: span %v has no file", d.Name, sp)
		}
		if sp.Empty() {
			return fmt.Errorf("%s: empty span %v", d.Name, sp)
		}
		lenContent, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			return fmt.Errorf("len content overflow: %w", err)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s: span end beyond content: %d > %d", d.Name, sp.End, lenContent)
		}

		for _, fld := range d.Fields {
			fsp := fld.Span
			if fsp.Empty() {
				return fmt.Errorf("%s.%s: empty field span %v", d.Name, fld.Name, fsp)
			}
			if fsp.File != sp.File || fsp.Start < sp.Start || fsp.End > sp.End {
				return fmt.Errorf("%s.%s: field span %v is outside declaration span %v", d.Name, fld.Name, fsp, sp)
			}
		}

		if prev, ok := last[sp.File]; ok && sp.Start < prev.End {
			return fmt.Errorf("%s: span %v overlaps previous declaration %v", d.Name, sp, prev)
		}
		last[sp.File] = sp
	}
	return nil
}
