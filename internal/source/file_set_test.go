package source

import "testing"

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("ffi/decls.toml", []byte("hello world"), 0)
	id2 := fs.Add("ffi/decls.toml", []byte("hello universe"), 0)
	if id1 != 0 || id2 != 1 {
		t.Fatalf("unexpected ids: %d, %d", id1, id2)
	}
	latest, ok := fs.GetLatest("ffi/decls.toml")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("first version content = %q", got)
	}
	if fs.Get(FileID(42)) != nil {
		t.Errorf("expected nil for unknown file id")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("decls.toml", []byte("a\nbc\n\ndef"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{2, 1}},
		{3, LineCol{2, 2}},
		{5, LineCol{3, 1}},
		{6, LineCol{4, 1}},
		{8, LineCol{4, 3}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("decls.yaml", []byte("items:\n  - kind: fn\n    name: fun\n"))

	off := fs.Offset(id, LineCol{Line: 3, Col: 5})
	start, _ := fs.Resolve(Span{File: id, Start: off, End: off})
	if start != (LineCol{Line: 3, Col: 5}) {
		t.Fatalf("round trip mismatch: %+v", start)
	}
	if got := fs.Get(id).GetLine(2); got != "  - kind: fn" {
		t.Errorf("GetLine(2) = %q", got)
	}
}

func TestNormalizeOnLoad(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddBytes("x.toml", []byte("\xEF\xBB\xBFa\r\nb"))
	f := fs.Get(id)
	if string(f.Content) != "a\nb" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b", f.Flags)
	}
}
