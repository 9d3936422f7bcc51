package driver

import (
	"errors"
	"strings"
	"testing"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/source"
	"bindgen/internal/testkit"
	"bindgen/internal/types"
)

const recordTOML = `module = "ffi"

[[item]]
kind = "struct"
name = "Record"
repr = "C"
fields = [
  { name = "id", type = "u64" },
  { name = "enabled", type = "bool" },
]

[[item]]
kind = "fn"
name = "fun0"
no_mangle = true
abi = "C"
params = [{ name = "num", type = "i32" }]
returns = "bool"

[[item]]
kind = "const"
name = "LIMIT"
type = "usize"
value = 64
`

const recordYAML = `module: ffi
items:
  - kind: struct
    name: Record
    repr: C
    fields:
      - name: id
        type: u64
      - { name: "enabled", type: bool }
  - kind: enum
    name: Mode
    repr: C
    variants:
      - name: Fast
      - name: Slow
        value: 4
  - kind: type
    name: Handle
    type: "*mut c_void"
`

func spanText(t *testing.T, res *LoadResult, sp source.Span) string {
	t.Helper()
	f := res.FileSet.Get(sp.File)
	if f == nil {
		t.Fatalf("span %v has no file", sp)
	}
	return string(f.Content[sp.Start:sp.End])
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.toml":   FormatTOML,
		"b.YAML":   FormatYAML,
		"c.yml":    FormatYAML,
		"d.rs":     FormatUnknown,
		"noext":    FormatUnknown,
		"dir/e.tm": FormatUnknown,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLoadTOML(t *testing.T) {
	res := LoadSource("ffi.toml", []byte(recordTOML))
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if len(res.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(res.Decls))
	}
	if err := testkit.CheckDeclSpans(res.FileSet, res.Decls); err != nil {
		t.Fatalf("span invariants: %v", err)
	}

	rec := res.Decls[0]
	if rec.Kind != decl.KindStruct || rec.Name != "Record" || !rec.Attrs.ReprC || rec.Module != "ffi" {
		t.Fatalf("unexpected struct: %+v", rec)
	}
	if got := spanText(t, res, rec.Span); !strings.HasPrefix(got, "[[item]]\nkind = \"struct\"") {
		t.Fatalf("struct span starts with %q", got)
	}
	if got := spanText(t, res, rec.Fields[1].Span); got != "enabled" {
		t.Fatalf("field span = %q", got)
	}
	if !rec.Fields[1].Type.IsPrim(types.Bool) {
		t.Fatalf("enabled type = %s", rec.Fields[1].Type)
	}

	fn := res.Decls[1]
	if !fn.Exported() || fn.Result == nil || !fn.Result.IsPrim(types.Bool) {
		t.Fatalf("unexpected function: %+v", fn)
	}
	if got := spanText(t, res, fn.FieldSpan("num")); got != "num" {
		t.Fatalf("param span = %q", got)
	}

	c := res.Decls[2]
	if c.Value == nil || c.Value.Kind != decl.ValInt || c.Value.Text != "64" {
		t.Fatalf("unexpected constant value: %+v", c.Value)
	}
}

func TestLoadYAML(t *testing.T) {
	res := LoadSource("ffi.yaml", []byte(recordYAML))
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if len(res.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(res.Decls))
	}
	if err := testkit.CheckDeclSpans(res.FileSet, res.Decls); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	rec, mode, handle := res.Decls[0], res.Decls[1], res.Decls[2]

	if got := spanText(t, res, rec.Fields[0].Span); got != "id" {
		t.Fatalf("plain field span = %q", got)
	}
	if got := spanText(t, res, rec.Fields[1].Span); got != "enabled" {
		t.Fatalf("quoted field span = %q", got)
	}
	if got := spanText(t, res, mode.Span); !strings.HasPrefix(got, "kind: enum") {
		t.Fatalf("enum span starts with %q", got)
	}
	want := []decl.Variant{{Name: "Fast"}, {Name: "Slow", Value: "4"}}
	if len(mode.Variants) != 2 || mode.Variants[0] != want[0] || mode.Variants[1] != want[1] {
		t.Fatalf("variants = %+v", mode.Variants)
	}
	if handle.Kind != decl.KindAlias || !handle.Type.IsPointerTo(types.CVoid) {
		t.Fatalf("unexpected alias: %+v", handle)
	}
}

func TestModuleDefaultsToFileName(t *testing.T) {
	res := LoadSource("dir/engine.toml", []byte("[[item]]\nkind = \"type\"\nname = \"Id\"\ntype = \"u64\"\n"))
	if len(res.Decls) != 1 || res.Decls[0].Module != "engine" {
		t.Fatalf("unexpected decls: %+v", res.Decls)
	}
}

func TestIdentifiersAreNormalized(t *testing.T) {
	// TOML escape for "e" followed by a combining acute accent
	res := LoadSource("a.toml", []byte("[[item]]\nkind = \"type\"\nname = \"Cafe\\u0301\"\ntype = \"u8\"\n"))
	if len(res.Decls) != 1 || res.Decls[0].Name != "Caf\u00e9" {
		t.Fatalf("name not normalized: %+v", res.Decls)
	}
}

func TestMalformedItems(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
		msg  string
	}{
		{"unknown kind", "[[item]]\nkind = \"union\"\nname = \"U\"\n", diag.InpMalformedItem, `unknown declaration kind "union"`},
		{"missing name", "[[item]]\nkind = \"struct\"\n", diag.InpMalformedItem, "item[0]: missing name"},
		{"bad type", "[[item]]\nkind = \"type\"\nname = \"T\"\ntype = \"Vec<u8>\"\n", diag.InpBadTypeExpr, "T: "},
		{"bad value", "[[item]]\nkind = \"const\"\nname = \"C\"\ntype = \"u8\"\nvalue = \"1 +\"\n", diag.InpBadValueExpr, "C: "},
		{"no value", "[[item]]\nkind = \"const\"\nname = \"C\"\ntype = \"u8\"\n", diag.InpMalformedItem, "constant has no value"},
		{"untyped field", "[[item]]\nkind = \"struct\"\nname = \"S\"\nfields = [{ name = \"a\" }]\n", diag.InpMalformedItem, `field "a" has no type`},
		{"syntax", "[[item]\nkind = 1\n", diag.InpMalformedFile, "a.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := LoadSource("a.toml", []byte(tt.src))
			items := res.Bag.Items()
			if len(items) != 1 {
				t.Fatalf("got %d diagnostics, want 1: %+v", len(items), items)
			}
			if items[0].Code != tt.code {
				t.Fatalf("code = %s, want %s", items[0].Code.ID(), tt.code.ID())
			}
			if !strings.Contains(items[0].Message, tt.msg) {
				t.Fatalf("message %q does not contain %q", items[0].Message, tt.msg)
			}
		})
	}
}

func TestBadItemDoesNotStopFile(t *testing.T) {
	src := "[[item]]\nkind = \"type\"\nname = \"A\"\ntype = \"fn(\"\n\n[[item]]\nkind = \"type\"\nname = \"B\"\ntype = \"u8\"\n"
	res := LoadSource("a.toml", []byte(src))
	if len(res.Decls) != 1 || res.Decls[0].Name != "B" {
		t.Fatalf("unexpected decls: %+v", res.Decls)
	}
	items := res.Bag.Items()
	if len(items) != 1 {
		t.Fatalf("got %d diagnostics", len(items))
	}
	if got := spanText(t, res, items[0].Primary); !strings.Contains(got, `name = "A"`) {
		t.Fatalf("diagnostic points at %q", got)
	}
}

func TestDuplicateDeclarations(t *testing.T) {
	src := "[[item]]\nkind = \"type\"\nname = \"A\"\ntype = \"u8\"\n\n[[item]]\nkind = \"struct\"\nname = \"A\"\nrepr = \"C\"\n"
	res := LoadSource("a.toml", []byte(src))
	if len(res.Decls) != 1 || res.Decls[0].Kind != decl.KindAlias {
		t.Fatalf("the first declaration must win: %+v", res.Decls)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.InpDuplicateDecl || len(items[0].Notes) != 1 {
		t.Fatalf("unexpected diagnostics: %+v", items)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	res := LoadSource("a.json", []byte("{}"))
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.InpMalformedFile {
		t.Fatalf("unexpected diagnostics: %+v", items)
	}
	if !errors.Is(diag.NewErr(items[0].Code, ""), diag.ErrInput) {
		t.Fatalf("%s must be an input error", items[0].Code.ID())
	}
}

func TestExprText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{" 0x10 ", "0x10"},
		{int64(-3), "-3"},
		{7, "7"},
		{uint64(9), "9"},
		{1.5, "1.5"},
		{2.0, "2.0"},
		{true, "true"},
	}
	for _, tt := range tests {
		got, err := exprText(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("exprText(%#v) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := exprText([]any{1}); err == nil {
		t.Errorf("exprText must reject lists")
	}
}
