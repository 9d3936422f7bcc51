package csharp

import (
	"strings"
	"testing"

	"bindgen/internal/backend"
	"bindgen/internal/decl"
	"bindgen/internal/output"
	"bindgen/internal/syntax"
	"bindgen/internal/types"
)

func mustType(t *testing.T, src string) *types.Type {
	t.Helper()
	ty, err := syntax.ParseType(src)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", src, err)
	}
	return ty
}

// fields parses "name: type" entries.
func fields(t *testing.T, specs ...string) []decl.Field {
	t.Helper()
	out := make([]decl.Field, len(specs))
	for i, s := range specs {
		name, ty, ok := strings.Cut(s, ":")
		if !ok {
			t.Fatalf("malformed field %q", s)
		}
		out[i] = decl.Field{Name: strings.TrimSpace(name), Type: mustType(t, strings.TrimSpace(ty))}
	}
	return out
}

func reprC(t *testing.T, name string, specs ...string) *decl.Decl {
	return &decl.Decl{Kind: decl.KindStruct, Name: name, Attrs: decl.Attrs{ReprC: true}, Fields: fields(t, specs...)}
}

func exported(t *testing.T, name string, specs ...string) *decl.Decl {
	return &decl.Decl{Kind: decl.KindFunction, Name: name, Attrs: decl.Attrs{NoMangle: true, ABI: "C"}, Fields: fields(t, specs...)}
}

func alias(t *testing.T, name, target string) *decl.Decl {
	return &decl.Decl{Kind: decl.KindAlias, Name: name, Type: mustType(t, target)}
}

func constant(t *testing.T, name, typ, value string) *decl.Decl {
	t.Helper()
	v, err := syntax.ParseValue(value)
	if err != nil {
		t.Fatalf("ParseValue(%q): %v", value, err)
	}
	return &decl.Decl{Kind: decl.KindConst, Name: name, Type: mustType(t, typ), Value: v}
}

// compile runs every declaration through a fresh backend and returns the
// sealed documents.
func compile(t *testing.T, cfg backend.Config, decls ...*decl.Decl) map[string]string {
	t.Helper()
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := output.NewSet(b.Documents())
	for _, d := range decls {
		if err := backend.Dispatch(b, d, out); err != nil {
			t.Fatalf("%s %s: %v", d.Kind, d.Name, err)
		}
	}
	if err := b.Finalize(out); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return out.Result()
}

// compileErr returns the error of the first failing declaration.
func compileErr(t *testing.T, cfg backend.Config, decls ...*decl.Decl) error {
	t.Helper()
	b, err := New(cfg)
	if err != nil {
		return err
	}
	out := output.NewSet(b.Documents())
	for _, d := range decls {
		if err := backend.Dispatch(b, d, out); err != nil {
			return err
		}
	}
	return nil
}

// assertMultiline compares generated text line by line and reports the
// first divergence with both texts.
func assertMultiline(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	gl, wl := strings.Split(got, "\n"), strings.Split(want, "\n")
	var sb strings.Builder
	for i := 0; i < max(len(gl), len(wl)); i++ {
		var g, w string
		if i < len(gl) {
			g = gl[i]
		}
		if i < len(wl) {
			w = wl[i]
		}
		switch {
		case g == w:
			sb.WriteString("  " + g + "\n")
		default:
			if i < len(wl) {
				sb.WriteString("- " + w + "\n")
			}
			if i < len(gl) {
				sb.WriteString("+ " + g + "\n")
			}
		}
	}
	t.Fatalf("output mismatch (-want +got):\n%s", sb.String())
}

const implHeader = `using System;
using System.Runtime.InteropServices;
using System.Threading.Tasks;

namespace Backend {
    public partial class Backend : IBackend {
        #if __IOS__
        internal const String DLL_NAME = "__Internal";
        #else
        internal const String DLL_NAME = "backend";
        #endif

`

const implFooter = `    }
}
`

const typesHeader = `using System;
using System.Runtime.InteropServices;

namespace Backend {
`

func newSet(b *Backend) *output.Set {
	return output.NewSet(b.Documents())
}
