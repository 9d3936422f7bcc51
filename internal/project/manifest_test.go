package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"bindgen/internal/backend"
	"bindgen/internal/diag"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestParseManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, "[package]\nname = \"sn-api\"\n")

	m, err := ParseManifest(path)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	cfg := m.Config
	if cfg.Package.Namespace != "SnApi" || cfg.Package.Class != "SnApi" {
		t.Fatalf("namespace/class = %q/%q", cfg.Package.Namespace, cfg.Package.Class)
	}
	if cfg.Target.Lang != DefaultLang {
		t.Fatalf("lang = %q", cfg.Target.Lang)
	}
	if cfg.Target.Library != "sn-api" {
		t.Fatalf("library = %q", cfg.Target.Library)
	}
	if !reflect.DeepEqual(cfg.Input.Files, []string{DefaultInputGlob}) {
		t.Fatalf("input files = %v", cfg.Input.Files)
	}
	if got, want := m.OutputDir(), filepath.Join(dir, DefaultOutputDir); got != want {
		t.Fatalf("OutputDir = %q, want %q", got, want)
	}
}

func TestParseManifestFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
[package]
name = "safe"
namespace = "SafeApp.Native"
class = "SafeApp"

[target]
library = "safe_app"
result_type = "FfiResult"
utils_class = "BindingUtils"

[types]
opaque = ["App", "Authenticator"]
extern = ["FfiResult"]
strict = true

[[constant]]
type = "ulong"
name = "AppDefaultTimeout"
value = "30"

[[constant]]
type = "String"
name = "AppName"
value = "\"safe\""

[input]
files = ["decls/*.yaml", "decls/*.toml"]

[output]
dir = "gen"
`)

	m, err := ParseManifest(path)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	cfg := m.BackendConfig()
	if cfg.Namespace != "SafeApp.Native" || cfg.Class != "SafeApp" || cfg.Library != "safe_app" {
		t.Fatalf("unexpected names: %+v", cfg)
	}
	if cfg.UtilsClass != "BindingUtils" || cfg.RestrictedSymbol != "__IOS__" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Opaque, []string{"App", "Authenticator"}) {
		t.Fatalf("opaque = %v", cfg.Opaque)
	}
	if !cfg.Strict {
		t.Fatalf("strict not set")
	}
	want := []backend.CustomConst{
		{Type: "ulong", Name: "AppDefaultTimeout", Value: "30"},
		{Type: "String", Name: "AppName", Value: `"safe"`},
	}
	if !reflect.DeepEqual(cfg.Constants, want) {
		t.Fatalf("constants = %+v", cfg.Constants)
	}
	if got := m.OutputDir(); got != filepath.Join(dir, "gen") {
		t.Fatalf("OutputDir = %q", got)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    diag.Code
		msg     string
	}{
		{"no package", "[target]\nlang = \"csharp\"\n", diag.CfgMissingKey, "missing [package]"},
		{"no name", "[package]\nclass = \"X\"\n", diag.CfgMissingKey, "missing [package].name"},
		{"bad class", "[package]\nname = \"x\"\nclass = \"1x\"\n", diag.CfgInvalidValue, "not a valid identifier"},
		{"bad namespace", "[package]\nname = \"x\"\nnamespace = \"A..B\"\n", diag.CfgInvalidValue, "not a valid namespace"},
		{"bad opaque", "[package]\nname = \"x\"\n[types]\nopaque = [\"*App\"]\n", diag.CfgInvalidValue, "opaque[0]"},
		{"empty inputs", "[package]\nname = \"x\"\n[input]\nfiles = []\n", diag.CfgInvalidValue, "[input].files is empty"},
		{"bad glob", "[package]\nname = \"x\"\n[input]\nfiles = [\"[\"]\n", diag.CfgInvalidValue, "files[0]"},
		{"syntax", "[package\nname = 1\n", diag.CfgInvalidValue, "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, tt.content)
			_, err := ParseManifest(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, diag.ErrConfig) {
				t.Fatalf("error %v is not a config error", err)
			}
			var de *diag.Error
			if !errors.As(err, &de) || de.Code != tt.code {
				t.Fatalf("code = %v, want %v", de, tt.code)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestParseManifestUndecoded(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, "[package]\nname = \"x\"\nversion = \"1\"\n")
	m, err := ParseManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Undecoded, []string{"package.version"}) {
		t.Fatalf("undecoded = %v", m.Undecoded)
	}
}

func TestLoadManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[package]\nname = \"x\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := LoadManifest(nested)
	if err != nil || !ok {
		t.Fatalf("LoadManifest: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
}

func TestInputFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[package]\nname = \"x\"\n[input]\nfiles = [\"ffi/*.toml\", \"ffi/a.toml\", \"ffi/*.yaml\"]\n")
	writeFile(t, filepath.Join(root, "ffi", "b.toml"), "")
	writeFile(t, filepath.Join(root, "ffi", "a.toml"), "")
	writeFile(t, filepath.Join(root, "ffi", "c.yaml"), "")

	m, err := ParseManifest(filepath.Join(root, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	files, err := m.InputFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "ffi", "a.toml"),
		filepath.Join(root, "ffi", "b.toml"),
		filepath.Join(root, "ffi", "c.yaml"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
}

func TestInputFilesNoMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[package]\nname = \"x\"\n")
	m, err := ParseManifest(filepath.Join(root, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.InputFiles(); !errors.Is(err, diag.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCombineDeterministic(t *testing.T) {
	a, b := Sum([]byte("a")), Sum([]byte("b"))
	if Combine(a, b) != Combine(a, b) {
		t.Fatal("Combine is not deterministic")
	}
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("Combine ignores order")
	}
	if (Digest{}).IsZero() != true || a.IsZero() {
		t.Fatal("IsZero")
	}
	if len(a.String()) != 64 {
		t.Fatalf("hex length = %d", len(a.String()))
	}
}
