package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const typeDecl = "[[item]]\nkind = \"type\"\nname = \"Id\"\ntype = \"u64\"\n"

func TestResolveInputsManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bindgen.toml"), "[package]\nname = \"engine\"\n\n[output]\ndir = \"gen\"\n")
	writeFile(t, filepath.Join(root, "ffi", "a.toml"), typeDecl)
	writeFile(t, filepath.Join(root, "ffi", "nested", "b.toml"), typeDecl)

	for _, start := range []string{root, filepath.Join(root, "ffi"), filepath.Join(root, "bindgen.toml")} {
		plan, err := resolveInputs(start)
		if err != nil {
			t.Fatalf("resolveInputs(%s): %v", start, err)
		}
		if plan.Manifest == nil || plan.Root != root {
			t.Fatalf("manifest not used from %s: %+v", start, plan)
		}
		if len(plan.Files) != 1 || filepath.Base(plan.Files[0]) != "a.toml" {
			t.Fatalf("files = %v", plan.Files)
		}
		if plan.OutDir != filepath.Join(root, "gen") {
			t.Fatalf("out dir = %s", plan.OutDir)
		}
		if plan.Config.Namespace != "Engine" || plan.Config.Library != "engine" {
			t.Fatalf("config = %+v", plan.Config)
		}
	}
}

func TestResolveInputsWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "items: []\n")
	writeFile(t, filepath.Join(dir, "a.toml"), typeDecl)
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")

	plan, err := resolveInputs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Manifest != nil || len(plan.Files) != 2 || plan.Lang != "csharp" {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	single, err := resolveInputs(filepath.Join(dir, "a.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(single.Files) != 1 || single.OutDir != filepath.Join(dir, "bindings") {
		t.Fatalf("unexpected single-file plan: %+v", single)
	}
	if dirs := single.watchDirs(); len(dirs) != 1 || dirs[0] != dir {
		t.Fatalf("watch dirs = %v", dirs)
	}

	if _, err := resolveInputs(filepath.Join(dir, "notes.txt")); err == nil {
		t.Fatalf("expected an error for a non-declaration file")
	}
	if _, err := resolveInputs(t.TempDir()); err == nil || !strings.Contains(err.Error(), "no declaration files") {
		t.Fatalf("expected an error for an empty directory, got %v", err)
	}
}

func TestReadSwitchMode(t *testing.T) {
	cases := map[string]switchMode{"": modeAuto, "AUTO": modeAuto, "on": modeOn, "always": modeOn, " off ": modeOff}
	for in, want := range cases {
		got, err := readSwitchMode("ui", in)
		if err != nil || got != want {
			t.Errorf("readSwitchMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readSwitchMode("ui", "sometimes"); err == nil {
		t.Errorf("expected an error for an invalid value")
	}
	if !modeOn.resolve(nil) || modeOff.resolve(nil) {
		t.Errorf("explicit modes must not consult the terminal")
	}
}

func TestPrintDocuments(t *testing.T) {
	var buf bytes.Buffer
	if err := printDocuments(&buf, map[string]string{"b.cs": "B\n", "a.cs": "A\n"}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "// a.cs\nA\n\n// b.cs\nB\n"; got != want {
		t.Fatalf("printDocuments = %q, want %q", got, want)
	}
}
