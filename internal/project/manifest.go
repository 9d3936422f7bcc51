package project

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"

	"bindgen/internal/backend"
	"bindgen/internal/diag"
	"bindgen/internal/naming"
)

// Defaults applied to keys a manifest leaves out.
const (
	DefaultLang      = "csharp"
	DefaultInputGlob = "ffi/*.toml"
	DefaultOutputDir = "bindings"
)

// Manifest is a parsed bindgen.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config

	// Undecoded lists keys the manifest defines but nothing reads.
	Undecoded []string
}

// Config mirrors the manifest layout.
type Config struct {
	Package   PackageConfig         `toml:"package"`
	Target    TargetConfig          `toml:"target"`
	Types     TypesConfig           `toml:"types"`
	Constants []backend.CustomConst `toml:"constant"`
	Input     InputConfig           `toml:"input"`
	Output    OutputConfig          `toml:"output"`
}

type PackageConfig struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Class     string `toml:"class"`
}

type TargetConfig struct {
	Lang              string `toml:"lang"`
	Library           string `toml:"library"`
	ResultType        string `toml:"result_type"`
	RestrictedSymbol  string `toml:"restricted_symbol"`
	RestrictedLibrary string `toml:"restricted_library"`
	UtilsClass        string `toml:"utils_class"`
}

type TypesConfig struct {
	Opaque []string `toml:"opaque"`
	Extern []string `toml:"extern"`
	Strict bool     `toml:"strict"`
}

type InputConfig struct {
	Files []string `toml:"files"`
}

type OutputConfig struct {
	Dir string `toml:"dir"`
}

// LoadManifest locates bindgen.toml starting at startDir and parses it.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := ParseManifest(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// ParseManifest reads and validates the manifest at path.
func ParseManifest(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, diag.NewErr(diag.CfgInvalidValue, fmt.Sprintf("%s: failed to parse TOML: %v", path, err))
	}
	missing := func(key string) error {
		return diag.NewErr(diag.CfgMissingKey, fmt.Sprintf("%s: missing %s", path, key))
	}
	invalid := func(format string, args ...any) error {
		return diag.NewErr(diag.CfgInvalidValue, path+": "+fmt.Sprintf(format, args...))
	}

	if !meta.IsDefined("package") {
		return nil, missing("[package]")
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, missing("[package].name")
	}

	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if cfg.Package.Namespace == "" {
		cfg.Package.Namespace = hostName(cfg.Package.Name)
	}
	if cfg.Package.Class == "" {
		cfg.Package.Class = hostName(cfg.Package.Name)
	}
	if !isHostIdent(cfg.Package.Class) {
		return nil, invalid("[package].class %q is not a valid identifier", cfg.Package.Class)
	}
	for _, part := range strings.Split(cfg.Package.Namespace, ".") {
		if !isHostIdent(part) {
			return nil, invalid("[package].namespace %q is not a valid namespace", cfg.Package.Namespace)
		}
	}

	if cfg.Target.Lang == "" {
		cfg.Target.Lang = DefaultLang
	}
	if cfg.Target.Library == "" {
		cfg.Target.Library = cfg.Package.Name
	}

	for i, name := range cfg.Types.Opaque {
		if !isHostIdent(name) {
			return nil, invalid("[types].opaque[%d] %q is not a valid type name", i, name)
		}
	}
	for i, name := range cfg.Types.Extern {
		if !isHostIdent(name) {
			return nil, invalid("[types].extern[%d] %q is not a valid type name", i, name)
		}
	}

	if !meta.IsDefined("input", "files") {
		cfg.Input.Files = []string{DefaultInputGlob}
	}
	if len(cfg.Input.Files) == 0 {
		return nil, invalid("[input].files is empty")
	}
	for i, pattern := range cfg.Input.Files {
		if strings.TrimSpace(pattern) == "" {
			return nil, invalid("[input].files[%d] is empty", i)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, invalid("[input].files[%d] %q: %v", i, pattern, err)
		}
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}

	undecoded := make([]string, 0, len(meta.Undecoded()))
	for _, key := range meta.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	sort.Strings(undecoded)

	return &Manifest{
		Path:      path,
		Root:      filepath.Dir(path),
		Config:    cfg,
		Undecoded: undecoded,
	}, nil
}

// BackendConfig converts the manifest into backend configuration.
func (m *Manifest) BackendConfig() backend.Config {
	c := m.Config
	cfg := backend.Config{
		Namespace:         c.Package.Namespace,
		Class:             c.Package.Class,
		Library:           c.Target.Library,
		RestrictedSymbol:  c.Target.RestrictedSymbol,
		RestrictedLibrary: c.Target.RestrictedLibrary,
		ResultType:        c.Target.ResultType,
		UtilsClass:        c.Target.UtilsClass,
		Extern:            slices.Clone(c.Types.Extern),
		Strict:            c.Types.Strict,
		Constants:         slices.Clone(c.Constants),
	}
	for _, name := range c.Types.Opaque {
		cfg.AddOpaque(name)
	}
	return cfg.WithDefaults()
}

// InputFiles expands [input].files relative to the project root. The result
// is sorted and free of duplicates.
func (m *Manifest) InputFiles() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range m.Config.Input.Files {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(m.Root, filepath.FromSlash(pattern))
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, diag.NewErr(diag.CfgInvalidValue, fmt.Sprintf("%s: bad pattern %q: %v", m.Path, pattern, err))
		}
		for _, f := range matches {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, diag.NewErr(diag.CfgInvalidValue,
			fmt.Sprintf("%s: no declaration files match %v", m.Path, m.Config.Input.Files))
	}
	sort.Strings(files)
	return files, nil
}

// OutputDir returns the absolute output directory.
func (m *Manifest) OutputDir() string {
	dir := filepath.FromSlash(m.Config.Output.Dir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, dir)
}

func isHostIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// hostName turns a package name such as "sn-api" into "SnApi".
func hostName(pkg string) string {
	return naming.ToUpperCamel(strings.NewReplacer("-", "_", ".", "_").Replace(pkg))
}
