// Package backend defines the capability interface every host-language
// generator implements, and the registry that selects one by name.
package backend

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/output"
)

// Backend turns declarations into fragments of an output set. Each method
// appends only when it succeeds; Finalize seals every document.
type Backend interface {
	Struct(d *decl.Decl, out *output.Set) error
	Enum(d *decl.Decl, out *output.Set) error
	Alias(d *decl.Decl, out *output.Set) error
	Function(d *decl.Decl, out *output.Set) error
	Const(d *decl.Decl, out *output.Set) error
	Finalize(out *output.Set) error

	// Documents names the files of the output set.
	Documents() map[output.Kind]string
}

// CustomConst is a constant injected from configuration, emitted after
// source constants in registration order.
type CustomConst struct {
	Type  string `toml:"type" yaml:"type" msgpack:"type"`
	Name  string `toml:"name" yaml:"name" msgpack:"name"`
	Value string `toml:"value" yaml:"value" msgpack:"value"`
}

// Config carries everything a backend needs besides the declarations.
type Config struct {
	Namespace string // host namespace, default "Backend"
	Class     string // implementation class, default "Backend"
	Library   string // native library name, default "backend"

	// RestrictedSymbol guards platforms that link statically; there the
	// library is RestrictedLibrary.
	RestrictedSymbol  string
	RestrictedLibrary string

	ResultType string // status type of callbacks, default "FfiResult"
	UtilsClass string // task helper class, default "Utils"

	Opaque    []string
	Extern    []string
	Strict    bool
	Constants []CustomConst
}

// WithDefaults fills empty fields.
func (c Config) WithDefaults() Config {
	def := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}
	def(&c.Namespace, "Backend")
	def(&c.Class, "Backend")
	def(&c.Library, "backend")
	def(&c.RestrictedSymbol, "__IOS__")
	def(&c.RestrictedLibrary, "__Internal")
	def(&c.ResultType, "FfiResult")
	def(&c.UtilsClass, "Utils")
	return c
}

// AddOpaque registers an opaque type name.
func (c *Config) AddOpaque(name string) {
	if !slices.Contains(c.Opaque, name) {
		c.Opaque = append(c.Opaque, name)
	}
}

// AddConst registers a custom constant.
func (c *Config) AddConst(typ, name string, value any) {
	c.Constants = append(c.Constants, CustomConst{Type: typ, Name: name, Value: fmt.Sprint(value)})
}

// Factory builds a backend from configuration.
type Factory func(cfg Config) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under name. Registering a name twice
// panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("backend: Register called twice for " + name)
	}
	registry[name] = f
}

// New instantiates the backend registered under name.
func New(name string, cfg Config) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, diag.NewErr(diag.CfgUnknownBackend,
			fmt.Sprintf("unknown target language %q (available: %v)", name, Names()))
	}
	return f(cfg.WithDefaults())
}

// Names lists registered backends.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes d to the backend method for its kind.
func Dispatch(b Backend, d *decl.Decl, out *output.Set) error {
	switch d.Kind {
	case decl.KindStruct:
		return b.Struct(d, out)
	case decl.KindEnum:
		return b.Enum(d, out)
	case decl.KindAlias:
		return b.Alias(d, out)
	case decl.KindFunction:
		return b.Function(d, out)
	case decl.KindConst:
		return b.Const(d, out)
	}
	return diag.NewErr(diag.InpMalformedItem, fmt.Sprintf("unknown declaration kind %s", d.Kind))
}
