// Package csharp generates C# P/Invoke bindings: C-layout structs and
// enums, DllImport declarations with idiomatic wrappers, Task-based
// wrappers for callback APIs, and a static Constants class.
package csharp

import (
	"fmt"
	"strings"

	"bindgen/internal/backend"
	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/output"
	"bindgen/internal/types"
)

// Name is the registry name of this backend.
const Name = "csharp"

func init() {
	backend.Register(Name, func(cfg backend.Config) (backend.Backend, error) {
		b, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}

const (
	nsSystem   = "System"
	nsInterop  = "System.Runtime.InteropServices"
	nsTasks    = "System.Threading.Tasks"
	indent     = "    "
	indentBody = indent + indent
)

// delegateInfo describes one callback delegate and the trampoline that
// completes the pending task.
type delegateInfo struct {
	name       string
	params     []string
	completion []string
	tasks      []string // task payload types
	trampoline bool
}

// Backend is the C# generator. It is not safe for concurrent use; one
// instance serves one compilation.
type Backend struct {
	cfg       backend.Config
	env       *types.Env
	delegates map[string]*delegateInfo
	customs   []string
}

var _ backend.Backend = (*Backend)(nil)

// New creates a C# backend. Custom constants are validated here.
func New(cfg backend.Config) (*Backend, error) {
	cfg = cfg.WithDefaults()
	b := &Backend{
		cfg:       cfg,
		env:       types.NewEnv(cfg.Strict),
		delegates: make(map[string]*delegateInfo),
	}
	for _, name := range cfg.Opaque {
		b.env.RegisterOpaque(name)
	}
	b.env.RegisterExtern(cfg.ResultType)
	for _, name := range cfg.Extern {
		b.env.RegisterExtern(name)
	}
	for _, c := range cfg.Constants {
		line, err := customConstLine(c)
		if err != nil {
			return nil, err
		}
		b.customs = append(b.customs, line)
	}
	return b, nil
}

// Env exposes the type environment, mainly for tests and tooling.
func (b *Backend) Env() *types.Env {
	return b.env
}

// Documents names the four generated files.
func (b *Backend) Documents() map[output.Kind]string {
	return map[output.Kind]string{
		output.Types:     "Types.cs",
		output.Constants: "Constants.cs",
		output.Impl:      b.cfg.Class + ".cs",
		output.Interface: "I" + b.cfg.Class + ".cs",
	}
}

// prepare installs the default imports; emitters may add more later.
func (b *Backend) prepare(out *output.Set) {
	out.Doc(output.Types).AddImport(nsSystem)
	out.Doc(output.Types).AddImport(nsInterop)
	out.Doc(output.Constants).AddImport(nsSystem)
	for _, k := range []output.Kind{output.Impl, output.Interface} {
		out.Doc(k).AddImport(nsSystem)
		out.Doc(k).AddImport(nsInterop)
		out.Doc(k).AddImport(nsTasks)
	}
}

// Alias registers a type alias; aliases produce no output.
func (b *Backend) Alias(d *decl.Decl, out *output.Set) error {
	b.prepare(out)
	return b.env.RegisterAlias(d.Name, d.Type)
}

func customConstLine(c backend.CustomConst) (string, error) {
	switch {
	case !isIdent(c.Name):
		return "", diag.NewErr(diag.CfgMalformedConstant, fmt.Sprintf("invalid constant name %q", c.Name))
	case strings.TrimSpace(c.Type) == "":
		return "", diag.NewErr(diag.CfgMalformedConstant, fmt.Sprintf("constant %s has no type", c.Name))
	case strings.TrimSpace(c.Value) == "":
		return "", diag.NewErr(diag.CfgMalformedConstant, fmt.Sprintf("constant %s has no value", c.Name))
	}
	return fmt.Sprintf("%spublic const %s %s = %s;\n", indentBody, c.Type, c.Name, c.Value), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
