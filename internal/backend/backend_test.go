package backend

import (
	"errors"
	"testing"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/output"
)

type recorder struct {
	calls []string
}

func (r *recorder) Struct(d *decl.Decl, _ *output.Set) error   { return r.add("struct " + d.Name) }
func (r *recorder) Enum(d *decl.Decl, _ *output.Set) error     { return r.add("enum " + d.Name) }
func (r *recorder) Alias(d *decl.Decl, _ *output.Set) error    { return r.add("type " + d.Name) }
func (r *recorder) Function(d *decl.Decl, _ *output.Set) error { return r.add("fn " + d.Name) }
func (r *recorder) Const(d *decl.Decl, _ *output.Set) error    { return r.add("const " + d.Name) }
func (r *recorder) Finalize(*output.Set) error                 { return r.add("finalize") }
func (r *recorder) Documents() map[output.Kind]string          { return nil }

func (r *recorder) add(s string) error {
	r.calls = append(r.calls, s)
	return nil
}

func TestRegistry(t *testing.T) {
	var got Config
	Register("test-recorder", func(cfg Config) (Backend, error) {
		got = cfg
		return &recorder{}, nil
	})
	if _, err := New("test-recorder", Config{Class: "Api"}); err != nil {
		t.Fatal(err)
	}
	if got.Class != "Api" || got.Namespace != "Backend" || got.ResultType != "FfiResult" {
		t.Errorf("defaults not applied: %+v", got)
	}

	_, err := New("cobol", Config{})
	if !errors.Is(err, diag.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestDispatch(t *testing.T) {
	r := &recorder{}
	for _, d := range []*decl.Decl{
		{Kind: decl.KindAlias, Name: "Id"},
		{Kind: decl.KindStruct, Name: "Record"},
		{Kind: decl.KindFunction, Name: "fun"},
	} {
		if err := Dispatch(r, d, nil); err != nil {
			t.Fatal(err)
		}
	}
	if len(r.calls) != 3 || r.calls[0] != "type Id" || r.calls[2] != "fn fun" {
		t.Errorf("calls = %v", r.calls)
	}
	if err := Dispatch(r, &decl.Decl{Name: "bad"}, nil); !errors.Is(err, diag.ErrInput) {
		t.Errorf("expected input error, got %v", err)
	}
}
