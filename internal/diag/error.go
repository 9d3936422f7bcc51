package diag

import (
	"errors"
	"strings"

	"bindgen/internal/source"
)

// Error classes. Every *Error unwraps to exactly one of them, chosen by the
// code range, so callers can test with errors.Is without knowing codes.
var (
	ErrInput                    = errors.New("malformed declaration input")
	ErrUnresolvedType           = errors.New("unresolved type")
	ErrUnsupportedType          = errors.New("unsupported type")
	ErrUnsupportedCallbackShape = errors.New("unsupported callback shape")
	ErrConfig                   = errors.New("configuration error")
	ErrOutput                   = errors.New("output error")
)

// Error is a diagnostic travelling through ordinary error returns. Decl names
// the offending declaration and Item the field or parameter, when known.
type Error struct {
	Code    Code
	Decl    string
	Item    string
	Span    source.Span
	Message string
}

// Errorf-free constructor; messages are composed by callers.
func NewErr(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Span: source.Span{File: source.NoFile}}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Decl != "" {
		b.WriteString(e.Decl)
		b.WriteString(": ")
	}
	if e.Item != "" {
		b.WriteString(e.Item)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *Error) Unwrap() error {
	switch {
	case e.Code >= InpInfo && e.Code < TypInfo:
		return ErrInput
	case e.Code == TypUnresolved || e.Code == TypCyclicAlias || e.Code == TypAliasRedefined:
		return ErrUnresolvedType
	case e.Code == EmtUnsupportedCallbackShape:
		return ErrUnsupportedCallbackShape
	case e.Code >= TypInfo && e.Code < CfgInfo:
		return ErrUnsupportedType
	case e.Code >= CfgInfo && e.Code < OutInfo:
		return ErrConfig
	case e.Code >= OutInfo:
		return ErrOutput
	}
	return nil
}

// InDecl tags the error with its declaration unless already tagged.
func (e *Error) InDecl(name string, span source.Span) *Error {
	if e.Decl == "" {
		e.Decl = name
	}
	if e.Span.File == source.NoFile {
		e.Span = span
	}
	return e
}

// At tags the error with the field or parameter it concerns.
func (e *Error) At(item string) *Error {
	if e.Item == "" {
		e.Item = item
	}
	return e
}

// Tag is InDecl for arbitrary errors: a plain error is wrapped under fallback.
func Tag(err error, fallback Code, decl string, span source.Span) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de.InDecl(decl, span)
	}
	return &Error{Code: fallback, Decl: decl, Span: span, Message: err.Error()}
}

// FromError converts err into a Diagnostic.
func FromError(err error, fallback Code, primary source.Span) Diagnostic {
	var de *Error
	if errors.As(err, &de) {
		sp := de.Span
		if sp.File == source.NoFile {
			sp = primary
		}
		return NewError(de.Code, sp, de.Error())
	}
	return NewError(fallback, primary, err.Error())
}
