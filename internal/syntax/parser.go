package syntax

import (
	"fmt"
	"strconv"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/types"
)

// Parser is a recursive-descent parser over a single expression.
type Parser struct {
	sc   *Scanner
	tok  Token
	next *Token
	code diag.Code
	err  error
}

func newParser(src string, code diag.Code) *Parser {
	p := &Parser{sc: NewScanner(src), code: code}
	p.advance()
	return p
}

// ParseType parses a complete type expression.
func ParseType(src string) (*types.Type, error) {
	p := newParser(src, diag.InpBadTypeExpr)
	t := p.parseType()
	p.expectEOF()
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

// ParseValue parses a complete constant value expression.
func ParseValue(src string) (*decl.Value, error) {
	p := newParser(src, diag.InpBadValueExpr)
	v := p.parseValue()
	p.expectEOF()
	if p.err != nil {
		return nil, p.err
	}
	return v, nil
}

func (p *Parser) advance() Token {
	prev := p.tok
	if p.next != nil {
		p.tok = *p.next
		p.next = nil
	} else {
		p.tok = p.sc.Next()
	}
	if se := p.sc.Err(); se != nil && p.err == nil {
		p.err = diag.NewErr(p.code, se.Error())
	}
	return prev
}

func (p *Parser) peek() Token {
	if p.next == nil {
		t := p.sc.Next()
		p.next = &t
	}
	return *p.next
}

func (p *Parser) errorf(format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = diag.NewErr(p.code, fmt.Sprintf("col %d: %s", p.tok.Off+1, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(k Kind) bool {
	if p.tok.Kind != k {
		p.errorf("expected %s, found %s", k, p.describe())
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expectEOF() {
	if p.err == nil && p.tok.Kind != EOF {
		p.errorf("unexpected %s after expression", p.describe())
	}
}

func (p *Parser) accept(k Kind) bool {
	if p.tok.Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptKw(kw string) bool {
	if p.tok.Is(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) describe() string {
	if p.tok.Kind == Ident {
		return fmt.Sprintf("%q", p.tok.Text)
	}
	return p.tok.Kind.String()
}

// parsePath reads `a::b::C` and returns the last segment, which is the only
// part that matters for binding generation.
func (p *Parser) parsePath() string {
	if p.tok.Kind != Ident {
		p.errorf("expected identifier, found %s", p.describe())
		return ""
	}
	last := p.advance().Text
	for p.tok.Kind == ColonCol {
		p.advance()
		if p.tok.Kind != Ident {
			p.errorf("expected identifier after '::', found %s", p.describe())
			return last
		}
		last = p.advance().Text
	}
	return last
}

// Types ----------------------------------------------------------------------

func (p *Parser) parseType() *types.Type {
	if p.err != nil {
		return nil
	}
	switch p.tok.Kind {
	case Star:
		p.advance()
		var mutable bool
		switch {
		case p.acceptKw("mut"):
			mutable = true
		case p.acceptKw("const"):
		default:
			p.errorf("expected const or mut after '*'")
			return nil
		}
		return types.MakePointer(p.parseType(), mutable)
	case Amp:
		p.advance()
		p.accept(Lifetime)
		mutable := p.acceptKw("mut")
		return types.MakePointer(p.parseType(), mutable)
	case LBracket:
		return p.parseArrayType()
	case LParen:
		p.advance()
		p.expect(RParen)
		return types.MakeVoid()
	case Bang:
		p.errorf("never type is not supported")
		return nil
	case Ident:
		switch p.tok.Text {
		case "extern", "unsafe", "fn":
			return p.parseFnType()
		case "Option":
			// Option<extern fn> is a nullable callback with the same ABI.
			if p.peek().Kind == Lt {
				p.advance()
				p.advance()
				inner := p.parseType()
				p.expect(Gt)
				return inner
			}
		}
		name := p.parsePath()
		if prim, ok := types.LookupPrim(name); ok {
			return types.MakePrim(prim)
		}
		if p.tok.Kind == Lt {
			p.errorf("generic type %s is not supported", name)
			return nil
		}
		return types.MakeNamed(name)
	}
	p.errorf("expected type, found %s", p.describe())
	return nil
}

func (p *Parser) parseArrayType() *types.Type {
	p.expect(LBracket)
	elem := p.parseType()
	if !p.expect(Semicolon) {
		return nil
	}
	var t *types.Type
	switch p.tok.Kind {
	case IntLit:
		n, err := strconv.ParseUint(p.tok.Text, 0, 32)
		if err != nil {
			p.errorf("array size %s out of range", p.tok.Text)
			return nil
		}
		p.advance()
		t = types.MakeArray(elem, uint32(n))
	case Ident:
		t = types.MakeArrayNamed(elem, p.parsePath())
	default:
		p.errorf("expected array size, found %s", p.describe())
		return nil
	}
	p.expect(RBracket)
	return t
}

func (p *Parser) parseFnType() *types.Type {
	p.acceptKw("unsafe")
	if p.acceptKw("extern") {
		if p.tok.Kind == StringLit {
			if abi := p.advance().Text; abi != "C" {
				p.errorf("unsupported callback ABI %q", abi)
				return nil
			}
		}
	}
	if !p.acceptKw("fn") {
		p.errorf("expected fn, found %s", p.describe())
		return nil
	}
	p.expect(LParen)
	var params []types.Param
	for p.err == nil && p.tok.Kind != RParen && p.tok.Kind != EOF {
		var name string
		if p.tok.Kind == Ident && p.peek().Kind == Colon {
			name = p.advance().Text
			if name == "_" {
				name = ""
			}
			p.advance()
		}
		params = append(params, types.Param{Name: name, Type: p.parseType()})
		if !p.accept(Comma) {
			break
		}
	}
	p.expect(RParen)
	var result *types.Type
	if p.accept(Arrow) {
		result = p.parseType()
		if result.IsVoid() {
			result = nil
		}
	}
	return types.MakeCallback(params, result)
}

// Values ---------------------------------------------------------------------

func (p *Parser) parseValue() *decl.Value {
	v := p.parseUnary()
	for p.err == nil && p.tok.Is("as") {
		p.advance()
		target := p.parseType()
		if target != nil && target.Kind == types.KindPointer && v.IsZero() {
			v = &decl.Value{Kind: decl.ValNull}
		}
	}
	return v
}

func (p *Parser) parseUnary() *decl.Value {
	if p.tok.Kind != Minus {
		return p.parsePrimary()
	}
	p.advance()
	v := p.parseUnary()
	if v == nil || (v.Kind != decl.ValInt && v.Kind != decl.ValFloat) {
		p.errorf("unary minus applies to numbers only")
		return v
	}
	v.Neg = !v.Neg
	return v
}

func (p *Parser) parsePrimary() *decl.Value {
	if p.err != nil {
		return nil
	}
	tok := p.tok
	switch tok.Kind {
	case IntLit, ByteLit:
		p.advance()
		return &decl.Value{Kind: decl.ValInt, Text: tok.Text}
	case FloatLit:
		p.advance()
		return &decl.Value{Kind: decl.ValFloat, Text: tok.Text}
	case StringLit:
		p.advance()
		return decl.String(tok.Text)
	case ByteStringLit:
		p.advance()
		arr := &decl.Value{Kind: decl.ValArray}
		for i := 0; i < len(tok.Text); i++ {
			arr.Elems = append(arr.Elems, decl.Int(int64(tok.Text[i])))
		}
		return arr
	case Amp:
		p.advance()
		p.acceptKw("mut")
		return &decl.Value{Kind: decl.ValRef, Inner: p.parseUnary()}
	case LParen:
		p.advance()
		v := p.parseValue()
		p.expect(RParen)
		return v
	case LBracket:
		return p.parseArrayValue()
	case Ident:
		switch tok.Text {
		case "true", "false":
			p.advance()
			return &decl.Value{Kind: decl.ValBool, Text: tok.Text}
		}
		name := p.parsePath()
		switch {
		case p.tok.Kind == LParen && (name == "null" || name == "null_mut"):
			p.advance()
			p.expect(RParen)
			return &decl.Value{Kind: decl.ValNull}
		case p.tok.Kind == LBrace:
			return p.parseStructValue(name)
		}
		return &decl.Value{Kind: decl.ValIdent, Text: name}
	}
	p.errorf("expected value, found %s", p.describe())
	return nil
}

func (p *Parser) parseArrayValue() *decl.Value {
	p.expect(LBracket)
	arr := &decl.Value{Kind: decl.ValArray}
	if p.accept(RBracket) {
		return arr
	}
	first := p.parseValue()
	if p.accept(Semicolon) {
		// [v; N] repeats v
		if p.tok.Kind != IntLit {
			p.errorf("repeat count must be an integer literal")
			return nil
		}
		n, err := strconv.ParseUint(p.advance().Text, 0, 16)
		if err != nil {
			p.errorf("repeat count out of range")
			return nil
		}
		for i := uint64(0); i < n; i++ {
			cp := *first
			arr.Elems = append(arr.Elems, &cp)
		}
		p.expect(RBracket)
		return arr
	}
	arr.Elems = append(arr.Elems, first)
	for p.err == nil && p.accept(Comma) {
		if p.tok.Kind == RBracket {
			break
		}
		arr.Elems = append(arr.Elems, p.parseValue())
	}
	p.expect(RBracket)
	return arr
}

func (p *Parser) parseStructValue(name string) *decl.Value {
	p.expect(LBrace)
	sv := &decl.Value{Kind: decl.ValStruct, Type: name}
	for p.err == nil && p.tok.Kind != RBrace && p.tok.Kind != EOF {
		if p.tok.Kind != Ident {
			p.errorf("expected field name, found %s", p.describe())
			return nil
		}
		field := p.advance().Text
		var v *decl.Value
		if p.accept(Colon) {
			v = p.parseValue()
		} else {
			v = &decl.Value{Kind: decl.ValIdent, Text: field}
		}
		sv.Fields = append(sv.Fields, decl.FieldValue{Name: field, Value: v})
		if !p.accept(Comma) {
			break
		}
	}
	p.expect(RBrace)
	return sv
}
