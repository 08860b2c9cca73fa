// Package jsonpath evaluates the dotted/indexed selection expressions used
// in provider configs, such as "choices[0].message.content" or "response".
//
// Expressions are restricted to field and index navigation:
//
//	path  := ident step*
//	step  := "." ident | "[" digits "]"
//	ident := [A-Za-z_][A-Za-z0-9_]*
//
// A path is validated against that grammar first and only then handed to
// gojq, so configuration can never smuggle arbitrary jq programs into the
// runtime. Compile once at configure time; Eval is cheap and concurrent.
package jsonpath

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// Path is a compiled selection expression.
type Path struct {
	src  string
	code *gojq.Code
}

// Compile validates and compiles a path expression. The empty string
// compiles to the identity selection (the whole document).
func Compile(src string) (*Path, error) {
	if err := validate(src); err != nil {
		return nil, err
	}

	query := "."
	if src != "" {
		query = "." + src
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", src, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile path %q: %w", src, err)
	}

	return &Path{src: src, code: code}, nil
}

// MustCompile is Compile for static, known-good paths (shipped provider
// defaults). It panics on error.
func MustCompile(src string) *Path {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original expression.
func (p *Path) String() string {
	return p.src
}

// Eval selects from a decoded JSON document (the result of unmarshaling
// into interface{}). It returns the selected value and true, or nil and
// false when the path does not resolve or resolves to null.
func (p *Path) Eval(doc interface{}) (interface{}, bool) {
	iter := p.code.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return nil, false
	}
	if _, isErr := v.(error); isErr {
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

// EvalString selects a non-empty string. Anything else reports false.
func (p *Path) EvalString(doc interface{}) (string, bool) {
	v, ok := p.Eval(doc)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// EvalList selects a JSON array. A missing or non-array value reports
// false.
func (p *Path) EvalList(doc interface{}) ([]interface{}, bool) {
	v, ok := p.Eval(doc)
	if !ok {
		return nil, false
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	return list, true
}

// validate enforces the navigation-only grammar.
func validate(src string) error {
	if src == "" {
		return nil
	}

	i := 0
	n := len(src)

	readIdent := func() error {
		start := i
		for i < n && (isAlpha(src[i]) || src[i] == '_' || (i > start && isDigit(src[i]))) {
			i++
		}
		if i == start {
			return fmt.Errorf("invalid path %q: expected identifier at offset %d", src, start)
		}
		return nil
	}

	if err := readIdent(); err != nil {
		return err
	}

	for i < n {
		switch src[i] {
		case '.':
			i++
			if err := readIdent(); err != nil {
				return err
			}
		case '[':
			i++
			start := i
			for i < n && isDigit(src[i]) {
				i++
			}
			if i == start {
				return fmt.Errorf("invalid path %q: expected index at offset %d", src, start)
			}
			if i >= n || src[i] != ']' {
				return fmt.Errorf("invalid path %q: unterminated index at offset %d", src, start)
			}
			i++
		default:
			return fmt.Errorf("invalid path %q: unexpected character %q at offset %d", src, src[i], i)
		}
	}
	return nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
