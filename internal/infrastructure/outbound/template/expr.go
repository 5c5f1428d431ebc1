package template

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
)

// ExprCompiler compiles bodies with ${ } interpolation of Expr expressions.
type ExprCompiler struct{}

// Compile splits source on ${ } and compiles each expression.
func (c *ExprCompiler) Compile(name, source string) (mock.BodyRenderer, error) {
	segments, err := parseSegments(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expr template %q: %w", name, err)
	}
	for _, seg := range segments {
		if seg.program != nil {
			return &exprRenderer{segments: segments}, nil
		}
	}
	return staticRenderer(source), nil
}

type segment struct {
	text    string
	program *vm.Program
}

func parseSegments(source string) ([]segment, error) {
	env := vars(mock.RenderContext{})

	var segments []segment
	rest := source
	offset := 0
	for {
		open := strings.Index(rest, "${")
		if open < 0 {
			if rest != "" {
				segments = append(segments, segment{text: rest})
			}
			return segments, nil
		}
		if open > 0 {
			segments = append(segments, segment{text: rest[:open]})
		}

		inner := rest[open+2:]
		end := closingBrace(inner)
		if end < 0 {
			return nil, fmt.Errorf("unclosed ${ at offset %d", offset+open)
		}

		code := inner[:end]
		program, err := expr.Compile(code, expr.Env(env))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression %q: %w", code, err)
		}
		segments = append(segments, segment{program: program})

		consumed := open + 2 + end + 1
		offset += consumed
		rest = rest[consumed:]
	}
}

// closingBrace returns the index of the } closing an expression, skipping
// nested braces and quoted strings, or -1.
func closingBrace(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

type exprRenderer struct {
	segments []segment
}

func (r *exprRenderer) Render(rc mock.RenderContext) ([]byte, error) {
	env := vars(rc)

	var buf strings.Builder
	for _, seg := range r.segments {
		if seg.program == nil {
			buf.WriteString(seg.text)
			continue
		}
		out, err := expr.Run(seg.program, env)
		if err != nil {
			return nil, fmt.Errorf("expression evaluation failed: %w", err)
		}
		fmt.Fprint(&buf, out)
	}
	return []byte(buf.String()), nil
}

type staticRenderer []byte

func (r staticRenderer) Render(mock.RenderContext) ([]byte, error) {
	return r, nil
}
