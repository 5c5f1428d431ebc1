// Package template renders fixture response bodies per request.
package template

import (
	"fmt"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
)

// Engine names.
const (
	EngineExpr   = "expr"
	EngineJinja2 = "jinja2"
)

// EngineCompiler compiles a template source into a body renderer.
type EngineCompiler interface {
	Compile(name, source string) (mock.BodyRenderer, error)
}

// Registry maps engine names to their compilers.
type Registry struct {
	engines map[string]EngineCompiler
}

// NewRegistry creates a registry with the expr and jinja2 engines.
func NewRegistry() *Registry {
	return &Registry{
		engines: map[string]EngineCompiler{
			EngineExpr:   &ExprCompiler{},
			EngineJinja2: &Jinja2Compiler{},
		},
	}
}

// Compile resolves the engine by name and compiles the source.
func (r *Registry) Compile(engine, name, source string) (mock.BodyRenderer, error) {
	ec, ok := r.engines[engine]
	if !ok {
		return nil, fmt.Errorf("unknown template engine: %q (supported: %s, %s)", engine, EngineExpr, EngineJinja2)
	}
	return ec.Compile(name, source)
}

// Supports reports whether engine is registered.
func (r *Registry) Supports(engine string) bool {
	_, ok := r.engines[engine]
	return ok
}
