package template

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
)

// Jinja2Compiler compiles bodies as pongo2 (Django/Jinja2 syntax) templates.
// Output is not HTML-escaped; bodies are usually JSON.
type Jinja2Compiler struct{}

func (c *Jinja2Compiler) Compile(name, source string) (mock.BodyRenderer, error) {
	tpl, err := pongo2.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("failed to compile jinja2 template %q: %w", name, err)
	}
	return &jinja2Renderer{tpl: tpl}, nil
}

type jinja2Renderer struct {
	tpl *pongo2.Template
}

func (r *jinja2Renderer) Render(rc mock.RenderContext) ([]byte, error) {
	out, err := r.tpl.ExecuteBytes(pongo2.Context(vars(rc)))
	if err != nil {
		return nil, fmt.Errorf("jinja2 template render failed: %w", err)
	}
	return out, nil
}
