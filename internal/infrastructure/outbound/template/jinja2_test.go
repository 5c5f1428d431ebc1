package template

import (
	"testing"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
)

func renderJinja2(t *testing.T, source string, rc mock.RenderContext) string {
	t.Helper()
	renderer, err := (&Jinja2Compiler{}).Compile("test", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out, err := renderer.Render(rc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return string(out)
}

func TestJinja2Compiler_Variables(t *testing.T) {
	req := &request.Request{
		Method:  "GET",
		Path:    "/users/42",
		Headers: request.Headers{{Name: "X-Tenant", Value: "acme"}},
		Query:   request.Query{{Name: "q", Value: "x"}, {Name: "q", Value: "y"}},
	}
	rc := reqCtx(req)
	rc.PathParams = map[string]string{"id": "42"}

	got := renderJinja2(t, "{{ method }} {{ path }} id={{ pathParams.id }} tenant={{ header('x-tenant') }} q={{ query.q }}", rc)
	if got != "GET /users/42 id=42 tenant=acme q=y" {
		t.Errorf("got %q", got)
	}
}

func TestJinja2Compiler_Conditional(t *testing.T) {
	renderer, err := (&Jinja2Compiler{}).Compile("test", `{% if queryParam("verbose") == "1" %}long{% else %}short{% endif %}`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	tests := []struct {
		name  string
		query request.Query
		want  string
	}{
		{"verbose", request.Query{{Name: "verbose", Value: "1"}}, "long"},
		{"quiet", nil, "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := renderer.Render(reqCtx(&request.Request{Query: tt.query}))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, out)
			}
		})
	}
}

func TestJinja2Compiler_Loop(t *testing.T) {
	got := renderJinja2(t, `[{% for i in seq(1, 3) %}{{ i }}{% if not forloop.Last %},{% endif %}{% endfor %}]`, mock.RenderContext{})
	if got != "[1,2,3]" {
		t.Errorf("got %q", got)
	}
}

func TestJinja2Compiler_BodyHelpers(t *testing.T) {
	req := &request.Request{Body: []byte(`{"name":"Ada","tags":["x"]}`)}
	got := renderJinja2(t, `{{ jsonPath("$.name") }} {{ jsonPath("$.tags") }} {{ jsonPath("$.missing") }}|{{ body() }}`, reqCtx(req))
	if got != `Ada ["x"] |{"name":"Ada","tags":["x"]}` {
		t.Errorf("got %q", got)
	}
}

func TestJinja2Compiler_JsonPathInvalidBody(t *testing.T) {
	got := renderJinja2(t, `[{{ jsonPath("$.a") }}]`, reqCtx(&request.Request{Body: []byte("not json")}))
	if got != "[]" {
		t.Errorf("got %q", got)
	}
}

func TestJinja2Compiler_Now(t *testing.T) {
	got := renderJinja2(t, `{{ now() }} {{ nowFormat("15:04") }}`, reqCtx(&request.Request{}))
	if got != "2025-06-01T12:30:00Z 12:30" {
		t.Errorf("got %q", got)
	}
}

func TestJinja2Compiler_InvalidSyntax(t *testing.T) {
	if _, err := (&Jinja2Compiler{}).Compile("test", "{% if %}"); err == nil {
		t.Error("expected compile error")
	}
}

func TestJinja2Compiler_NoHTMLEscaping(t *testing.T) {
	got := renderJinja2(t, `{{ toJSON(headers) }}`, reqCtx(&request.Request{
		Headers: request.Headers{{Name: "A", Value: "<b>&"}},
	}))
	if got != `{"A":"<b>&"}` {
		t.Errorf("got %q", got)
	}
}
