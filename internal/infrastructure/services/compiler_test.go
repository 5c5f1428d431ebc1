package services_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/domain/scenario"
	"github.com/sophialabs/stubhttp/internal/infrastructure/outbound/template"
	"github.com/sophialabs/stubhttp/internal/infrastructure/services"
)

func newTestCompiler(t *testing.T, root string) *services.Compiler {
	t.Helper()
	if root == "" {
		root = t.TempDir()
	}
	c, err := services.NewCompiler(root, template.NewRegistry(), "")
	if err != nil {
		t.Fatalf("NewCompiler failed: %v", err)
	}
	return c
}

func mustCompile(t *testing.T, c *services.Compiler, s *scenario.Scenario) mock.Config {
	t.Helper()
	cfg, err := c.CompileScenario(s)
	if err != nil {
		t.Fatalf("CompileScenario failed: %v", err)
	}
	return cfg
}

func TestCompiler_SimpleScenario(t *testing.T) {
	cfg := mustCompile(t, newTestCompiler(t, ""), &scenario.Scenario{
		ID:       "health",
		Priority: 10,
		When:     &scenario.WhenClause{Method: "GET", Path: "/api/health"},
		Response: scenario.Response{Status: 200, Body: `{"ok": true}`},
	})

	if cfg.Name != "health" {
		t.Errorf("unexpected name: %s", cfg.Name)
	}
	if cfg.Response.StatusCode != 200 || string(cfg.Response.Data) != `{"ok": true}` {
		t.Errorf("unexpected response: %+v", cfg.Response)
	}
	if ct := cfg.Response.Headers.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json for a JSON body, got %q", ct)
	}

	tests := []struct {
		method, path string
		want         bool
	}{
		{"GET", "/api/health", true},
		{"POST", "/api/health", false},
		{"GET", "/api/other", false},
	}
	for _, tt := range tests {
		if got := cfg.Matcher(&request.Request{Method: tt.method, Path: tt.path}); got != tt.want {
			t.Errorf("%s %s: matched=%v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestCompiler_NoWhenIsDefault(t *testing.T) {
	cfg := mustCompile(t, newTestCompiler(t, ""), &scenario.Scenario{
		ID:       "fallback",
		Response: scenario.Response{Status: 503},
	})
	if cfg.Matcher != nil {
		t.Error("expected an unconditional configuration")
	}
	if cfg.Response.StatusCode != 503 || cfg.Response.Data != nil {
		t.Errorf("unexpected response: %+v", cfg.Response)
	}
	if cfg.Response.Headers.Has("Content-Type") {
		t.Error("no content type expected for an empty body")
	}
}

func TestCompiler_HeadersQueryExpr(t *testing.T) {
	cfg := mustCompile(t, newTestCompiler(t, ""), &scenario.Scenario{
		ID: "search",
		When: &scenario.WhenClause{
			Method:  "GET",
			Path:    "/search",
			Headers: map[string]string{"x-api-key": "=secret"},
			Query:   map[string]string{"q": "^go"},
			Expr:    `len(queryParam("q")) < 10`,
		},
		Response: scenario.Response{Body: "found"},
	})

	base := func() *request.Request {
		return &request.Request{
			Method:  "GET",
			Path:    "/search",
			Headers: request.Headers{{Name: "X-Api-Key", Value: "secret"}},
			Query:   request.Query{{Name: "q", Value: "golang"}},
		}
	}

	if !cfg.Matcher(base()) {
		t.Error("expected match")
	}

	wrongKey := base()
	wrongKey.Headers = request.Headers{{Name: "X-Api-Key", Value: "secret2"}}
	if cfg.Matcher(wrongKey) {
		t.Error("exact header must not match a longer value")
	}

	wrongQuery := base()
	wrongQuery.Query = request.Query{{Name: "q", Value: "rust"}}
	if cfg.Matcher(wrongQuery) {
		t.Error("regex query must not match")
	}

	longQuery := base()
	longQuery.Query = request.Query{{Name: "q", Value: "go-is-very-long"}}
	if cfg.Matcher(longQuery) {
		t.Error("expr must reject the long query")
	}
}

func TestCompiler_Route(t *testing.T) {
	cfg := mustCompile(t, newTestCompiler(t, ""), &scenario.Scenario{
		ID:       "user",
		When:     &scenario.WhenClause{Method: "GET", Route: "/users/{id}"},
		Response: scenario.Response{Body: `{"id":"{{ pathParam("id") }}"}`, Engine: template.EngineJinja2},
	})

	req := &request.Request{Method: "GET", Path: "/users/42"}
	if !cfg.Matcher(req) {
		t.Fatal("expected route match")
	}
	if cfg.Matcher(&request.Request{Method: "GET", Path: "/users/42/posts"}) {
		t.Error("route must not match a deeper path")
	}
	if cfg.Params == nil || cfg.Params("/users/42")["id"] != "42" {
		t.Fatal("expected path params")
	}

	out, err := cfg.Renderer.Render(mock.RenderContext{Request: req, PathParams: cfg.Params(req.Path)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(out) != `{"id":"42"}` {
		t.Errorf("unexpected render: %s", out)
	}
}

func TestCompiler_BodyConditions(t *testing.T) {
	c := newTestCompiler(t, "")

	tests := []struct {
		name string
		body *scenario.BodyClause
		hit  string
		miss string
	}{
		{
			name: "json",
			body: &scenario.BodyClause{ContentType: "json", Conditions: []scenario.BodyCondition{{Extractor: "$.user.role", Matcher: "=admin"}}},
			hit:  `{"user":{"role":"admin"}}`,
			miss: `{"user":{"role":"guest"}}`,
		},
		{
			name: "xml",
			body: &scenario.BodyClause{ContentType: "xml", Conditions: []scenario.BodyCondition{{Extractor: "//order/status", Matcher: "^paid$"}}},
			hit:  `<order><status>paid</status></order>`,
			miss: `<order><status>open</status></order>`,
		},
		{
			name: "raw",
			body: &scenario.BodyClause{Conditions: []scenario.BodyCondition{{Matcher: "hello"}}},
			hit:  "say hello",
			miss: "goodbye",
		},
		{
			name: "any",
			body: &scenario.BodyClause{ContentType: "json", Any: []scenario.BodyClause{
				{ContentType: "json", Conditions: []scenario.BodyCondition{{Extractor: "$.a", Matcher: "=1"}}},
				{ContentType: "json", Conditions: []scenario.BodyCondition{{Extractor: "$.b", Matcher: "=2"}}},
			}},
			hit:  `{"b":2}`,
			miss: `{"a":2,"b":1}`,
		},
		{
			name: "not",
			body: &scenario.BodyClause{Not: &scenario.BodyClause{ContentType: "json", Conditions: []scenario.BodyCondition{{Extractor: "$.debug", Matcher: "=true"}}}},
			hit:  `{"debug":false}`,
			miss: `{"debug":true}`,
		},
		{
			name: "all",
			body: &scenario.BodyClause{All: []scenario.BodyClause{
				{Conditions: []scenario.BodyCondition{{Matcher: "alpha"}}},
				{Conditions: []scenario.BodyCondition{{Matcher: "beta"}}},
			}},
			hit:  "alpha beta",
			miss: "alpha",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustCompile(t, c, &scenario.Scenario{ID: tt.name, When: &scenario.WhenClause{Body: tt.body}})
			if !cfg.Matcher(&request.Request{Body: []byte(tt.hit)}) {
				t.Errorf("expected %q to match", tt.hit)
			}
			if cfg.Matcher(&request.Request{Body: []byte(tt.miss)}) {
				t.Errorf("expected %q not to match", tt.miss)
			}
		})
	}
}

func TestCompiler_InvalidPatterns(t *testing.T) {
	c := newTestCompiler(t, "")
	tests := map[string]*scenario.WhenClause{
		"header regex": {Headers: map[string]string{"X": "("}},
		"query regex":  {Query: map[string]string{"q": "[z-a]"}},
		"body regex":   {Body: &scenario.BodyClause{Conditions: []scenario.BodyCondition{{Matcher: "("}}}},
		"expr":         {Expr: `method +`},
		"expr type":    {Expr: `method`},
		"route":        {Route: "no-leading-slash"},
	}
	for name, when := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := c.CompileScenario(&scenario.Scenario{ID: name, When: when}); err == nil {
				t.Error("expected compile error")
			}
		})
	}
}

func TestCompiler_BodyFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "bodies"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "bodies", "user.json"), []byte(`{"name":"Ada"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newTestCompiler(t, root)
	cfg := mustCompile(t, c, &scenario.Scenario{ID: "file", Response: scenario.Response{BodyFile: "bodies/user.json"}})
	if string(cfg.Response.Data) != `{"name":"Ada"}` {
		t.Errorf("unexpected body: %s", cfg.Response.Data)
	}
	if ct := cfg.Response.Headers.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	for _, bad := range []string{"../outside.json", "/etc/passwd", "bodies/../../x"} {
		if _, err := c.CompileScenario(&scenario.Scenario{ID: "bad", Response: scenario.Response{BodyFile: bad}}); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestCompiler_ExplicitContentTypeAndHeaders(t *testing.T) {
	cfg := mustCompile(t, newTestCompiler(t, ""), &scenario.Scenario{
		ID: "ct",
		Response: scenario.Response{
			Body:        "<x/>",
			ContentType: "application/xml",
			Headers:     map[string]string{"X-B": "2", "X-A": "1"},
		},
	})
	want := request.Headers{{Name: "X-A", Value: "1"}, {Name: "X-B", Value: "2"}, {Name: "Content-Type", Value: "application/xml"}}
	if len(cfg.Response.Headers) != len(want) {
		t.Fatalf("headers = %v, want %v", cfg.Response.Headers, want)
	}
	for i := range want {
		if cfg.Response.Headers[i] != want[i] {
			t.Errorf("header %d = %v, want %v", i, cfg.Response.Headers[i], want[i])
		}
	}
}

func TestCompiler_Policy(t *testing.T) {
	cfg := mustCompile(t, newTestCompiler(t, ""), &scenario.Scenario{
		ID:   "slow",
		When: &scenario.WhenClause{Method: "GET"},
		Policy: &scenario.Policy{
			Once:      true,
			Latency:   &scenario.Latency{FixedMs: 250, JitterMs: 50},
			RateLimit: &scenario.RateLimit{Rate: 2, Burst: 3, Key: "shared"},
		},
	})
	if !cfg.OnlyOnce {
		t.Error("expected OnlyOnce")
	}
	if cfg.Delay != 250*time.Millisecond || cfg.Jitter != 50*time.Millisecond {
		t.Errorf("unexpected latency: %v + %v", cfg.Delay, cfg.Jitter)
	}
	if cfg.RateLimit == nil || cfg.RateLimit.Rate != 2 || cfg.RateLimit.Burst != 3 || cfg.RateLimit.Key != "shared" {
		t.Errorf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestCompiler_DefaultEngine(t *testing.T) {
	c, err := services.NewCompiler(t.TempDir(), template.NewRegistry(), template.EngineExpr)
	if err != nil {
		t.Fatal(err)
	}
	cfg := mustCompile(t, c, &scenario.Scenario{ID: "t", Response: scenario.Response{Body: `${method}`}})
	if cfg.Renderer == nil {
		t.Fatal("expected the default engine to apply")
	}
	out, err := cfg.Renderer.Render(mock.RenderContext{Request: &request.Request{Method: "PUT"}})
	if err != nil || string(out) != "PUT" {
		t.Errorf("Render = %q, %v", out, err)
	}
}

func TestCompiler_EngineWithoutRegistry(t *testing.T) {
	c, err := services.NewCompiler(t.TempDir(), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CompileScenario(&scenario.Scenario{ID: "t", Response: scenario.Response{Body: "x", Engine: "expr"}}); err == nil {
		t.Error("expected error without a registry")
	}
}
