package services

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/match"
	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/domain/scenario"
)

// TemplateRegistry compiles template sources into body renderers by engine name.
type TemplateRegistry interface {
	Compile(engine, name, source string) (mock.BodyRenderer, error)
}

// Compiler turns fixture scenarios into mock configurations.
type Compiler struct {
	rootDir       string
	registry      TemplateRegistry // nil means no template support
	defaultEngine string
}

// NewCompiler creates a Compiler that resolves body_file paths under rootDir.
// defaultEngine applies to responses that do not name an engine; "" keeps
// them static.
func NewCompiler(rootDir string, registry TemplateRegistry, defaultEngine string) (*Compiler, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &Compiler{rootDir: absRoot, registry: registry, defaultEngine: defaultEngine}, nil
}

// CompileScenario builds the configuration for s. A scenario without a when
// clause becomes an unconditional default.
func (c *Compiler) CompileScenario(s *scenario.Scenario) (mock.Config, error) {
	cfg := mock.Config{Name: s.ID}
	if cfg.Name == "" {
		cfg.Name = s.Name
	}

	if s.When != nil {
		m, route, err := c.compileWhen(s.When)
		if err != nil {
			return mock.Config{}, fmt.Errorf("failed to compile scenario %q: %w", s.ID, err)
		}
		cfg.Matcher = m
		if route != nil {
			cfg.Params = route.Params
		}
	}

	if err := c.compileResponse(&s.Response, &cfg); err != nil {
		return mock.Config{}, fmt.Errorf("failed to compile response for %q: %w", s.ID, err)
	}

	if p := s.Policy; p != nil {
		cfg.OnlyOnce = p.Once
		if p.Latency != nil {
			cfg.Delay = time.Duration(p.Latency.FixedMs) * time.Millisecond
			cfg.Jitter = time.Duration(p.Latency.JitterMs) * time.Millisecond
		}
		if p.RateLimit != nil {
			cfg.RateLimit = &mock.RateLimit{Rate: p.RateLimit.Rate, Burst: p.RateLimit.Burst, Key: p.RateLimit.Key}
		}
	}

	return cfg, nil
}

func (c *Compiler) compileWhen(w *scenario.WhenClause) (match.Matcher, *Route, error) {
	var matchers []match.Matcher

	if w.Method != "" {
		matchers = append(matchers, match.Method(w.Method))
	}
	if w.Path != "" {
		matchers = append(matchers, match.Path(w.Path))
	}

	var route *Route
	if w.Route != "" {
		r, err := CompileRoute(w.Route)
		if err != nil {
			return nil, nil, err
		}
		route = r
		matchers = append(matchers, r.Matcher())
	}

	// Sorted for a deterministic evaluation order.
	for _, name := range sortedKeys(w.Headers) {
		p, err := match.ParseValue(w.Headers[name])
		if err != nil {
			return nil, nil, fmt.Errorf("header %q: %w", name, err)
		}
		matchers = append(matchers, match.Header(name, p))
	}
	for _, name := range sortedKeys(w.Query) {
		p, err := match.ParseValue(w.Query[name])
		if err != nil {
			return nil, nil, fmt.Errorf("query %q: %w", name, err)
		}
		matchers = append(matchers, match.Query(name, p))
	}

	if w.Body != nil {
		bodyMatchers, err := compileBody(w.Body)
		if err != nil {
			return nil, nil, err
		}
		matchers = append(matchers, bodyMatchers...)
	}

	if w.Expr != "" {
		m, err := CompileExpression(w.Expr)
		if err != nil {
			return nil, nil, err
		}
		matchers = append(matchers, m)
	}

	return match.All(matchers...), route, nil
}

func compileBody(bc *scenario.BodyClause) ([]match.Matcher, error) {
	var matchers []match.Matcher

	for _, cond := range bc.Conditions {
		m, err := compileBodyCondition(cond, bc.ContentType)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	if len(bc.All) > 0 {
		var all []match.Matcher
		for i := range bc.All {
			child, err := compileBody(&bc.All[i])
			if err != nil {
				return nil, err
			}
			all = append(all, child...)
		}
		matchers = append(matchers, match.All(all...))
	}

	if len(bc.Any) > 0 {
		var alts []match.Matcher
		for i := range bc.Any {
			child, err := compileBody(&bc.Any[i])
			if err != nil {
				return nil, err
			}
			// Each alternative must hold as a whole.
			alts = append(alts, match.All(child...))
		}
		matchers = append(matchers, match.Any(alts...))
	}

	if bc.Not != nil {
		inner, err := compileBody(bc.Not)
		if err != nil {
			return nil, err
		}
		if len(inner) > 0 {
			matchers = append(matchers, match.Not(match.All(inner...)))
		}
	}

	return matchers, nil
}

func compileBodyCondition(cond scenario.BodyCondition, contentType string) (match.Matcher, error) {
	p, err := match.ParseValue(cond.Matcher)
	if err != nil {
		return nil, fmt.Errorf("body condition %q: %w", cond.Extractor, err)
	}

	switch strings.ToLower(contentType) {
	case "json":
		return JSONPath(cond.Extractor, p), nil
	case "xml":
		return XPath(cond.Extractor, p), nil
	default:
		return match.Body(p), nil
	}
}

func (c *Compiler) compileResponse(r *scenario.Response, cfg *mock.Config) error {
	resp := mock.Response{StatusCode: r.Status}
	if resp.StatusCode == 0 {
		resp.StatusCode = 200
	}
	for _, name := range sortedKeys(r.Headers) {
		resp.Headers = append(resp.Headers, request.Pair{Name: name, Value: r.Headers[name]})
	}

	source := r.Body
	if r.BodyFile != "" {
		resolved, err := c.resolveBodyFilePath(r.BodyFile)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return fmt.Errorf("failed to read body_file %q: %w", r.BodyFile, err)
		}
		source = string(data)
	}
	if source != "" || r.BodyFile != "" {
		resp.Data = []byte(source)
	}

	if !resp.Headers.Has("Content-Type") {
		switch {
		case r.ContentType != "":
			resp.Headers = resp.Headers.With("Content-Type", r.ContentType)
		case len(resp.Data) > 0:
			resp.Headers = resp.Headers.With("Content-Type", InferContentType(r.BodyFile, resp.Data))
		}
	}

	engine := r.Engine
	if engine == "" {
		engine = c.defaultEngine
	}
	if engine != "" {
		if c.registry == nil {
			return fmt.Errorf("template engine %q requested but no registry configured", engine)
		}
		name := r.BodyFile
		if name == "" {
			name = "inline"
		}
		renderer, err := c.registry.Compile(engine, name, source)
		if err != nil {
			return fmt.Errorf("failed to compile template (engine=%s): %w", engine, err)
		}
		cfg.Renderer = renderer
	}

	cfg.Response = resp
	return nil
}

// resolveBodyFilePath resolves body_file against the root and rejects paths
// that leave it, including through symlinks.
func (c *Compiler) resolveBodyFilePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths not allowed in body_file: %s", path)
	}

	resolved := filepath.Join(c.rootDir, path)

	realPath, err := filepath.EvalSymlinks(resolved)
	if err != nil {
		realPath = filepath.Clean(resolved)
	}
	realRoot, err := filepath.EvalSymlinks(c.rootDir)
	if err != nil {
		realRoot = c.rootDir
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("body_file path %q escapes root directory", path)
	}
	return resolved, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
