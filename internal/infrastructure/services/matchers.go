package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/antchfx/xmlquery"
	"github.com/expr-lang/expr"
	"github.com/go-chi/chi/v5"

	"github.com/sophialabs/stubhttp/internal/domain/match"
	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// Route matches request paths against a chi pattern such as
// "/users/{id}" or "/files/*".
type Route struct {
	pattern string
	mux     *chi.Mux
}

// CompileRoute builds a Route. It fails on patterns chi rejects.
func CompileRoute(pattern string) (r *Route, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid route %q: %v", pattern, p)
		}
	}()
	mux := chi.NewRouter()
	mux.Handle(pattern, http.NotFoundHandler())
	return &Route{pattern: pattern, mux: mux}, nil
}

// Params returns the pattern's parameters for path, or nil when the path
// does not match.
func (r *Route) Params(path string) map[string]string {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return params
}

// Matcher matches requests whose path fits the pattern.
func (r *Route) Matcher() match.Matcher {
	return func(req *request.Request) bool {
		return r.mux.Match(chi.NewRouteContext(), http.MethodGet, req.Path)
	}
}

// JSONPath matches when the body is JSON and the value at expr satisfies p.
// Values are compared in their fmt %v form.
func JSONPath(expr string, p match.Predicate) match.Matcher {
	return func(req *request.Request) bool {
		var data any
		if err := json.NewDecoder(bytes.NewReader(req.Body)).Decode(&data); err != nil {
			return false
		}
		result, err := jsonpath.Get(expr, data)
		if err != nil {
			return false
		}
		return p(fmt.Sprintf("%v", result))
	}
}

// XPath matches when the body is XML and the inner text of the first node
// selected by expr satisfies p.
func XPath(expr string, p match.Predicate) match.Matcher {
	return func(req *request.Request) bool {
		doc, err := xmlquery.Parse(bytes.NewReader(req.Body))
		if err != nil {
			return false
		}
		node, err := xmlquery.Query(doc, expr)
		if err != nil || node == nil {
			return false
		}
		return p(node.InnerText())
	}
}

// CompileExpression compiles a boolean Expr expression over the request.
// The environment exposes method, path, headers, query (last value wins),
// body as a string, and the functions header(name) and queryParam(name).
func CompileExpression(source string) (match.Matcher, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv(&request.Request{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", source, err)
	}
	return func(req *request.Request) bool {
		out, err := expr.Run(program, exprEnv(req))
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, nil
}

func exprEnv(req *request.Request) map[string]any {
	return map[string]any{
		"method":     req.Method,
		"path":       req.Path,
		"headers":    req.Headers.Map(),
		"query":      req.Query.Map(),
		"body":       string(req.Body),
		"header":     func(name string) string { return req.Headers.Get(name) },
		"queryParam": func(name string) string { return req.Query.Get(name) },
	}
}
