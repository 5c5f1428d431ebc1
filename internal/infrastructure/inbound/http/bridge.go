// Package http lets a net/http handler answer mock requests.
package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

// Bridge adapts an http.Handler to an ad-hoc mock handler. A chi router
// only answers requests it has a route for; other handlers answer everything.
type Bridge struct {
	handler http.Handler
	routes  chi.Routes
	logger  ports.Logger
}

// NewBridge wraps h. Panics inside h become 500 responses.
func NewBridge(h http.Handler, logger ports.Logger) *Bridge {
	b := &Bridge{handler: middleware.Recoverer(h), logger: logger}
	if routes, ok := h.(chi.Routes); ok {
		b.routes = routes
	}
	return b
}

// Handle serves req through the wrapped handler, or returns nil when a
// router has no route for it.
func (b *Bridge) Handle(req *request.Request) *mock.Response {
	if b.routes != nil && !b.routes.Match(chi.NewRouteContext(), req.Method, req.Path) {
		return nil
	}

	hr, err := toHTTPRequest(req)
	if err != nil {
		b.logger.Warn("request not representable for handler", "endpoint", req.Endpoint(), "error", err)
		return nil
	}

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, hr)
	return fromRecorder(rec)
}

func toHTTPRequest(req *request.Request) (*http.Request, error) {
	target := "http://localhost" + req.Path
	if len(req.Query) > 0 {
		target += "?" + encodeQuery(req.Query)
	}

	hr, err := http.NewRequestWithContext(context.Background(), req.Method, target, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for _, p := range req.Headers {
		hr.Header.Add(p.Name, p.Value)
	}
	if host := req.Headers.Get("Host"); host != "" {
		hr.Host = host
	}
	if major, minor, ok := http.ParseHTTPVersion(req.Proto); ok {
		hr.Proto, hr.ProtoMajor, hr.ProtoMinor = req.Proto, major, minor
	}
	hr.RemoteAddr = req.RemoteAddr
	hr.RequestURI = hr.URL.RequestURI()
	return hr, nil
}

func encodeQuery(q request.Query) string {
	parts := make([]string, len(q))
	for i, p := range q {
		parts[i] = url.QueryEscape(p.Name) + "=" + url.QueryEscape(p.Value)
	}
	return strings.Join(parts, "&")
}

func fromRecorder(rec *httptest.ResponseRecorder) *mock.Response {
	res := rec.Result()
	defer res.Body.Close()

	names := make([]string, 0, len(res.Header))
	for name := range res.Header {
		names = append(names, name)
	}
	slices.Sort(names)

	var headers request.Headers
	for _, name := range names {
		for _, v := range res.Header[name] {
			headers = append(headers, request.Pair{Name: name, Value: v})
		}
	}

	body := rec.Body.Bytes()
	if body == nil {
		body = []byte{}
	}
	return &mock.Response{StatusCode: res.StatusCode, Data: body, Headers: headers}
}
