package stubhttp

import (
	"context"
	"net/http"

	"github.com/sophialabs/stubhttp/internal/app"
	"github.com/sophialabs/stubhttp/internal/domain/match"
	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/domain/trace"
	inboundhttp "github.com/sophialabs/stubhttp/internal/infrastructure/inbound/http"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

type (
	// Request is a request as received by the server.
	Request = request.Request
	// Headers is an ordered header list with case-insensitive lookups.
	Headers = request.Headers
	// Query is an ordered query parameter list.
	Query = request.Query
	// Pair is one header or query entry.
	Pair = request.Pair
	// Response is a canned response. A nil Data means no body at all.
	Response = mock.Response
	// Matcher decides whether a mock applies to a request.
	Matcher = match.Matcher
	// Predicate tests a single value.
	Predicate = match.Predicate
	// TraceEntry is one logged request with its resolution details.
	TraceEntry = trace.Entry
	// Source names the mechanism that produced a response.
	Source = trace.Source
	// Config configures a Server.
	Config = app.Config
	// Clock supplies time and timers to the server.
	Clock = ports.Clock
)

// Resolution sources reported in TraceEntry.Source.
const (
	SourceAdHoc   = trace.SourceAdHoc
	SourceMatcher = trace.SourceMatcher
	SourceDefault = trace.SourceDefault
	SourceBuiltIn = trace.SourceBuiltIn
)

var (
	// ErrAlreadyRunning is returned by Start on a running server.
	ErrAlreadyRunning = app.ErrAlreadyRunning
	// ErrNoAvailablePort is returned by Start when every candidate port is
	// in use. It wraps the per-port errors.
	ErrNoAvailablePort = app.ErrNoAvailablePort
)

// DefaultConfig returns the default configuration: preferred ports 8080,
// 8081 and 8082, logging off and one request per connection.
func DefaultConfig() Config {
	return app.DefaultConfig()
}

// Server is an embeddable mock HTTP server. All methods are safe for
// concurrent use.
//
// A request line or header line longer than 1 MiB makes the server drop
// that connection without a response and log a warning. Bodies have no
// such limit.
type Server struct {
	app *app.App
}

// New creates a stopped server.
func New(cfg Config) (*Server, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{app: a}, nil
}

// Start binds the first available port among ports, or among the configured
// preferred ports when none are given, and starts serving on both loopback
// addresses. Port 0 picks an ephemeral port.
func (s *Server) Start(ports ...int) error {
	return s.app.Start(ports...)
}

// Stop closes every connection, including ones waiting on a delayed
// response, and returns once the port can be bound again. It is a no-op on
// a stopped server.
func (s *Server) Stop() {
	s.app.Stop()
}

// Close stops the server and releases its background resources.
func (s *Server) Close() {
	s.app.Close()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	return s.app.IsRunning()
}

// Port returns the bound port, or 0 when stopped.
func (s *Server) Port() int {
	return s.app.Port()
}

// BaseURL returns "http://localhost:{port}", or "" when stopped.
func (s *Server) BaseURL() string {
	return s.app.BaseURL()
}

// LoadMocks registers the YAML fixtures found under dir and returns how
// many were registered.
func (s *Server) LoadMocks(ctx context.Context, dir string) (int, error) {
	return s.app.LoadMocks(ctx, dir)
}

// MockResponse registers resp. Without Endpoint or Matching the mock is
// unconditional.
func (s *Server) MockResponse(resp Response, opts ...MockOption) {
	s.app.Engine().Add(s.config(resp, opts))
}

// MockJSONResponse registers a JSON response. Strings and byte slices are
// sent verbatim and a nil value sends no body; other values are marshalled.
// A zero status means 200.
func (s *Server) MockJSONResponse(status int, v any, headers Headers, opts ...MockOption) error {
	resp, err := mock.JSON(status, v, headers)
	if err != nil {
		return err
	}
	s.MockResponse(resp, opts...)
	return nil
}

// MockAdHocResponse registers a handler consulted before every other mock.
// Returning nil passes the request on. Handlers run while the server's lock
// is held and must not call back into the Server.
func (s *Server) MockAdHocResponse(h func(*Request) *Response) {
	s.app.Engine().AddAdHoc(h)
}

// MockHandler serves requests through h as an ad-hoc handler. When h is a
// chi router, requests it has no route for fall through to the other mocks.
func (s *Server) MockHandler(h http.Handler) {
	s.app.Engine().AddAdHoc(inboundhttp.NewBridge(h, s.app.Logger()).Handle)
}

// ClearMockResponses drops every ad-hoc handler and mock.
func (s *Server) ClearMockResponses() {
	s.app.Engine().ClearResponses()
}

// ClearAllMockingState clears the request log, every mock and every rate
// limit bucket, and restores the identity response modifier. Observers stay.
func (s *Server) ClearAllMockingState() {
	s.app.Reset()
}

// SetCommonResponseModifier sets a transform applied to every response
// before it is sent. nil restores the identity.
func (s *Server) SetCommonResponseModifier(m func(Response) Response) {
	s.app.Engine().SetModifier(m)
}

// AddRequestObserver registers fn to be called with every request, in
// arrival order, as it is logged.
func (s *Server) AddRequestObserver(fn func(*Request)) {
	s.app.Engine().AddObserver(fn)
}

// ClearRequestObservers drops every observer.
func (s *Server) ClearRequestObservers() {
	s.app.Engine().ClearObservers()
}

// LatestRequests returns the logged requests in arrival order.
func (s *Server) LatestRequests() []*Request {
	return s.app.Log().Requests()
}

// LastRequest returns the most recent request, or nil.
func (s *Server) LastRequest() *Request {
	return s.app.Log().LastRequest()
}

// LatestRequestEndpoints returns "METHOD path" for every logged request.
func (s *Server) LatestRequestEndpoints() []string {
	reqs := s.app.Log().Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Endpoint()
	}
	return out
}

// ClearLatestRequests empties the request log.
func (s *Server) ClearLatestRequests() {
	s.app.Engine().ClearLog()
}

// Trace returns the last n log entries with their resolution details.
func (s *Server) Trace(n int) []TraceEntry {
	return s.app.Log().Last(n)
}
