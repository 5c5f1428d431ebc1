package mock

import (
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/match"
	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// Config is one registered canned response together with the rules that
// decide when it is served.
type Config struct {
	// Name labels the entry in traces. Generated when empty.
	Name     string
	Response Response
	// Matcher nil means the entry is an unconditional default.
	Matcher  match.Matcher
	OnlyOnce bool
	Delay    time.Duration
	Jitter   time.Duration

	RateLimit *RateLimit
	// Renderer, when set, produces the body per request instead of Response.Data.
	Renderer BodyRenderer
	// Params extracts path parameters for Renderer.
	Params func(path string) map[string]string
}

// Permanent reports whether c is an unconditional entry that is never consumed.
func (c *Config) Permanent() bool {
	return c.Matcher == nil && !c.OnlyOnce
}

// RateLimit configures a token bucket for a configuration.
type RateLimit struct {
	Rate  float64
	Burst int
	Key   string
}

// AdHocHandler computes a response for a request, or returns nil to decline.
type AdHocHandler func(*request.Request) *Response

// Modifier transforms every resolved response before it is sent.
type Modifier func(Response) Response

// Observer is notified of every received request.
type Observer func(*request.Request)

// Identity is the default Modifier.
func Identity(r Response) Response { return r }

// BodyRenderer renders a response body from the request.
type BodyRenderer interface {
	Render(ctx RenderContext) ([]byte, error)
}

// RenderContext is the data available to a BodyRenderer.
type RenderContext struct {
	Request    *request.Request
	PathParams map[string]string
	Now        time.Time
}
