package stubhttp

import (
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/match"
	"github.com/sophialabs/stubhttp/internal/domain/mock"
)

// MockOption customises a mock registered with MockResponse or
// MockJSONResponse.
type MockOption func(*mockOptions)

type mockOptions struct {
	name      string
	endpoint  string
	matcher   Matcher
	onlyOnce  bool
	delay     time.Duration
	rateLimit *mock.RateLimit
}

// Endpoint restricts the mock to "METHOD path" (or every path for "METHOD").
// It takes precedence over Matching.
func Endpoint(endpoint string) MockOption {
	return func(o *mockOptions) { o.endpoint = endpoint }
}

// Matching restricts the mock to requests m accepts.
func Matching(m Matcher) MockOption {
	return func(o *mockOptions) { o.matcher = m }
}

// OnlyOnce removes the mock after it has been served once.
func OnlyOnce() MockOption {
	return func(o *mockOptions) { o.onlyOnce = true }
}

// Delay holds the response back for d.
func Delay(d time.Duration) MockOption {
	return func(o *mockOptions) { o.delay = d }
}

// RateLimit answers 429 once the mock's token bucket is empty.
func RateLimit(rate float64, burst int) MockOption {
	return func(o *mockOptions) { o.rateLimit = &mock.RateLimit{Rate: rate, Burst: burst} }
}

// Named sets the name reported in traces. It also keys the rate limit bucket.
func Named(name string) MockOption {
	return func(o *mockOptions) { o.name = name }
}

func (s *Server) config(resp Response, opts []MockOption) mock.Config {
	var o mockOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := mock.Config{
		Name:      o.name,
		Response:  resp,
		Matcher:   o.matcher,
		OnlyOnce:  o.onlyOnce,
		Delay:     o.delay,
		RateLimit: o.rateLimit,
	}
	if o.endpoint != "" {
		if o.matcher != nil {
			s.app.Logger().Warn("explicit matcher ignored, endpoint given", "endpoint", o.endpoint)
		}
		cfg.Matcher = match.Endpoint(o.endpoint)
		if cfg.Name == "" {
			cfg.Name = o.endpoint
		}
	}
	return cfg
}
