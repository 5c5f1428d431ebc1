package usecases

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/domain/trace"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

// HandleRequestResult is the outcome of resolving a mock request.
type HandleRequestResult struct {
	Response    mock.Response
	Source      trace.Source
	Name        string
	RateLimited bool
	// Delay is how long to hold the response back.
	Delay time.Duration
}

// HandleRequestUseCase turns parsed requests into responses.
type HandleRequestUseCase struct {
	engine      *mock.Engine
	clock       ports.Clock
	rateLimiter ports.RateLimiter
	logger      ports.Logger
}

// NewHandleRequestUseCase creates a new use case.
func NewHandleRequestUseCase(
	engine *mock.Engine,
	clock ports.Clock,
	rateLimiter ports.RateLimiter,
	logger ports.Logger,
) *HandleRequestUseCase {
	return &HandleRequestUseCase{
		engine:      engine,
		clock:       clock,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Resolve picks the response for req without waiting for any delay.
func (uc *HandleRequestUseCase) Resolve(ctx context.Context, req *request.Request) HandleRequestResult {
	now := uc.clock.Now()
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = now
	}

	res := uc.engine.Resolve(req, now)
	result := HandleRequestResult{Response: res.Response, Source: res.Source, Name: res.Name}

	if cfg := res.Config; cfg != nil {
		switch {
		case cfg.RateLimit != nil && !uc.allow(ctx, cfg):
			result.RateLimited = true
			result.Response = tooManyRequests()
		case cfg.Renderer != nil:
			result.Response = uc.render(cfg, req, now)
		}
		result.Delay = delayFor(cfg)
	}

	result.Response = res.Modifier(result.Response)

	uc.logger.Debug("request resolved",
		"endpoint", req.Endpoint(),
		"source", string(res.Source),
		"name", res.Name,
		"status", result.Response.StatusCode,
	)
	return result
}

// Execute resolves req and delivers the response on the returned channel,
// immediately or once the configured delay has passed on the clock.
// Cancelling ctx abandons a pending delay; the channel then never receives.
// Once a delayed response is delivered its hook on ctx is removed, so a
// long-lived ctx does not accumulate one registration per request.
func (uc *HandleRequestUseCase) Execute(ctx context.Context, req *request.Request) <-chan mock.Response {
	out := make(chan mock.Response, 1)
	result := uc.Resolve(ctx, req)

	if result.Delay <= 0 {
		out <- result.Response
		return out
	}

	// The timer may fire before the cancel hook is registered, so the hook's
	// stop function is handed over through a buffered channel.
	unhook := make(chan func() bool, 1)
	stop := uc.clock.AfterFunc(result.Delay, func() {
		out <- result.Response
		(<-unhook)()
	})
	unhook <- context.AfterFunc(ctx, func() {
		if stop() {
			uc.logger.Debug("delayed response cancelled", "endpoint", req.Endpoint())
		}
	})
	return out
}

func (uc *HandleRequestUseCase) allow(ctx context.Context, cfg *mock.Config) bool {
	rl := cfg.RateLimit
	key := rl.Key
	if key == "" {
		key = cfg.Name
	}
	if uc.rateLimiter.Allow(ctx, key, rl.Rate, rl.Burst) {
		return true
	}
	uc.logger.Debug("rate limited", "name", cfg.Name, "key", key)
	return false
}

func (uc *HandleRequestUseCase) render(cfg *mock.Config, req *request.Request, now time.Time) mock.Response {
	rc := mock.RenderContext{Request: req, Now: now}
	if cfg.Params != nil {
		rc.PathParams = cfg.Params(req.Path)
	}
	body, err := cfg.Renderer.Render(rc)
	if err != nil {
		uc.logger.Warn("template render failed", "name", cfg.Name, "error", err)
		return mock.Response{
			StatusCode: 500,
			Data:       []byte("template render error: " + err.Error()),
			Headers:    request.Headers{{Name: "Content-Type", Value: "text/plain; charset=utf-8"}},
		}
	}
	resp := cfg.Response
	resp.Data = body
	return resp
}

func tooManyRequests() mock.Response {
	return mock.Response{
		StatusCode: 429,
		Data:       []byte(`{"error":"rate limit exceeded"}`),
		Headers: request.Headers{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "Retry-After", Value: "1"},
		},
	}
}

func delayFor(cfg *mock.Config) time.Duration {
	d := cfg.Delay
	if cfg.Jitter > 0 {
		d += rand.N(cfg.Jitter)
	}
	return d
}
