package wiring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/trace"
	"github.com/sophialabs/stubhttp/internal/infrastructure/inbound/dispatch"
	"github.com/sophialabs/stubhttp/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/stubhttp/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/stubhttp/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/stubhttp/internal/infrastructure/outbound/template"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
	"github.com/sophialabs/stubhttp/internal/infrastructure/services"
	"github.com/sophialabs/stubhttp/internal/infrastructure/usecases"
)

// Params holds the subset of configuration needed to construct infrastructure components.
type Params struct {
	Logger         ports.Logger
	Clock          ports.Clock // nil = system clock
	RateLimiterTTL time.Duration
	KeepAlive      bool
	DefaultEngine  string // "" = static, "expr", "jinja2"
}

// Container owns the construction and lifecycle of all infrastructure components.
type Container struct {
	logger           ports.Logger
	clock            ports.Clock
	log              *trace.Log
	engine           *mock.Engine
	rateLimiterStore *ratelimit.TokenBucketStore
	registry         *template.Registry
	handleUC         *usecases.HandleRequestUseCase
	dispatcher       *dispatch.Dispatcher
	defaultEngine    string
	closeOnce        sync.Once
}

// New constructs all infrastructure components.
func New(p Params) (*Container, error) {
	registry := template.NewRegistry()
	if p.DefaultEngine != "" && !registry.Supports(p.DefaultEngine) {
		return nil, fmt.Errorf("unknown default template engine: %q", p.DefaultEngine)
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}

	log := trace.NewLog()
	engine := mock.NewEngine(log)
	rateLimiterStore := ratelimit.NewTokenBucketStore(p.RateLimiterTTL)
	handleUC := usecases.NewHandleRequestUseCase(engine, clk, rateLimiterStore, p.Logger)

	return &Container{
		logger:           p.Logger,
		clock:            clk,
		log:              log,
		engine:           engine,
		rateLimiterStore: rateLimiterStore,
		registry:         registry,
		handleUC:         handleUC,
		dispatcher:       dispatch.New(handleUC, p.Logger, p.KeepAlive),
		defaultEngine:    p.DefaultEngine,
	}, nil
}

// NewLoader builds a fixture loader for the directory tree rooted at dir.
func (c *Container) NewLoader(dir string) (*usecases.LoadScenariosUseCase, error) {
	repo, err := filesystem.NewYAMLRepository(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	compiler, err := services.NewCompiler(repo.Root(), c.registry, c.defaultEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler: %w", err)
	}
	return usecases.NewLoadScenariosUseCase(repo, compiler, c.engine, c.logger), nil
}

// Close releases resources held by the container. It is idempotent.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		c.rateLimiterStore.Reset()
	})
}

// Logger returns the logger passed at construction time.
func (c *Container) Logger() ports.Logger {
	return c.logger
}

// Clock returns the clock used for timestamps and delays.
func (c *Container) Clock() ports.Clock {
	return c.clock
}

// Engine returns the mock engine.
func (c *Container) Engine() *mock.Engine {
	return c.engine
}

// Log returns the request log.
func (c *Container) Log() *trace.Log {
	return c.log
}

// Dispatcher returns the connection dispatcher.
func (c *Container) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// HandleRequestUseCase returns the use case that resolves requests.
func (c *Container) HandleRequestUseCase() *usecases.HandleRequestUseCase {
	return c.handleUC
}

// RateLimiterStore returns the token bucket store for rate limiting.
func (c *Container) RateLimiterStore() *ratelimit.TokenBucketStore {
	return c.rateLimiterStore
}
