package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/trace"
	"github.com/sophialabs/stubhttp/internal/infrastructure/inbound/dispatch"
	"github.com/sophialabs/stubhttp/internal/infrastructure/inbound/socket"
	"github.com/sophialabs/stubhttp/internal/infrastructure/outbound/logging"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
	"github.com/sophialabs/stubhttp/internal/infrastructure/wiring"
)

var (
	// ErrAlreadyRunning is returned by Start on a running server.
	ErrAlreadyRunning = errors.New("server is already running")
	// ErrNoAvailablePort is returned by Start when every candidate port is taken.
	ErrNoAvailablePort = errors.New("no available port")
)

// App is the thin lifecycle manager that delegates dependency construction to wiring.Container.
type App struct {
	cfg       Config
	container *wiring.Container

	mu     sync.Mutex
	handle *dispatch.Handle
}

// New constructs the application by creating a logger and wiring
// infrastructure components via the container. Nothing is bound until Start.
func New(cfg Config) (*App, error) {
	logger := logging.Build(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})

	container, err := wiring.New(wiring.Params{
		Logger:         logger,
		Clock:          cfg.Clock,
		RateLimiterTTL: cfg.RateLimiterTTL,
		KeepAlive:      cfg.KeepAlive,
		DefaultEngine:  cfg.DefaultEngine,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wire infrastructure: %w", err)
	}

	return &App{cfg: cfg, container: container}, nil
}

// Start binds the first port in ports that is not in use, or the configured
// preferred ports when none are given, and starts serving. Port 0 picks an
// ephemeral port. A bind error other than address-in-use stops the search.
func (a *App) Start(ports ...int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle != nil {
		return ErrAlreadyRunning
	}
	if len(ports) == 0 {
		ports = slices.Clone(a.cfg.PreferredPorts)
	}

	logger := a.container.Logger()
	var errs []error
	for _, port := range ports {
		l, err := socket.Listen(port)
		if err == nil {
			a.handle = a.container.Dispatcher().Serve(l)
			logger.Info("server started", "port", l.Port(), "addrs", l.Addrs())
			return nil
		}
		if !errors.Is(err, socket.ErrAddressInUse) {
			return fmt.Errorf("failed to start on port %d: %w", port, err)
		}
		logger.Debug("port in use, trying next", "port", port)
		errs = append(errs, fmt.Errorf("port %d: %w", port, err))
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: no candidate ports", ErrNoAvailablePort)
	}
	return fmt.Errorf("%w: %w", ErrNoAvailablePort, errors.Join(errs...))
}

// Stop force-closes every connection and the listener and returns once the
// port is free. It is a no-op when the server is not running.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle == nil {
		return
	}
	port := a.handle.Port()
	if err := a.handle.Stop(); err != nil {
		a.container.Logger().Warn("server stopped with error", "port", port, "error", err)
	}
	a.handle = nil
	a.container.Logger().Info("server stopped", "port", port)
}

// IsRunning reports whether the server is accepting connections.
func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle != nil
}

// Port returns the bound port, or 0 when not running.
func (a *App) Port() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle == nil {
		return 0
	}
	return a.handle.Port()
}

// BaseURL returns "http://localhost:{port}", or "" when not running.
func (a *App) BaseURL() string {
	if port := a.Port(); port != 0 {
		return fmt.Sprintf("http://localhost:%d", port)
	}
	return ""
}

// Close stops the server and releases background resources.
func (a *App) Close() {
	a.Stop()
	a.container.Close()
}

// LoadMocks registers every fixture found under dir and returns how many
// were registered.
func (a *App) LoadMocks(ctx context.Context, dir string) (int, error) {
	loader, err := a.container.NewLoader(dir)
	if err != nil {
		return 0, err
	}
	res, err := loader.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return res.Registered, nil
}

// Engine returns the mock engine.
func (a *App) Engine() *mock.Engine {
	return a.container.Engine()
}

// Log returns the request log.
func (a *App) Log() *trace.Log {
	return a.container.Log()
}

// Logger returns the application logger.
func (a *App) Logger() ports.Logger {
	return a.container.Logger()
}

// Reset clears the request log, every mock and every rate limit bucket, and
// restores the identity response modifier. Observers are kept.
func (a *App) Reset() {
	a.container.Engine().Reset()
	a.container.RateLimiterStore().Reset()
}
