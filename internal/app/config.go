package app

import (
	"io"
	"time"

	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

// Config holds all configurable parameters for a mock server.
type Config struct {
	// PreferredPorts are tried in order by Start when it is called without ports.
	PreferredPorts []int

	LogLevel  string // debug, info, warn, error or off
	LogFormat string // text or json
	LogOutput io.Writer

	// KeepAlive lets a connection carry more than one request when the
	// client asks for it.
	KeepAlive bool

	RateLimiterTTL time.Duration

	DefaultEngine string // "" = static, "expr", "jinja2"

	// Clock drives timestamps and response delays. nil = system clock.
	Clock ports.Clock
}

// DefaultConfig returns a Config with the standard test-friendly defaults.
func DefaultConfig() Config {
	return Config{
		PreferredPorts: []int{8080, 8081, 8082},
		LogLevel:       "off",
		LogFormat:      "text",
		RateLimiterTTL: 10 * time.Minute,
	}
}
