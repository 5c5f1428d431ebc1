// Package dispatch serves parsed requests from accepted client connections.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/infrastructure/inbound/socket"
	"github.com/sophialabs/stubhttp/internal/infrastructure/inbound/wire"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

// Responder produces the response for a parsed request. The channel
// receives once the response is ready; a delayed response may never arrive
// if ctx is cancelled first.
type Responder interface {
	Execute(ctx context.Context, req *request.Request) <-chan mock.Response
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req *request.Request) <-chan mock.Response

func (f ResponderFunc) Execute(ctx context.Context, req *request.Request) <-chan mock.Response {
	return f(ctx, req)
}

const maxAcceptBackoff = time.Second

// Dispatcher serves connections from a listener.
type Dispatcher struct {
	responder Responder
	logger    ports.Logger
	keepAlive bool
}

// New creates a dispatcher. With keepAlive false every connection is closed
// after one response.
func New(responder Responder, logger ports.Logger, keepAlive bool) *Dispatcher {
	return &Dispatcher{responder: responder, logger: logger, keepAlive: keepAlive}
}

// Handle is a running server. It is single use: once stopped, serve again
// with a new listener.
type Handle struct {
	d      *Dispatcher
	l      *socket.Listener
	ctx    context.Context
	cancel context.CancelFunc

	running atomic.Bool
	mu      sync.Mutex
	conns   map[*socket.Conn]struct{}

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// Serve starts accepting connections from l in the background. The handle
// owns l from now on.
func (d *Dispatcher) Serve(l *socket.Listener) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		d:      d,
		l:      l,
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[*socket.Conn]struct{}),
	}
	h.running.Store(true)

	h.wg.Add(1)
	go h.acceptLoop()
	return h
}

// Port returns the listening port.
func (h *Handle) Port() int {
	return h.l.Port()
}

// Running reports whether Stop has not been called yet.
func (h *Handle) Running() bool {
	return h.running.Load()
}

// Stop force-closes every live connection, including ones waiting on a
// delayed response, and closes the listener. It returns once all connection
// goroutines have exited and the port is free. Later calls return the first
// result.
func (h *Handle) Stop() error {
	h.stopOnce.Do(func() {
		h.running.Store(false)
		h.cancel()

		h.mu.Lock()
		live := make([]*socket.Conn, 0, len(h.conns))
		for c := range h.conns {
			live = append(live, c)
		}
		h.mu.Unlock()

		for _, c := range live {
			h.release(c)
		}

		if err := h.l.Close(); err != nil {
			h.stopErr = fmt.Errorf("failed to close listener: %w", err)
		}
		h.wg.Wait()
	})
	return h.stopErr
}

func (h *Handle) acceptLoop() {
	defer h.wg.Done()

	var backoff time.Duration
	for {
		c, err := h.l.Accept()
		if err != nil {
			if errors.Is(err, socket.ErrListenerClosed) || !h.running.Load() {
				return
			}
			backoff = min(max(2*backoff, 5*time.Millisecond), maxAcceptBackoff)
			h.d.logger.Warn("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-h.ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		if !h.track(c) {
			h.release(c)
			return
		}
		h.wg.Add(1)
		go h.serveConn(c)
	}
}

func (h *Handle) track(c *socket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running.Load() {
		return false
	}
	h.conns[c] = struct{}{}
	return true
}

func (h *Handle) untrack(c *socket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.release(c)
}

func (h *Handle) release(c *socket.Conn) {
	if err := c.Release(); err != nil && !errors.Is(err, socket.ErrReleased) {
		h.d.logger.Debug("release failed", "remote", c.RemoteAddr(), "error", err)
	}
}

func (h *Handle) serveConn(c *socket.Conn) {
	defer h.wg.Done()
	defer h.untrack(c)
	defer func() {
		if r := recover(); r != nil {
			h.d.logger.Error("connection handler panicked", "remote", c.RemoteAddr(), "panic", r)
		}
	}()

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	for served := 0; ; served++ {
		req, err := wire.ReadRequest(c)
		if err != nil {
			switch {
			case errors.Is(err, socket.ErrLineTooLong):
				h.d.logger.Warn("dropping connection, request line too long",
					"remote", c.RemoteAddr(), "limit", socket.MaxLineLength)
			// A kept-alive client closing between requests is routine.
			case served == 0 || !errors.Is(err, socket.ErrPeerClosed):
				h.d.logger.Debug("failed to read request", "remote", c.RemoteAddr(), "error", err)
			}
			return
		}
		req.RemoteAddr = c.RemoteAddr()

		var resp mock.Response
		select {
		case resp = <-h.d.responder.Execute(ctx, req):
		case <-ctx.Done():
			return
		}
		if !h.running.Load() {
			return
		}

		keepAlive := h.d.keepAlive && wire.KeepAliveRequested(req)
		alive, err := wire.WriteResponse(c, toWire(resp), keepAlive)
		if err != nil {
			h.d.logger.Debug("failed to write response", "remote", c.RemoteAddr(), "endpoint", req.Endpoint(), "error", err)
			return
		}
		if !alive {
			return
		}
	}
}

func toWire(resp mock.Response) wire.Response {
	out := wire.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Length:     resp.Length(),
	}
	if resp.Data != nil {
		out.Body = wire.BytesBody(resp.Data)
	}
	return out
}
