package socket

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"syscall"
)

// Listener accepts connections on the IPv4 and IPv6 loopback addresses of a
// single port.
type Listener struct {
	lns  []net.Listener
	port int

	accepted  chan acceptResult
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

type acceptResult struct {
	conn net.Conn
	err  error
}

const ephemeralAttempts = 3

// Listen binds 127.0.0.1 and ::1 on port. Port 0 picks a free port. A host
// without an IPv6 loopback gets an IPv4-only listener. A busy port yields an
// error matching ErrAddressInUse.
func Listen(port int) (*Listener, error) {
	for attempt := 1; ; attempt++ {
		l, err := listen(port)
		if err == nil {
			return l, nil
		}
		// The kernel picked an IPv4 port that is taken on ::1.
		if port == 0 && errors.Is(err, ErrAddressInUse) && attempt < ephemeralAttempts {
			continue
		}
		return nil, err
	}
}

func listen(port int) (*Listener, error) {
	lc := net.ListenConfig{Control: listenControl}
	ctx := context.Background()

	v4, err := lc.Listen(ctx, "tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return nil, classifyListenErr(err)
	}
	bound := v4.Addr().(*net.TCPAddr).Port
	lns := []net.Listener{v4}

	v6, err := lc.Listen(ctx, "tcp6", net.JoinHostPort("::1", strconv.Itoa(bound)))
	switch {
	case err == nil:
		lns = append(lns, v6)
	case isFamilyUnavailable(err):
	default:
		_ = v4.Close()
		return nil, classifyListenErr(err)
	}

	l := &Listener{
		lns:      lns,
		port:     bound,
		accepted: make(chan acceptResult),
		done:     make(chan struct{}),
	}
	for _, ln := range lns {
		l.wg.Add(1)
		go l.acceptLoop(ln)
	}
	return l, nil
}

func (l *Listener) acceptLoop(ln net.Listener) {
	defer l.wg.Done()
	for {
		c, err := ln.Accept()
		select {
		case l.accepted <- acceptResult{conn: c, err: err}:
		case <-l.done:
			if c != nil {
				_ = c.Close()
			}
			return
		}
		if errors.Is(err, net.ErrClosed) {
			return
		}
	}
}

// Accept blocks until a client connects or the listener is closed.
func (l *Listener) Accept() (*Conn, error) {
	select {
	case r := <-l.accepted:
		if r.err != nil {
			if errors.Is(r.err, net.ErrClosed) {
				return nil, ErrListenerClosed
			}
			return nil, &Error{Op: OpAccept, Err: r.err}
		}
		return accept(r.conn)
	case <-l.done:
		return nil, ErrListenerClosed
	}
}

func accept(nc net.Conn) (*Conn, error) {
	if sc, ok := nc.(syscall.Conn); ok {
		raw, err := sc.SyscallConn()
		if err == nil {
			err = acceptControl(raw)
		}
		if err != nil {
			_ = nc.Close()
			return nil, &Error{Op: OpSetOption, Err: err}
		}
	}
	return NewConn(nc), nil
}

// Port returns the bound port.
func (l *Listener) Port() int {
	return l.port
}

// Addrs returns the bound addresses.
func (l *Listener) Addrs() []net.Addr {
	out := make([]net.Addr, len(l.lns))
	for i, ln := range l.lns {
		out[i] = ln.Addr()
	}
	return out
}

// Close releases the port. It returns once every accept goroutine has
// exited, so the port can be bound again immediately. Later calls are no-ops.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		var errs []error
		for _, ln := range l.lns {
			if err := ln.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		l.wg.Wait()
		if len(errs) > 0 {
			l.closeErr = &Error{Op: OpClose, Err: errors.Join(errs...)}
		}
	})
	return l.closeErr
}
