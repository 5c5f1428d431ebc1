package socket

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
)

// MaxLineLength bounds a single request, header or chunk-size line,
// terminator included. It is a multiple of the read buffer size so the
// limit is hit exactly, without waiting for bytes past it.
const MaxLineLength = 1 << 20

const (
	bufferSize = 4 << 10
	readChunk  = 64 << 10
)

// Conn is an accepted client connection with buffered reads.
type Conn struct {
	nc       net.Conn
	r        *bufio.Reader
	released atomic.Bool
}

// NewConn wraps an established connection.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, r: bufio.NewReaderSize(nc, bufferSize)}
}

// ReadLine reads up to and including the next LF and returns the line with
// trailing CR and LF removed. A line that reaches MaxLineLength bytes
// without an LF fails with ErrLineTooLong as soon as the limit is read.
func (c *Conn) ReadLine() (string, error) {
	var line []byte
	for {
		chunk, err := c.r.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			if len(line) > MaxLineLength {
				return "", &Error{Op: OpRead, Err: ErrLineTooLong}
			}
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(line) >= MaxLineLength {
				return "", &Error{Op: OpRead, Err: ErrLineTooLong}
			}
			continue
		}
		return "", c.readErr(err)
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

// ReadExact reads exactly n bytes. The buffer grows as data arrives, so a
// bogus length from the peer cannot force a huge allocation up front.
func (c *Conn) ReadExact(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	buf.Grow(min(n, readChunk))
	if _, err := io.CopyN(&buf, c.r, int64(n)); err != nil {
		return nil, c.readErr(err)
	}
	return buf.Bytes(), nil
}

func (c *Conn) readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Op: OpRead, Err: ErrPeerClosed}
	}
	return &Error{Op: OpRead, Err: err}
}

// Write writes all of p, looping over short writes.
func (c *Conn) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := c.nc.Write(p[written:])
		written += n
		if err != nil {
			return written, &Error{Op: OpWrite, Err: err}
		}
	}
	return written, nil
}

// WriteAll writes the whole buffer.
func (c *Conn) WriteAll(p []byte) error {
	_, err := c.Write(p)
	return err
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	if addr := c.nc.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Release half-closes and then closes the connection, unblocking any
// pending read. A second call returns ErrReleased.
func (c *Conn) Release() error {
	if !c.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	if tc, ok := c.nc.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	if err := c.nc.Close(); err != nil {
		return &Error{Op: OpClose, Err: err}
	}
	return nil
}

// Released reports whether Release has been called.
func (c *Conn) Released() bool {
	return c.released.Load()
}
