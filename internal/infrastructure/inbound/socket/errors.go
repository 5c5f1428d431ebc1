package socket

import (
	"errors"
	"fmt"
	"os"
)

// Op names the socket operation that failed.
type Op string

const (
	OpCreate    Op = "create"
	OpSetOption Op = "setsockopt"
	OpBind      Op = "bind"
	OpListen    Op = "listen"
	OpAccept    Op = "accept"
	OpRead      Op = "read"
	OpWrite     Op = "write"
	OpClose     Op = "close"
)

var (
	// ErrAddressInUse marks a bind failure caused by a busy port.
	ErrAddressInUse = errors.New("address already in use")
	// ErrPeerClosed is returned when the peer closes before a read completes.
	ErrPeerClosed = errors.New("connection closed by peer")
	// ErrReleased is returned when a socket is released twice.
	ErrReleased = errors.New("socket already released")
	// ErrListenerClosed is returned by Accept after Close.
	ErrListenerClosed = errors.New("listener closed")
	// ErrLineTooLong is returned when a line exceeds the read limit.
	ErrLineTooLong = errors.New("line too long")
)

// Error is a failed socket operation. It unwraps to the underlying cause,
// which for OS failures is the syscall errno.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("socket %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classifyListenErr maps an error from net.ListenConfig.Listen onto the
// syscall that failed.
func classifyListenErr(err error) error {
	if isAddrInUse(err) {
		return &Error{Op: OpBind, Err: errors.Join(ErrAddressInUse, err)}
	}
	op := OpListen
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		switch sysErr.Syscall {
		case "socket":
			op = OpCreate
		case "setsockopt":
			op = OpSetOption
		case "bind":
			op = OpBind
		}
	}
	return &Error{Op: op, Err: err}
}
