//go:build !unix

package socket

import (
	"errors"
	"syscall"
)

// WSAEADDRINUSE
const wsaeaddrinuse = syscall.Errno(10048)

func listenControl(string, string, syscall.RawConn) error { return nil }

func acceptControl(syscall.RawConn) error { return nil }

func isAddrInUse(err error) bool {
	return errors.Is(err, wsaeaddrinuse)
}

func isFamilyUnavailable(error) bool { return false }
