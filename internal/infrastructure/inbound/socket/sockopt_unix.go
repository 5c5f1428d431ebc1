//go:build unix

package socket

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func listenControl(_, _ string, c syscall.RawConn) error {
	var optErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			optErr = os.NewSyscallError("setsockopt", err)
		}
	})
	if err != nil {
		return err
	}
	return optErr
}

func acceptControl(c syscall.RawConn) error {
	var optErr error
	err := c.Control(func(fd uintptr) {
		if err := setNoSigPipe(int(fd)); err != nil {
			optErr = os.NewSyscallError("setsockopt", err)
		}
	})
	if err != nil {
		return err
	}
	return optErr
}

func isAddrInUse(err error) bool {
	return errors.Is(err, unix.EADDRINUSE)
}

// isFamilyUnavailable reports errors meaning the host cannot bind the
// requested address family or address, e.g. no IPv6 loopback.
func isFamilyUnavailable(err error) bool {
	return errors.Is(err, unix.EADDRNOTAVAIL) || errors.Is(err, unix.EAFNOSUPPORT) || errors.Is(err, unix.EPROTONOSUPPORT)
}
