//go:build unix

package server

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl enables SO_REUSEADDR on the listening socket before
// bind so a restarted server can rebind its port without waiting out
// TIME_WAIT.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}

	return sockErr
}
