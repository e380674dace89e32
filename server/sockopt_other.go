//go:build !unix

package server

import "syscall"

// reuseAddrControl is a no-op where SO_REUSEADDR tuning is unavailable.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
