//go:build !linux && !darwin && !freebsd

package ssh

import "syscall"

// socketControl is a no-op on platforms without SO_REUSEPORT.
func socketControl(reuseAddr, reusePort bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
