//go:build linux || darwin || freebsd

package ssh

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// socketControl returns a ListenConfig control function that sets
// SO_REUSEADDR and SO_REUSEPORT before bind. Either option can be
// disabled through the config for platforms or deployments where the
// shared-port behavior is unwanted.
func socketControl(reuseAddr, reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reuseAddr && !reusePort {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		var optErr error
		err := c.Control(func(fd uintptr) {
			if reuseAddr {
				optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if optErr != nil {
					return
				}
			}
			if reusePort {
				optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}
		})
		if err != nil {
			return err
		}
		return optErr
	}
}
