//go:build linux

package transport

import (
	"log/slog"
	"syscall"

	"golang.org/x/sys/unix"
)

// controlFunc returns a net.ListenConfig.Control callback that applies
// SO_REUSEADDR, the IPv6 public-source-address preference, and
// SO_BINDTODEVICE per opts. Grounded on internal/netio/rawsock_linux.go's
// use of golang.org/x/sys/unix for the same option set.
func controlFunc(opts DialOptions) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var ctrlErr error
		err := c.Control(func(fd uintptr) {
			if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
				ctrlErr = err
				return
			}

			if opts.PreferPublicAddr && (network == "udp6" || network == "udp") {
				if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_ADDR_PREFERENCES, unix.IPV6_PREFER_SRC_PUBLIC); err != nil {
					slog.Default().Info("could not set IPV6_PREFER_SRC_PUBLIC", slog.String("error", err.Error()))
				}
			}

			if opts.BindInterface != "" {
				if err := unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, opts.BindInterface); err != nil {
					ctrlErr = err
				}
			}
		})
		if err != nil {
			return err
		}
		return ctrlErr
	}
}
