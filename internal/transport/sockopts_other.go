//go:build !linux

package transport

import (
	"log/slog"
	"syscall"
)

// controlFunc sets no socket options on non-Linux platforms: SO_REUSEADDR
// is already net's default behavior on most of them, and the IPv6
// public-address preference and interface binding are Linux-specific
// options this package does not emulate elsewhere. A requested
// public-address preference is logged at Info and otherwise ignored,
// the same policy enterNamespace follows.
func controlFunc(opts DialOptions) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if opts.PreferPublicAddr {
			slog.Default().Info("ignoring IPv6 public-address preference on unsupported platform")
		}
		return nil
	}
}
