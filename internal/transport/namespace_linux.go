//go:build linux

package transport

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// enterNamespace locks the calling goroutine to its OS thread and
// switches that thread into the named network namespace for the
// duration of socket creation, restoring the original namespace when
// the returned func runs. Empty path is a no-op. Grounded on the same
// setns(2)-via-golang.org/x/sys/unix pattern gobfd's raw-socket path
// uses for namespace-scoped listeners.
func enterNamespace(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	runtime.LockOSThread()

	orig, err := os.Open("/proc/self/ns/net")
	if err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("open current namespace: %w", err)
	}

	target, err := os.Open(path)
	if err != nil {
		orig.Close()
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("open target namespace %s: %w", path, err)
	}
	defer target.Close()

	if err := unix.Setns(int(target.Fd()), unix.CLONE_NEWNET); err != nil {
		orig.Close()
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("setns %s: %w", path, err)
	}

	return func() {
		defer runtime.UnlockOSThread()
		defer orig.Close()
		_ = unix.Setns(int(orig.Fd()), unix.CLONE_NEWNET)
	}, nil
}
