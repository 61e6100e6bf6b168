//go:build !linux

package transport

import "log/slog"

// enterNamespace is a no-op on non-Linux platforms; network namespaces
// are a Linux-only concept. A requested namespace is logged and
// otherwise ignored rather than treated as a fatal error, per spec.md
// Section 9's policy for platform options absent on the build target.
func enterNamespace(path string) (func(), error) {
	if path != "" {
		slog.Default().Info("ignoring namespace option on unsupported platform", slog.String("namespace", path))
	}
	return func() {}, nil
}
