// Package config manages goradius configuration using koanf/v2.
//
// Supports YAML files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete goradius configuration.
type Config struct {
	Metrics MetricsConfig  `koanf:"metrics"`
	Log     LogConfig      `koanf:"log"`
	Client  ClientConfig   `koanf:"client"`
	Servers []ServerConfig `koanf:"servers"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9110").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// ClientConfig holds the default transaction parameters spec.md Section
// 6 names as caller-controlled: the network namespace to dial from, the
// NAS identity advertised in every request, and whether to prefer a
// public IPv6 source address.
type ClientConfig struct {
	// Namespace is a Linux network namespace path to switch into before
	// opening each transaction's socket (empty: current namespace).
	Namespace string `koanf:"namespace"`

	// NASIdentifier is the NAS-Identifier attribute value injected into
	// every request that does not already carry one.
	NASIdentifier string `koanf:"nas_identifier"`

	// NASIPAddress is the NAS-IP-Address attribute value injected into
	// every request, parsed as an IPv4 address.
	NASIPAddress string `koanf:"nas_ip_address"`

	// UsePublicAddr requests IPV6_PREFER_SRC_PUBLIC on Linux sockets.
	UsePublicAddr bool `koanf:"use_public_addr"`

	// TimeoutSeconds is the per-attempt timeout before retransmitting.
	TimeoutSeconds float64 `koanf:"timeout_seconds"`

	// Retries is the number of retransmissions after the first send.
	Retries int `koanf:"retries"`
}

// ServerConfig describes one configured RADIUS server: its address,
// shared secret(s), and which exchange(s) it answers.
type ServerConfig struct {
	// Name identifies this server to radius.ServerTable lookups.
	Name string `koanf:"name"`

	// AuthAddr is the authentication server's "host:port" address
	// (default port 1812 when omitted).
	AuthAddr string `koanf:"auth_addr"`

	// AcctAddr is the accounting server's "host:port" address (default
	// port 1813 when omitted). Empty disables accounting for this server.
	AcctAddr string `koanf:"acct_addr"`

	// Secret is the shared secret for the authentication exchange.
	Secret string `koanf:"secret"`

	// AcctSecret is the shared secret for the accounting exchange.
	// Empty reuses Secret.
	AcctSecret string `koanf:"acct_secret"`
}

// AuthAddrPort parses AuthAddr, defaulting the port to 1812 if AuthAddr
// carries no port.
func (sc ServerConfig) AuthAddrPort() (netip.AddrPort, error) {
	return parseAddrPort(sc.AuthAddr, 1812)
}

// AcctAddrPort parses AcctAddr, defaulting the port to 1813 if AcctAddr
// carries no port.
func (sc ServerConfig) AcctAddrPort() (netip.AddrPort, error) {
	return parseAddrPort(sc.AcctAddr, 1813)
}

func parseAddrPort(s string, defaultPort uint16) (netip.AddrPort, error) {
	if s == "" {
		return netip.AddrPort{}, fmt.Errorf("server address: %w", ErrInvalidServerAddr)
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("parse server address %q: %w", s, err)
	}
	return netip.AddrPortFrom(addr, defaultPort), nil
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Metrics: MetricsConfig{
			Addr: ":9110",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			TimeoutSeconds: 3,
			Retries:        3,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for goradius configuration.
// Variables are named GORADIUS_<section>_<key>, e.g., GORADIUS_METRICS_ADDR.
const envPrefix = "GORADIUS_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GORADIUS_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GORADIUS_METRICS_ADDR          -> metrics.addr
//	GORADIUS_METRICS_PATH          -> metrics.path
//	GORADIUS_LOG_LEVEL             -> log.level
//	GORADIUS_LOG_FORMAT            -> log.format
//	GORADIUS_CLIENT_NAS_IDENTIFIER -> client.nas_identifier
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults first.
	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	// Load YAML file on top of defaults.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	// Load environment variable overrides on top of YAML.
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GORADIUS_CLIENT_NAS_IDENTIFIER -> client.nas_identifier.
// Strips the GORADIUS_ prefix, lowercases, and replaces the first _ (the
// section separator) with .; later underscores stay part of the key.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"metrics.addr":           defaults.Metrics.Addr,
		"metrics.path":           defaults.Metrics.Path,
		"log.level":              defaults.Log.Level,
		"log.format":             defaults.Log.Format,
		"client.timeout_seconds": defaults.Client.TimeoutSeconds,
		"client.retries":         defaults.Client.Retries,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrInvalidTimeout indicates the client timeout is non-positive.
	ErrInvalidTimeout = errors.New("client.timeout_seconds must be > 0")

	// ErrInvalidRetries indicates the client retry count is negative.
	ErrInvalidRetries = errors.New("client.retries must be >= 0")

	// ErrEmptyServerName indicates a server entry has no name.
	ErrEmptyServerName = errors.New("server name must not be empty")

	// ErrInvalidServerAddr indicates a server entry has no address for
	// the exchange being validated.
	ErrInvalidServerAddr = errors.New("server address is invalid or empty")

	// ErrEmptySecret indicates a server entry has no shared secret.
	ErrEmptySecret = errors.New("server secret must not be empty")

	// ErrDuplicateServerName indicates two server entries share a name.
	ErrDuplicateServerName = errors.New("duplicate server name")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Client.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	if cfg.Client.Retries < 0 {
		return ErrInvalidRetries
	}

	if err := validateServers(cfg.Servers); err != nil {
		return err
	}

	return nil
}

// validateServers checks each declarative server entry for correctness.
func validateServers(servers []ServerConfig) error {
	seen := make(map[string]struct{}, len(servers))

	for i, sc := range servers {
		if sc.Name == "" {
			return fmt.Errorf("servers[%d]: %w", i, ErrEmptyServerName)
		}
		if _, dup := seen[sc.Name]; dup {
			return fmt.Errorf("servers[%d] name %q: %w", i, sc.Name, ErrDuplicateServerName)
		}
		seen[sc.Name] = struct{}{}

		if _, err := sc.AuthAddrPort(); err != nil {
			return fmt.Errorf("servers[%d] %q: %w", i, sc.Name, err)
		}
		if sc.Secret == "" {
			return fmt.Errorf("servers[%d] %q: %w", i, sc.Name, ErrEmptySecret)
		}
		if sc.AcctAddr != "" {
			if _, err := sc.AcctAddrPort(); err != nil {
				return fmt.Errorf("servers[%d] %q: %w", i, sc.Name, err)
			}
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
