package radius

import (
	"log/slog"
	"time"

	"github.com/radiusgo/goradius/internal/transport"
)

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithNonceSource overrides the source used for Access-Request
// authenticators. Tests substitute a deterministic source.
func WithNonceSource(src NonceSource) ClientOption {
	return func(c *Client) { c.nonceSrc = src }
}

// WithSequencer overrides the identifier allocator.
func WithSequencer(seq *Sequencer) ClientOption {
	return func(c *Client) { c.seq = seq }
}

// WithLogger overrides the *slog.Logger the orchestrator logs through.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics attaches a MetricsRecorder.
func WithMetrics(m MetricsRecorder) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithTransportHooks overrides the transport hooks (dial override,
// shared lock) used by every SendRequest call.
func WithTransportHooks(h transport.Hooks) ClientOption {
	return func(c *Client) { c.hooks = h }
}

// WithDefaultTimeout overrides the per-attempt timeout used when a
// SendRequest call supplies none.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithDefaultRetries overrides the retransmission count used when a
// SendRequest call supplies none.
func WithDefaultRetries(n int) ClientOption {
	return func(c *Client) { c.retries = n }
}

// WithNAS sets the NAS identity attributes injected into every request.
func WithNAS(nas NASIdentity) ClientOption {
	return func(c *Client) { c.nas = nas }
}

// WithDefaultDialOptions overrides the platform dial options (network
// namespace, public-address preference, bind interface) used when a
// SendRequest call supplies none of its own via WithDialOptions.
func WithDefaultDialOptions(o transport.DialOptions) ClientOption {
	return func(c *Client) { c.dialOpts = o }
}

// sendConfig holds the per-call overrides SendOption mutates.
type sendConfig struct {
	timeout  time.Duration
	retries  int
	dial     transport.Dialer
	dialOpts transport.DialOptions
}

// SendOption configures a single SendRequest call.
type SendOption func(*sendConfig)

// WithTimeout overrides the per-attempt timeout for one call.
func WithTimeout(d time.Duration) SendOption {
	return func(c *sendConfig) { c.timeout = d }
}

// WithRetries overrides the retransmission count for one call.
func WithRetries(n int) SendOption {
	return func(c *sendConfig) { c.retries = n }
}

// WithDialer overrides the transport Dialer for one call; used by tests
// to substitute an in-memory fake socket.
func WithDialer(d transport.Dialer) SendOption {
	return func(c *sendConfig) { c.dial = d }
}

// WithDialOptions overrides the platform dial options for one call.
func WithDialOptions(o transport.DialOptions) SendOption {
	return func(c *sendConfig) { c.dialOpts = o }
}
