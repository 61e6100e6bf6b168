package radius

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/radiusgo/goradius/internal/transport"
)

// DefaultAuthPort and DefaultAcctPort are the well-known UDP ports for
// the authentication and accounting exchanges (RFC 2865 Section 2, RFC
// 2866 Section 2).
const (
	DefaultAuthPort = 1812
	DefaultAcctPort = 1813
)

// DefaultTimeout and DefaultRetries are the retry budget SendRequest
// uses when the caller supplies none, matching the conservative values
// the reference implementation defaults to.
const (
	DefaultTimeout = 3 * time.Second
	DefaultRetries = 3
)

// ManagementPollSecret is a placeholder for the reserved secret the
// reference implementation selects for Service-Type=Administrative
// requests (the MGMT_POLL_SECRET symbol referenced by sendserver.c).
// Its defining header was not available to this module; deployments
// that issue Service-Type=Administrative requests must override this
// via ServerEntry.ManagementSecret before relying on it (see
// SPEC_FULL.md Open Question decisions).
var ManagementPollSecret = NewSecret([]byte("to-be-configured-mgmt-poll-secret"))

// ServerEntry describes one RADIUS server: its address, shared secret,
// and which exchange (auth/acct) it serves.
type ServerEntry struct {
	Name             string
	Kind             Kind
	Addr             netip.AddrPort
	Secret           *Secret
	ManagementSecret *Secret
}

// ServerTable resolves a server name and exchange kind to a ServerEntry
// (spec.md Section 4.6 step 2).
type ServerTable interface {
	Lookup(name string, kind Kind) (ServerEntry, bool)
}

// MapServerTable is the simplest ServerTable: an in-memory map keyed by
// name and kind.
type MapServerTable map[serverKey]ServerEntry

type serverKey struct {
	name string
	kind Kind
}

// NewMapServerTable builds a MapServerTable from a flat list of entries.
func NewMapServerTable(entries ...ServerEntry) MapServerTable {
	t := make(MapServerTable, len(entries))
	for _, e := range entries {
		t[serverKey{e.Name, e.Kind}] = e
	}
	return t
}

// Lookup implements ServerTable.
func (t MapServerTable) Lookup(name string, kind Kind) (ServerEntry, bool) {
	e, ok := t[serverKey{name, kind}]
	return e, ok
}

// Request is the caller-built bundle passed to SendRequest: the packet
// code, the target server name, and the attributes to encode (spec.md
// Section 3 Request Bundle).
type Request struct {
	Code       Code
	ServerName string
	Attributes List

	// RequireMessageAuthenticator forces a Message-Authenticator
	// attribute onto the outgoing packet and requires one, correctly
	// digested, on the reply (RFC 3579 Section 3.2). Code
	// Access-Request always gets one regardless of this flag, matching
	// common deployment practice; set this to also require it for other
	// exchanges. Accounting packets are built without one (see
	// Code.IsAccounting); for them the flag only makes the reply
	// require one.
	RequireMessageAuthenticator bool

	// Secret, if set, overrides the server table's secret for this
	// transaction only. It ranks below the reserved management secret
	// and below a transport hook's static secret in the resolution
	// order (spec.md Section 4.6 step 3); see resolveSecret.
	Secret *Secret

	// DestPort, if non-zero, overrides the destination port from the
	// resolved ServerEntry's address (spec.md Section 4.6 step 6).
	DestPort uint16

	// SequenceNumber, if non-nil, overrides the Sequencer-allocated
	// packet identifier for this transaction.
	SequenceNumber *uint8
}

// TransactionContext records the per-attempt bookkeeping of a completed
// SendRequest call: the identifier and authenticator actually placed on
// the wire, and how many attempts the transport engine made.
type TransactionContext struct {
	Identifier    uint8
	Authenticator [16]byte
	Attempts      int
}

// Response is the successful outcome of SendRequest: the terminal
// status, the decoded reply attributes, and the transaction bookkeeping.
type Response struct {
	Status      Status
	Code        Code
	Attributes  List
	Transaction TransactionContext
}

// Client is the transaction orchestrator (spec.md Section 4.6): it
// resolves servers and secrets, builds and encodes packets, drives the
// transport engine, and validates replies.
type Client struct {
	servers  ServerTable
	nonceSrc NonceSource
	seq      *Sequencer
	logger   *slog.Logger
	metrics  MetricsRecorder
	hooks    transport.Hooks
	timeout  time.Duration
	retries  int
	dialOpts transport.DialOptions
	nas      NASIdentity
}

// NASIdentity carries the NAS-IP-Address/NAS-IPv6-Address and
// NAS-Identifier attributes the orchestrator injects into every request
// (spec.md Section 4.6 step 4), unless the caller's Request.Attributes
// already supplies one of the same identifier.
type NASIdentity struct {
	IPv4       netip.Addr
	IPv6       netip.Addr
	Identifier string
}

// MetricsRecorder receives orchestrator events for observability.
// internal/metrics implements this against Prometheus counters/
// histograms; nil is a valid Client field and disables metrics.
type MetricsRecorder interface {
	ObserveAttempt(kind Kind, server string)
	ObserveRetry(kind Kind, server string)
	ObserveResult(kind Kind, server string, status Status, latency time.Duration)
	ObserveDigestFailure(kind Kind, server string)
}

// NewClient builds a Client. See the With* functions in options.go for
// optional configuration.
func NewClient(servers ServerTable, opts ...ClientOption) *Client {
	c := &Client{
		servers:  servers,
		nonceSrc: DefaultNonceSource(),
		seq:      NewSequencer(0),
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		retries:  DefaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendRequest builds, sends, and validates one RADIUS transaction,
// implementing spec.md Section 4.6 steps 1-14.
func (c *Client) SendRequest(ctx context.Context, req Request, opts ...SendOption) (*Response, error) {
	cfg := sendConfig{timeout: c.timeout, retries: c.retries, dial: c.hooks.Dial, dialOpts: c.dialOpts}
	for _, opt := range opts {
		opt(&cfg)
	}

	if req.ServerName == "" {
		return nil, ErrEmptyServerName
	}

	kind := KindAuth
	if req.Code.IsAccounting() {
		kind = KindAcct
	}

	entry, ok := c.servers.Lookup(req.ServerName, kind)
	if !ok {
		return nil, fmt.Errorf("lookup server %q (%s): %w", req.ServerName, kind, ErrServerNotFound)
	}

	secret := c.resolveSecret(entry, req.Attributes, req.Secret)

	addr := entry.Addr
	if req.DestPort != 0 {
		addr = netip.AddrPortFrom(addr.Addr(), req.DestPort)
	}

	// A NAS-IP-Address derived from the socket's own bound address is
	// only needed when neither a static NASIdentity.IPv4 nor an
	// explicit attribute already supplies one; dialing early to learn
	// it lets Exchange reuse the same socket instead of opening two.
	var conn transport.PacketConn
	var localAddr netip.Addr
	if !c.nas.IPv4.IsValid() && req.Attributes.Get(IDNASIPAddress) == nil {
		var err error
		conn, localAddr, err = transport.Dial(ctx, addr, cfg.dial, cfg.dialOpts)
		if err != nil {
			return nil, fmt.Errorf("resolve local address: %w", err)
		}
	}

	attrs := c.injectNAS(req.Attributes, localAddr)

	id := c.seq.Next()
	if req.SequenceNumber != nil {
		id = *req.SequenceNumber
	}
	requireMsgAuth := req.RequireMessageAuthenticator || req.Code == CodeAccessRequest

	packet, authenticator, err := c.buildPacket(req.Code, id, attrs, secret, requireMsgAuth)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("build packet: %w", err)
	}

	logger := c.logger.With(
		slog.String("component", "radius"),
		slog.String("server", req.ServerName),
		slog.String("kind", kind.String()),
	)

	validator := func(b []byte) (bool, error) {
		result, verr := ValidateReply(b, id, authenticator, secret, requireMsgAuth)
		if verr != nil {
			if errors.Is(verr, ErrBadID) {
				// Doesn't match this transaction's outstanding request;
				// keep waiting rather than treating it as a failure
				// (spec.md Section 4.5 step 3d, scenario S4).
				return false, nil
			}
			if errors.Is(verr, ErrBadDigest) && c.metrics != nil {
				c.metrics.ObserveDigestFailure(kind, req.ServerName)
			}
			return false, verr
		}
		_ = result
		return true, nil
	}

	start := time.Now()
	if c.metrics != nil {
		c.metrics.ObserveAttempt(kind, req.ServerName)
	}

	result, err := transport.Exchange(ctx, addr, packet, validator, transport.Options{
		Timeout:    cfg.timeout,
		MaxRetries: cfg.retries,
		Dial:       cfg.dial,
		DialOpts:   cfg.dialOpts,
		Conn:       conn,
		Lock:       c.hooks.Lock,
	})

	status := StatusGenericError
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveResult(kind, req.ServerName, status, time.Since(start))
		}
	}()

	if err != nil {
		status = classifyTransportErr(err)
		logger.Error("transaction failed", slog.String("status", status.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("send request: %w", err)
	}

	if result.Attempts > 1 && c.metrics != nil {
		for i := 1; i < result.Attempts; i++ {
			c.metrics.ObserveRetry(kind, req.ServerName)
		}
	}

	validated, err := ValidateReply(result.Reply, id, authenticator, secret, requireMsgAuth)
	if err != nil {
		status = StatusBadResponse
		return nil, fmt.Errorf("validate accepted reply: %w", err)
	}

	status = validated.Status
	logger.Info("transaction complete",
		slog.String("status", status.String()),
		slog.Int("attempts", result.Attempts))

	return &Response{
		Status:     validated.Status,
		Code:       validated.Code,
		Attributes: validated.Attributes,
		Transaction: TransactionContext{
			Identifier:    id,
			Authenticator: authenticator,
			Attempts:      result.Attempts,
		},
	}, nil
}

// buildPacket assembles the wire packet and returns it alongside the
// authenticator actually placed on it (random for Access-Request,
// digest-derived for Accounting-Request).
func (c *Client) buildPacket(code Code, id uint8, attrs List, secret *Secret, requireMsgAuth bool) ([]byte, [16]byte, error) {
	var authenticator [16]byte

	if code.IsAccounting() {
		// RFC 2866 Section 4: authenticator is zero while the attribute
		// body is assembled, then replaced by the digest once the final
		// length is known.
		header := buildHeader(code, id, 0)
		body, err := EncodeAttributes(nil, attrs, secret, authenticator)
		if err != nil {
			return nil, authenticator, err
		}
		packet := append(header, body...)
		if len(packet) > MaxPacketSize {
			return nil, authenticator, ErrPacketTooLarge
		}
		setLength(packet)
		authenticator = AccountingRequestAuthenticator(packet, secret)
		copy(packet[4:headerLen], authenticator[:])
		return packet, authenticator, nil
	}

	nonce, err := GenerateRequestAuthenticator(c.nonceSrc)
	if err != nil {
		return nil, authenticator, fmt.Errorf("generate authenticator: %w", err)
	}
	authenticator = nonce

	header := buildHeader(code, id, 0)
	copy(header[4:headerLen], authenticator[:])

	body, err := EncodeAttributes(nil, attrs, secret, authenticator)
	if err != nil {
		return nil, authenticator, err
	}
	packet := append(header, body...)

	if requireMsgAuth {
		finalLen := len(packet) + attrHeaderLen + 16
		packet[2] = byte(finalLen >> 8) //nolint:gosec // bounded by MaxPacketSize check below
		packet[3] = byte(finalLen)
		packet = AppendMessageAuthenticator(packet, secret)
	} else {
		setLength(packet)
	}

	if len(packet) > MaxPacketSize {
		return nil, authenticator, ErrPacketTooLarge
	}
	return packet, authenticator, nil
}

func buildHeader(code Code, id uint8, length uint16) []byte {
	h := make([]byte, headerLen)
	h[0] = byte(code)
	h[1] = id
	h[2] = byte(length >> 8)
	h[3] = byte(length)
	return h
}

func setLength(packet []byte) {
	n := len(packet)
	packet[2] = byte(n >> 8) //nolint:gosec // bounded by MaxPacketSize check at call sites
	packet[3] = byte(n)
}

// resolveSecret implements spec.md Section 4.6 step 3's full priority
// chain: a transport hook's static secret overrides everything; then
// the reserved management secret for a Service-Type=Administrative
// request; then the request's own secret override; then the server
// table's ordinary secret.
func (c *Client) resolveSecret(entry ServerEntry, attrs List, reqSecret *Secret) *Secret {
	if len(c.hooks.StaticSecret) > 0 {
		return NewSecret(c.hooks.StaticSecret)
	}
	if st := attrs.Get(IDServiceType); st != nil && st.Num == ServiceTypeAdministrative {
		if entry.ManagementSecret != nil {
			return entry.ManagementSecret
		}
		return ManagementPollSecret
	}
	if reqSecret != nil {
		return reqSecret
	}
	return entry.Secret
}

// injectNAS implements spec.md Section 4.6 step 4: NAS-IP-Address,
// NAS-IPv6-Address, and NAS-Identifier are added unless the caller's
// attribute list already names one. NAS-IP-Address falls back to the
// transaction socket's own bound address (localAddr) when no static
// NASIdentity.IPv4 is configured.
func (c *Client) injectNAS(attrs List, localAddr netip.Addr) List {
	out := make(List, 0, len(attrs)+3)
	out = append(out, attrs...)

	nasIP := c.nas.IPv4
	if !nasIP.IsValid() {
		nasIP = localAddr
	}
	if nasIP.IsValid() && attrs.Get(IDNASIPAddress) == nil {
		out = append(out, NewIPAddr(IDNASIPAddress, nasIP))
	}
	if c.nas.IPv6.IsValid() && attrs.Get(IDNASIPv6Address) == nil {
		out = append(out, NewIPv6Addr(IDNASIPv6Address, c.nas.IPv6))
	}
	if c.nas.Identifier != "" && attrs.Get(IDNASIdentifier) == nil {
		out = append(out, NewText(IDNASIdentifier, c.nas.Identifier))
	}
	return out
}

func classifyTransportErr(err error) Status {
	switch {
	case errors.Is(err, transport.ErrTimeout):
		return StatusTimeout
	case errors.Is(err, transport.ErrNetUnreachable):
		return StatusNetUnreachable
	case errors.Is(err, ErrBadDigest),
		errors.Is(err, ErrShortPacket),
		errors.Is(err, ErrBadLength),
		errors.Is(err, ErrZeroAttributeType),
		errors.Is(err, ErrShortAttribute),
		errors.Is(err, ErrAttributeOverflow),
		errors.Is(err, ErrUnrecognizedCode):
		return StatusBadResponse
	default:
		return StatusGenericError
	}
}
