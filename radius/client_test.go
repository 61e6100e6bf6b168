package radius_test

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/radiusgo/goradius/internal/transport"
	"github.com/radiusgo/goradius/radius"
)

// fakeServerConn simulates a RADIUS server on the other end of the
// wire: every datagram it receives is echoed back as an Access-Accept
// signed with the given secret, after an optional artificial delay (to
// exercise the retry path) and an optional drop count (to exercise
// ErrTimeout).
type fakeServerConn struct {
	mu            sync.Mutex
	remote        netip.AddrPort
	secret        *radius.Secret
	inbox         chan []byte
	deadline      time.Time
	drops         int
	delay         time.Duration
	received      [][]byte
	corruptDigest bool

	// replyFunc builds the reply datagram for each received request;
	// nil means signAccept.
	replyFunc func(req []byte, secret *radius.Secret) []byte
}

func newFakeServerConn(remote netip.AddrPort, secret *radius.Secret) *fakeServerConn {
	return &fakeServerConn{remote: remote, secret: secret, inbox: make(chan []byte, 8)}
}

func (f *fakeServerConn) WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error) {
	f.mu.Lock()
	f.received = append(f.received, append([]byte(nil), b...))
	drop := f.drops > 0
	if drop {
		f.drops--
	}
	delay := f.delay
	corrupt := f.corruptDigest
	build := f.replyFunc
	if build == nil {
		build = signAccept
	}
	f.mu.Unlock()

	if drop {
		return len(b), nil
	}

	req := append([]byte(nil), b...)
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		reply := build(req, f.secret)
		if corrupt {
			reply[4] ^= 0xFF // corrupt the response authenticator
		}
		f.inbox <- reply
	}()
	return len(b), nil
}

func (f *fakeServerConn) ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error) {
	f.mu.Lock()
	deadline := f.deadline
	f.mu.Unlock()

	var timeoutCh <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case msg := <-f.inbox:
		return copy(b, msg), f.remote, nil
	case <-timeoutCh:
		return 0, netip.AddrPort{}, fakeTimeout{}
	}
}

func (f *fakeServerConn) SetReadDeadline(t time.Time) error {
	f.mu.Lock()
	f.deadline = t
	f.mu.Unlock()
	return nil
}

func (f *fakeServerConn) Close() error { return nil }

func (f *fakeServerConn) LocalAddrPort() netip.AddrPort {
	return netip.MustParseAddrPort("127.0.0.1:0")
}

type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "fake timeout" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

// signAccept builds a correctly-digested Access-Accept, with a valid
// Message-Authenticator, for req. Client.SendRequest always requires
// one on the reply to an Access-Request, so the fake server has to
// produce one exactly as RFC 3579 Section 3.2 describes: computed with
// the authenticator field holding the request authenticator, then
// replaced by the real response-authenticator digest once the
// Message-Authenticator attribute's final bytes are known.
func signAccept(req []byte, secret *radius.Secret) []byte {
	id := req[1]
	var reqAuth [16]byte
	copy(reqAuth[:], req[4:20])

	reply := make([]byte, 20)
	reply[0] = byte(radius.CodeAccessAccept)
	reply[1] = id
	copy(reply[4:20], reqAuth[:]) // temporary, per RFC 3579 Section 3.2

	finalLen := len(reply) + 2 + 16
	reply[2] = byte(finalLen >> 8)
	reply[3] = byte(finalLen)

	reply = radius.AppendMessageAuthenticator(reply, secret)

	respAuth := radius.AccountingRequestAuthenticator(reply, secret)
	copy(reply[4:20], respAuth[:])
	return reply
}

// signReply is signAccept generalized to an arbitrary code and
// attribute list, used to exercise Access-Reject and Access-Challenge
// replies through the same RFC 3579 Section 3.2 two-phase digest.
func signReply(code radius.Code, req []byte, secret *radius.Secret, attrs radius.List) []byte {
	id := req[1]
	var reqAuth [16]byte
	copy(reqAuth[:], req[4:20])

	header := make([]byte, 20)
	header[0] = byte(code)
	header[1] = id
	copy(header[4:20], reqAuth[:]) // temporary, per RFC 3579 Section 3.2

	body, err := radius.EncodeAttributes(nil, attrs, secret, reqAuth)
	if err != nil {
		panic(err)
	}
	reply := append(header, body...)

	finalLen := len(reply) + 2 + 16
	reply[2] = byte(finalLen >> 8)
	reply[3] = byte(finalLen)

	reply = radius.AppendMessageAuthenticator(reply, secret)

	respAuth := radius.AccountingRequestAuthenticator(reply, secret)
	copy(reply[4:20], respAuth[:])
	return reply
}

func dialerFor(conn *fakeServerConn) transport.Dialer {
	return func(ctx context.Context, raddr netip.AddrPort, opts transport.DialOptions) (transport.PacketConn, error) {
		return conn, nil
	}
}

func newTestClient(t *testing.T, conn *fakeServerConn, addr netip.AddrPort, secret *radius.Secret) (*radius.Client, []radius.SendOption) {
	t.Helper()
	table := radius.NewMapServerTable(radius.ServerEntry{
		Name: "test-server", Kind: radius.KindAuth, Addr: addr, Secret: secret,
	})
	client := radius.NewClient(table)
	opts := []radius.SendOption{
		radius.WithDialer(dialerFor(conn)),
		radius.WithTimeout(100 * time.Millisecond),
		radius.WithRetries(3),
	}
	return client, opts
}

func TestSendRequestAccepted(t *testing.T) {
	addr := netip.MustParseAddrPort("127.0.0.1:1812")
	secret := radius.NewSecret([]byte("sendrequestsecret"))
	conn := newFakeServerConn(addr, secret)

	client, opts := newTestClient(t, conn, addr, secret)

	resp, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "test-server",
		Attributes: radius.List{radius.NewText(radius.IDUserName, "alice")},
	}, opts...)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.Status != radius.StatusOK {
		t.Fatalf("Status = %v, want StatusOK", resp.Status)
	}
	if resp.Transaction.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", resp.Transaction.Attempts)
	}
}

func TestSendRequestRetriesThenSucceeds(t *testing.T) {
	addr := netip.MustParseAddrPort("127.0.0.1:1812")
	secret := radius.NewSecret([]byte("retrysecret"))
	conn := newFakeServerConn(addr, secret)
	conn.drops = 2

	client, opts := newTestClient(t, conn, addr, secret)

	resp, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "test-server",
		Attributes: radius.List{radius.NewText(radius.IDUserName, "bob")},
	}, opts...)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.Transaction.Attempts < 3 {
		t.Fatalf("Attempts = %d, want at least 3", resp.Transaction.Attempts)
	}
}

// TestSendRequestBadDigestStopsRetryLoop guards against treating every
// ValidateReply error identically: a reply with the right id but a
// corrupted digest must surface ErrBadDigest immediately, not after
// burning the whole retry budget waiting for a reply that will never
// arrive correctly (spec.md Section 4.5 step 3d, scenario S4).
func TestSendRequestBadDigestStopsRetryLoop(t *testing.T) {
	addr := netip.MustParseAddrPort("127.0.0.1:1812")
	secret := radius.NewSecret([]byte("baddigestsecret"))
	conn := newFakeServerConn(addr, secret)
	conn.corruptDigest = true

	client, opts := newTestClient(t, conn, addr, secret)

	_, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "test-server",
		Attributes: radius.List{radius.NewText(radius.IDUserName, "mallory")},
	}, opts...)
	if !errors.Is(err, radius.ErrBadDigest) {
		t.Fatalf("err = %v, want ErrBadDigest", err)
	}

	conn.mu.Lock()
	attempts := len(conn.received)
	conn.mu.Unlock()
	if attempts != 1 {
		t.Fatalf("server received %d attempts, want 1 (should not retry after a bad digest)", attempts)
	}
}

func TestSendRequestAccessRejectWithReplyMessage(t *testing.T) {
	addr := netip.MustParseAddrPort("127.0.0.1:1812")
	secret := radius.NewSecret([]byte("rejectsecret"))
	conn := newFakeServerConn(addr, secret)
	conn.replyFunc = func(req []byte, secret *radius.Secret) []byte {
		return signReply(radius.CodeAccessReject, req, secret, radius.List{
			radius.NewText(radius.IDReplyMessage, "account disabled"),
		})
	}

	client, opts := newTestClient(t, conn, addr, secret)

	resp, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "test-server",
		Attributes: radius.List{radius.NewText(radius.IDUserName, "carol")},
	}, opts...)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.Status != radius.StatusReject {
		t.Fatalf("Status = %v, want StatusReject", resp.Status)
	}
	if msg := resp.Attributes.Get(radius.IDReplyMessage); msg == nil || msg.String() != "account disabled" {
		t.Fatalf("Reply-Message = %v, want %q", msg, "account disabled")
	}
}

func TestSendRequestAccessChallengeWithState(t *testing.T) {
	addr := netip.MustParseAddrPort("127.0.0.1:1812")
	secret := radius.NewSecret([]byte("challengesecret"))
	conn := newFakeServerConn(addr, secret)
	conn.replyFunc = func(req []byte, secret *radius.Secret) []byte {
		return signReply(radius.CodeAccessChallenge, req, secret, radius.List{
			radius.NewString(radius.IDState, []byte("opaque-state-token")),
		})
	}

	client, opts := newTestClient(t, conn, addr, secret)

	resp, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "test-server",
		Attributes: radius.List{radius.NewText(radius.IDUserName, "dave")},
	}, opts...)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.Status != radius.StatusChallenge {
		t.Fatalf("Status = %v, want StatusChallenge", resp.Status)
	}
	if state := resp.Attributes.Get(radius.IDState); state == nil || string(state.Value) != "opaque-state-token" {
		t.Fatalf("State = %v, want %q", state, "opaque-state-token")
	}
}

// TestSendRequestIgnoresStaleIDThenAcceptsFreshReply exercises the
// other half of the BAD_ID/BAD_DIGEST fix: a reply whose id doesn't
// match the outstanding request (e.g. a duplicate answer to an earlier
// transaction landing on the same socket) must be silently skipped,
// not treated as a terminal failure, leaving the loop to accept the
// real answer that follows (spec.md Section 4.5 step 3d, scenario S4).
func TestSendRequestIgnoresStaleIDThenAcceptsFreshReply(t *testing.T) {
	addr := netip.MustParseAddrPort("127.0.0.1:1812")
	secret := radius.NewSecret([]byte("staleidsecret"))
	conn := newFakeServerConn(addr, secret)

	stale := make([]byte, 20)
	stale[0] = byte(radius.CodeAccessAccept)
	stale[1] = 0xFF // id that will never match this client's next allocation (0)
	stale[3] = 20
	conn.inbox <- stale

	client, opts := newTestClient(t, conn, addr, secret)

	resp, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "test-server",
		Attributes: radius.List{radius.NewText(radius.IDUserName, "erin")},
	}, opts...)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.Status != radius.StatusOK {
		t.Fatalf("Status = %v, want StatusOK", resp.Status)
	}
	if resp.Transaction.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1 (the stale reply should not have triggered a retransmit)", resp.Transaction.Attempts)
	}
}

func TestSendRequestUnknownServer(t *testing.T) {
	client := radius.NewClient(radius.NewMapServerTable())
	_, err := client.SendRequest(context.Background(), radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: "missing",
	})
	if !errors.Is(err, radius.ErrServerNotFound) {
		t.Fatalf("err = %v, want ErrServerNotFound", err)
	}
}

func TestSendRequestEmptyServerName(t *testing.T) {
	client := radius.NewClient(radius.NewMapServerTable())
	_, err := client.SendRequest(context.Background(), radius.Request{Code: radius.CodeAccessRequest})
	if !errors.Is(err, radius.ErrEmptyServerName) {
		t.Fatalf("err = %v, want ErrEmptyServerName", err)
	}
}
