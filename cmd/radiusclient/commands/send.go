package commands

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/radiusgo/goradius/internal/config"
	"github.com/radiusgo/goradius/internal/transport"
	"github.com/radiusgo/goradius/radius"
)

// Sentinel errors for CLI validation.
var (
	errServerRequired  = errors.New("--server is required (or set up a config file with exactly one server)")
	errUnknownCode     = errors.New("unknown --code, expected access-request or accounting-request")
	errMalformedAttr   = errors.New("malformed --attr, expected name=value")
	errUnknownAttrName = errors.New("unknown attribute name")
)

// requestFile is the YAML shape accepted by --file: a flat map of
// attribute name to string value, the same names --attr accepts.
type requestFile struct {
	Attributes map[string]string `yaml:"attributes"`
}

func sendCmd() *cobra.Command {
	var (
		serverName string
		serverAddr string
		secret     string
		codeStr    string
		user       string
		password   string
		attrFlags  []string
		reqFile    string
		timeout    time.Duration
		retries    int
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build, send, and validate one RADIUS transaction",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			code, err := parseCode(codeStr)
			if err != nil {
				return err
			}

			entry, name, err := resolveServer(serverName, serverAddr, secret, code)
			if err != nil {
				return err
			}

			attrs, err := buildAttributes(user, password, attrFlags, reqFile)
			if err != nil {
				return err
			}

			nas, err := buildNASIdentity(cfg.Client)
			if err != nil {
				return err
			}

			client := radius.NewClient(radius.NewMapServerTable(entry),
				radius.WithNAS(nas),
				radius.WithDefaultDialOptions(transport.DialOptions{
					Namespace:        cfg.Client.Namespace,
					PreferPublicAddr: cfg.Client.UsePublicAddr,
				}),
			)

			var opts []radius.SendOption
			if timeout > 0 {
				opts = append(opts, radius.WithTimeout(timeout))
			}
			if retries > 0 {
				opts = append(opts, radius.WithRetries(retries))
			}

			resp, err := client.SendRequest(context.Background(), radius.Request{
				Code:       code,
				ServerName: name,
				Attributes: attrs,
			}, opts...)
			if err != nil {
				return fmt.Errorf("send request: %w", err)
			}

			printResponse(resp)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&serverName, "server", "", "server name from --config (may be omitted when the config names exactly one server)")
	flags.StringVar(&serverAddr, "server-addr", "", "server host:port (overrides --config; default port 1812/1813 by --code)")
	flags.StringVar(&secret, "secret", "", "shared secret (required with --server-addr)")
	flags.StringVar(&codeStr, "code", "access-request", "request code: access-request or accounting-request")
	flags.StringVar(&user, "user", "", "User-Name attribute value")
	flags.StringVar(&password, "password", "", "User-Password attribute value (obfuscated on the wire)")
	flags.StringArrayVar(&attrFlags, "attr", nil, "additional attribute as name=value, may be repeated")
	flags.StringVar(&reqFile, "file", "", "YAML file naming additional attributes")
	flags.DurationVar(&timeout, "timeout", 0, "per-attempt timeout (default: client default)")
	flags.IntVar(&retries, "retries", 0, "retransmission count (default: client default)")

	return cmd
}

// resolveServer picks the ServerEntry to dial: either the named server
// from the loaded config, or one built directly from --server-addr/--secret.
func resolveServer(serverName, serverAddr, secret string, code radius.Code) (radius.ServerEntry, string, error) {
	kind := radius.KindAuth
	if code.IsAccounting() {
		kind = radius.KindAcct
	}

	if serverAddr != "" {
		defaultPort := uint16(radius.DefaultAuthPort)
		if kind == radius.KindAcct {
			defaultPort = radius.DefaultAcctPort
		}
		addr, err := parseAddr(serverAddr, defaultPort)
		if err != nil {
			return radius.ServerEntry{}, "", fmt.Errorf("parse --server-addr: %w", err)
		}
		if secret == "" {
			return radius.ServerEntry{}, "", errors.New("--secret is required with --server-addr")
		}
		name := "cli"
		return radius.ServerEntry{
			Name:   name,
			Kind:   kind,
			Addr:   addr,
			Secret: radius.NewSecret([]byte(secret)),
		}, name, nil
	}

	if serverName == "" {
		if len(cfg.Servers) != 1 {
			return radius.ServerEntry{}, "", errServerRequired
		}
		serverName = cfg.Servers[0].Name
	}

	for _, sc := range cfg.Servers {
		if sc.Name != serverName {
			continue
		}
		addr, addrErr := sc.AuthAddrPort()
		sharedSecret := sc.Secret
		if kind == radius.KindAcct {
			addr, addrErr = sc.AcctAddrPort()
			if sc.AcctSecret != "" {
				sharedSecret = sc.AcctSecret
			}
		}
		if addrErr != nil {
			return radius.ServerEntry{}, "", fmt.Errorf("server %q: %w", serverName, addrErr)
		}
		return radius.ServerEntry{
			Name:   sc.Name,
			Kind:   kind,
			Addr:   addr,
			Secret: radius.NewSecret([]byte(sharedSecret)),
		}, sc.Name, nil
	}

	return radius.ServerEntry{}, "", fmt.Errorf("server %q: %w", serverName, radius.ErrServerNotFound)
}

// buildNASIdentity turns the loaded config's client section into the
// NAS identity attributes the client injects into every request.
func buildNASIdentity(cc config.ClientConfig) (radius.NASIdentity, error) {
	nas := radius.NASIdentity{Identifier: cc.NASIdentifier}
	if cc.NASIPAddress == "" {
		return nas, nil
	}
	addr, err := netip.ParseAddr(cc.NASIPAddress)
	if err == nil && !addr.Is4() {
		err = errors.New("not an IPv4 address")
	}
	if err != nil {
		return radius.NASIdentity{}, fmt.Errorf("parse client.nas_ip_address %q: %w", cc.NASIPAddress, err)
	}
	nas.IPv4 = addr
	return nas, nil
}

func parseAddr(s string, defaultPort uint16) (netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return netip.AddrPortFrom(addr, defaultPort), nil
}

func parseCode(s string) (radius.Code, error) {
	switch s {
	case "access-request":
		return radius.CodeAccessRequest, nil
	case "accounting-request":
		return radius.CodeAccountingRequest, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownCode, s)
	}
}

// attrDictionary maps a CLI attribute name to a builder closure, mirroring
// the handful of standard attributes the orchestrator understands directly.
var attrDictionary = map[string]func(string) (*radius.AVP, error){
	"user-name":        textAttr(radius.IDUserName),
	"user-password":    textAttr(radius.IDUserPassword),
	"nas-identifier":   textAttr(radius.IDNASIdentifier),
	"reply-message":    textAttr(radius.IDReplyMessage),
	"state":            textAttr(radius.IDState),
	"nas-ip-address":   ipAttr(radius.IDNASIPAddress),
	"nas-ipv6-address": ipv6Attr(radius.IDNASIPv6Address),
	"service-type": func(v string) (*radius.AVP, error) {
		n, err := parseUint32(v)
		if err != nil {
			return nil, err
		}
		return radius.NewInteger(radius.IDServiceType, n), nil
	},
	"nas-port": func(v string) (*radius.AVP, error) {
		n, err := parseUint32(v)
		if err != nil {
			return nil, err
		}
		return radius.NewInteger(radius.IDNASPort, n), nil
	},
}

func textAttr(id radius.Identifier) func(string) (*radius.AVP, error) {
	return func(v string) (*radius.AVP, error) { return radius.NewText(id, v), nil }
}

func ipAttr(id radius.Identifier) func(string) (*radius.AVP, error) {
	return func(v string) (*radius.AVP, error) {
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("parse address %q: %w", v, err)
		}
		return radius.NewIPAddr(id, addr), nil
	}
}

func ipv6Attr(id radius.Identifier) func(string) (*radius.AVP, error) {
	return func(v string) (*radius.AVP, error) {
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("parse address %q: %w", v, err)
		}
		return radius.NewIPv6Addr(id, addr), nil
	}
}

func parseUint32(s string) (uint32, error) {
	var n uint32
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", s, err)
	}
	return n, nil
}

// buildAttributes assembles the request's attribute list from the
// convenience --user/--password flags, repeated --attr name=value flags,
// and an optional --file YAML file, in that order.
func buildAttributes(user, password string, attrFlags []string, reqFile string) (radius.List, error) {
	var list radius.List

	if user != "" {
		list.Add(radius.NewText(radius.IDUserName, user))
	}
	if password != "" {
		list.Add(radius.NewText(radius.IDUserPassword, password))
	}

	for _, kv := range attrFlags {
		avp, err := parseAttrFlag(kv)
		if err != nil {
			return nil, err
		}
		list.Add(avp)
	}

	if reqFile != "" {
		fileAttrs, err := loadRequestFile(reqFile)
		if err != nil {
			return nil, err
		}
		list = append(list, fileAttrs...)
	}

	return list, nil
}

func parseAttrFlag(kv string) (*radius.AVP, error) {
	name, value, ok := cutFirst(kv, '=')
	if !ok {
		return nil, fmt.Errorf("%w: %q", errMalformedAttr, kv)
	}
	build, ok := attrDictionary[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownAttrName, name)
	}
	return build(value)
}

func cutFirst(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func loadRequestFile(path string) (radius.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file %s: %w", path, err)
	}

	var rf requestFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse request file %s: %w", path, err)
	}

	var list radius.List
	for name, value := range rf.Attributes {
		build, ok := attrDictionary[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errUnknownAttrName, name)
		}
		avp, err := build(value)
		if err != nil {
			return nil, err
		}
		list.Add(avp)
	}
	return list, nil
}

func printResponse(resp *radius.Response) {
	fmt.Printf("status:     %s\n", resp.Status)
	fmt.Printf("code:       %s\n", resp.Code)
	fmt.Printf("attempts:   %d\n", resp.Transaction.Attempts)
	for _, a := range resp.Attributes {
		if a.ID == radius.IDReplyMessage || a.Type == radius.TypeString {
			fmt.Printf("  %d: %s\n", a.ID.Attr(), a.String())
			continue
		}
		fmt.Printf("  %d: %d\n", a.ID.Attr(), a.Num)
	}
}
