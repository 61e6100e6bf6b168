// radiusd runs a periodic Access-Request keepalive probe against every
// configured RADIUS server and exposes the result as Prometheus gauges.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/radiusgo/goradius/internal/config"
	radiusmetrics "github.com/radiusgo/goradius/internal/metrics"
	"github.com/radiusgo/goradius/internal/transport"
	appversion "github.com/radiusgo/goradius/internal/version"
	"github.com/radiusgo/goradius/radius"
)

// probeInterval is how often each configured server receives a keepalive
// Access-Request.
const probeInterval = 30 * time.Second

// probeUser is the User-Name carried on every keepalive probe. Servers
// configured for this daemon are expected to reject it consistently
// (StatusReject is itself evidence the server and secret are reachable
// and agree on the shared secret); only a transport failure or digest
// mismatch indicates the server is actually unreachable or misconfigured.
const probeUser = "radiusd-keepalive-probe"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()))
		return 1
	}

	logger := newLogger(cfg.Log)
	logger.Info("radiusd starting",
		slog.String("version", appversion.Version),
		slog.String("metrics_addr", cfg.Metrics.Addr),
		slog.Int("servers", len(cfg.Servers)))

	reg := prometheus.NewRegistry()
	collector := radiusmetrics.NewCollector(reg)
	probes := newProbeCollector(reg)

	table, err := buildServerTable(cfg.Servers)
	if err != nil {
		logger.Error("invalid server configuration", slog.String("error", err.Error()))
		return 1
	}

	nas, err := buildNASIdentity(cfg.Client)
	if err != nil {
		logger.Error("invalid NAS configuration", slog.String("error", err.Error()))
		return 1
	}

	client := radius.NewClient(table,
		radius.WithLogger(logger),
		radius.WithMetrics(collector),
		radius.WithDefaultTimeout(time.Duration(cfg.Client.TimeoutSeconds*float64(time.Second))),
		radius.WithDefaultRetries(cfg.Client.Retries),
		radius.WithNAS(nas),
		radius.WithDefaultDialOptions(transport.DialOptions{
			Namespace:        cfg.Client.Namespace,
			PreferPublicAddr: cfg.Client.UsePublicAddr,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	metricsSrv := newMetricsServer(cfg.Metrics, reg)
	g.Go(func() error {
		logger.Info("metrics server listening", slog.String("addr", cfg.Metrics.Addr))
		return listenAndServe(gCtx, metricsSrv, cfg.Metrics.Addr)
	})

	for _, sc := range cfg.Servers {
		sc := sc
		g.Go(func() error {
			runProbeLoop(gCtx, client, sc.Name, probes, logger)
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		return shutdown(metricsSrv, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("radiusd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("radiusd stopped")
	return 0
}

// buildServerTable registers every configured server under both the
// auth and (when an accounting address is set) acct exchange kinds.
func buildServerTable(servers []config.ServerConfig) (radius.MapServerTable, error) {
	var entries []radius.ServerEntry

	for _, sc := range servers {
		authAddr, err := sc.AuthAddrPort()
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", sc.Name, err)
		}
		entries = append(entries, radius.ServerEntry{
			Name:   sc.Name,
			Kind:   radius.KindAuth,
			Addr:   authAddr,
			Secret: radius.NewSecret([]byte(sc.Secret)),
		})

		if sc.AcctAddr == "" {
			continue
		}
		acctAddr, err := sc.AcctAddrPort()
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", sc.Name, err)
		}
		acctSecret := sc.Secret
		if sc.AcctSecret != "" {
			acctSecret = sc.AcctSecret
		}
		entries = append(entries, radius.ServerEntry{
			Name:   sc.Name,
			Kind:   radius.KindAcct,
			Addr:   acctAddr,
			Secret: radius.NewSecret([]byte(acctSecret)),
		})
	}

	return radius.NewMapServerTable(entries...), nil
}

// buildNASIdentity turns the configured NAS identifier/address into a
// radius.NASIdentity, applied to every probe this daemon sends.
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

// runProbeLoop sends a keepalive Access-Request to serverName every
// probeInterval until ctx is cancelled.
func runProbeLoop(ctx context.Context, client *radius.Client, serverName string, probes *probeCollector, logger *slog.Logger) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	probeOnce(ctx, client, serverName, probes, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeOnce(ctx, client, serverName, probes, logger)
		}
	}
}

func probeOnce(ctx context.Context, client *radius.Client, serverName string, probes *probeCollector, logger *slog.Logger) {
	start := time.Now()
	_, err := client.SendRequest(ctx, radius.Request{
		Code:       radius.CodeAccessRequest,
		ServerName: serverName,
		Attributes: radius.List{radius.NewText(radius.IDUserName, probeUser)},
	})
	latency := time.Since(start)

	// A reply the engine could validate (even Access-Reject) proves the
	// server is reachable and the shared secret matches. A digest
	// mismatch still proves a reply arrived, so it also counts as up and
	// is not logged; any other error (timeout, unreachable, a malformed
	// or unclassifiable reply) marks the probe down.
	up := err == nil || errors.Is(err, radius.ErrBadDigest)
	if up {
		probes.up.WithLabelValues(serverName).Set(1)
	} else {
		probes.up.WithLabelValues(serverName).Set(0)
	}
	probes.latency.WithLabelValues(serverName).Set(latency.Seconds())

	if err != nil && !errors.Is(err, radius.ErrBadDigest) {
		logger.Warn("keepalive probe failed",
			slog.String("server", serverName),
			slog.String("error", err.Error()))
	}
}

// probeCollector holds the Prometheus gauges reporting the latest
// keepalive probe outcome per configured server.
type probeCollector struct {
	up      *prometheus.GaugeVec
	latency *prometheus.GaugeVec
}

func newProbeCollector(reg prometheus.Registerer) *probeCollector {
	p := &probeCollector{
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "goradius",
			Subsystem: "probe",
			Name:      "up",
			Help:      "1 if the last keepalive probe reached the server, 0 otherwise.",
		}, []string{"server"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "goradius",
			Subsystem: "probe",
			Name:      "latency_seconds",
			Help:      "Round-trip time of the last keepalive probe.",
		}, []string{"server"}),
	}
	reg.MustRegister(p.up, p.latency)
	return p
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func listenAndServe(ctx context.Context, srv *http.Server, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func shutdown(srv *http.Server, logger *slog.Logger) error {
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(context.Background()), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
