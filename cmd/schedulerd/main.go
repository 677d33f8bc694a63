// schedulerd runs a multipath packet scheduler against a demo connection
// loop and exposes its decisions over HTTP for operability: Prometheus
// metrics and a plain JSON/health status surface.
//
// schedulerd does not perform UDP I/O, does not implement the QUIC wire
// format, and drives no real transfer — the scheduler's contract (spec
// section 1) treats those as external collaborators. The PacketSink here
// is a synthetic stand-in so the scheduler has something to decide over.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mpsched/mpsched/internal/config"
	"github.com/mpsched/mpsched/internal/connloop"
	"github.com/mpsched/mpsched/internal/pathtable"
	"github.com/mpsched/mpsched/internal/pnspace"
	"github.com/mpsched/mpsched/internal/schedmetrics"
	"github.com/mpsched/mpsched/internal/scheduler"
	"github.com/mpsched/mpsched/internal/statusserver"
	"github.com/mpsched/mpsched/internal/streammap"
	appversion "github.com/mpsched/mpsched/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// wakeInterval models the connection's event poller (I/O readiness, timer
// expiry) that, per the scheduler's contract, is the only thing allowed
// to call Select. schedulerd has no real poller, so it ticks.
const wakeInterval = 200 * time.Millisecond

// demoCWnd seeds the congestion-window field the scheduler reads as a
// black-box input (spec section 1): schedulerd owns no congestion
// controller, so this is a fixed stand-in large enough to clear
// MinDatagram. In-flight bytes are left at zero.
const demoCWnd = 14600

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	algor, err := scheduler.ParseAlgorithm(cfg.Multipath.Algor)
	if err != nil {
		logger.Error("invalid multipath algorithm", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("schedulerd starting",
		slog.String("version", appversion.Version),
		slog.String("algorithm", algor.String()),
		slog.String("control_addr", cfg.Control.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := schedmetrics.NewCollector(reg)

	sched, err := scheduler.Build(algor, scheduler.Config{MinDatagram: cfg.Multipath.MinDatagram})
	if err != nil {
		logger.Error("failed to build scheduler", slog.String("error", err.Error()))
		return 1
	}

	paths := pathtable.NewTable()
	spaces := pnspace.NewMap()
	streams := streammap.NewMap()
	seedDemoPaths(paths, spaces, streams, cfg)

	conn := connloop.New(sched, algor.String(), paths, spaces, streams, &demoSink{}, collector, logger)

	if err := runServers(cfg, conn, paths, algor, collector, reg, logger); err != nil {
		logger.Error("schedulerd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("schedulerd stopped")
	return 0
}

// runServers starts the control and metrics HTTP servers and the demo
// connection loop under an errgroup with a signal-aware context, mirroring
// the teacher's runServers shape (cmd/gobfd/main.go).
func runServers(
	cfg *config.Config,
	conn *connloop.Conn,
	paths *pathtable.Table,
	algor scheduler.Algorithm,
	collector *schedmetrics.Collector,
	reg *prometheus.Registry,
	logger *slog.Logger,
) error {
	controlSrv := newControlServer(cfg.Control, conn, algor)
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("control server listening", slog.String("addr", cfg.Control.Addr))
		return listenAndServe(gCtx, &lc, controlSrv, cfg.Control.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &lc, metricsSrv, cfg.Metrics.Addr)
	})

	g.Go(func() error {
		return driveScheduler(gCtx, conn, paths, collector, logger)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, controlSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// driveScheduler ticks the connection loop on wakeInterval and refreshes
// the scraped path gauges after each burst, standing in for the real
// I/O-readiness/timer poller the spec assumes drives Select.
func driveScheduler(
	ctx context.Context,
	conn *connloop.Conn,
	paths *pathtable.Table,
	collector *schedmetrics.Collector,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(wakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := conn.RunOnce(ctx); err != nil {
				logger.Warn("send burst failed", slog.String("error", err.Error()))
			}
			reportPathGauges(paths, collector)
		}
	}
}

func reportPathGauges(paths *pathtable.Table, collector *schedmetrics.Collector) {
	for _, p := range paths.Snapshot() {
		collector.SetPathSRTT(p.ID, p.EffectiveSRTT().Seconds())
		eligible := p.Active && p.Validation == pathtable.Validated && p.DCIDAvailable && p.Headroom() >= 0
		collector.SetPathEligible(p.ID, eligible)
	}
}

// seedDemoPaths populates the path table with a single validated primary
// path using the configured initial RTT, so schedulerd has something to
// schedule over without a real handshake/probe implementation.
func seedDemoPaths(paths *pathtable.Table, spaces *pnspace.Map, streams *streammap.Map, cfg *config.Config) {
	id := paths.AddPath(pathtable.Path{
		DCIDAvailable: true,
		InitialRTT:    cfg.Paths.InitialRTT,
		CWnd:          demoCWnd,
	})
	_, _ = paths.ApplyValidationEvent(id, pathtable.EventProbeSent)
	_, _ = paths.ApplyValidationEvent(id, pathtable.EventProbeAcked)
	_ = paths.SetActive(id, true)

	spaces.SetSendable(id, true)
	streams.SetSendableData(true)
}

// demoSink is a connloop.PacketSink that performs no I/O: it simulates
// serializing one datagram per Select by reporting no stream frames.
// A real connection would replace this with a transport that actually
// writes bytes to the path's 4-tuple.
type demoSink struct {
	mu  sync.Mutex
	seq uint64
}

func (s *demoSink) SendDatagram(_ context.Context, _ int) (scheduler.PacketInfo, error) {
	s.mu.Lock()
	s.seq++
	s.mu.Unlock()
	return scheduler.PacketInfo{}, nil
}

// controlSource adapts a connloop.Conn and the algorithm it was built with
// to statusserver.StateSource.
type controlSource struct {
	conn  *connloop.Conn
	algor scheduler.Algorithm
}

func (c controlSource) PathSnapshot() []pathtable.Path {
	return c.conn.Paths.Snapshot()
}

func (c controlSource) SchedulerSnapshot() (string, bool) {
	return c.algor.String(), scheduler.ReinjectionRequired(c.algor)
}

func newControlServer(cfg config.ControlConfig, conn *connloop.Conn, algor scheduler.Algorithm) *http.Server {
	handler := statusserver.New(controlSource{conn: conn, algor: algor}, slog.Default())
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
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

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func gracefulShutdown(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
