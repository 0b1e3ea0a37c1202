// Command parkd runs the parking facility allocator: the gRPC
// ParkingService, the HTTP API for the browser client and a Prometheus
// /metrics endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/internal/config"
	"github.com/navan260/dsa-el/internal/httpapi"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/internal/nbi"
	"github.com/navan260/dsa-el/internal/observability"
	"github.com/navan260/dsa-el/internal/parking/state"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to a config file (yaml, toml or json)")
	envFile := flag.String("env-file", ".env", "Optional dotenv file with PARKING_* overrides")
	flag.Parse()

	cfg, err := config.Load(config.Options{File: *configPath, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "parkd: %v\n", err)
		os.Exit(2)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, grpcLis, httpLis); err != nil {
		log.Error(ctx, "parkd exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or a server fails, then shuts every
// server down. It owns both listeners.
func run(ctx context.Context, cfg config.Config, log logging.Logger, grpcLis, httpLis net.Listener) (err error) {
	defer func() {
		if err != nil {
			_ = grpcLis.Close()
			_ = httpLis.Close()
		}
	}()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	st := state.New(log, state.WithMetricsRecorder(collector))
	if err := loadInitialLayout(ctx, st, cfg.Layout, log); err != nil {
		return err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RequestIDUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
		),
	)
	nbi.RegisterParkingServiceServer(grpcServer, nbi.NewParkingService(st, log))

	httpServer := &http.Server{
		Handler: httpapi.NewRouter(st, httpapi.Options{
			AllowOrigins: cfg.HTTP.AllowOrigins,
			Logger:       log,
			Metrics:      collector,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := serveMetrics(ctx, cfg.MetricsAddr, collector, log)

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "serving gRPC", logging.String("addr", grpcLis.Addr().String()))
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Info(ctx, "serving HTTP", logging.String("addr", httpLis.Addr().String()))
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down parkd")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "http shutdown", logging.Err(err))
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	return serveErr
}

// loadInitialLayout installs the configured facility: a layout file, then
// inline rows, then the built-in default.
func loadInitialLayout(ctx context.Context, st *state.ParkingState, lc config.LayoutConfig, log logging.Logger) error {
	name, rows := lc.Name, lc.Rows
	switch {
	case lc.Path != "":
		f, err := core.LoadLayoutFile(lc.Path)
		if err != nil {
			return err
		}
		rows = f.Rows
		if f.Name != "" {
			name = f.Name
		}
	case len(rows) == 0:
		rows = core.DefaultLayoutRows()
	}

	summary, err := st.Reconfigure(ctx, rows, state.ReconfigureOptions{Name: name})
	if err != nil {
		return fmt.Errorf("initial layout: %w", err)
	}
	log.Info(ctx, "facility configured",
		logging.String("name", summary.Name),
		logging.Int("nodes", summary.Nodes),
		logging.Int("edges", summary.Edges),
		logging.Int64("entrance", summary.Entrance),
		logging.String("entrance_source", string(summary.EntranceSource)),
	)
	return nil
}

func serveMetrics(ctx context.Context, addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
