package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/platform/logging"
	"github.com/louisbranch/kindred/internal/platform/timeouts"
	lifecyclesqlite "github.com/louisbranch/kindred/internal/services/lifecycle/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls lifecycle service startup.
type RuntimeConfig struct {
	HTTPAddr           string
	HealthPort         int
	DBPath             string
	Schedule           string
	CronToken          string
	Concurrency        int
	MaintenanceWeekday time.Weekday
	// DeliveryRate caps consequence deliveries per second; zero is unlimited.
	DeliveryRate float64
	// DisableScheduler leaves the HTTP trigger as the only way to run a batch.
	DisableScheduler bool
	Logger           *zap.Logger
}

const (
	defaultHTTPAddr   = ":8095"
	defaultHealthPort = 8096
	defaultDBPath     = "data/lifecycle.db"

	healthServiceName = "lifecycle.batch"
)

// Run opens storage and serves the cron trigger, the scheduler and the gRPC
// health service until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultHealthPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	logger := logging.OrNop(cfg.Logger)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lifecycle storage dir: %w", err)
		}
	}

	store, err := lifecyclesqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open lifecycle sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("close lifecycle sqlite store", zap.Error(closeErr))
		}
	}()

	batchCfg := DefaultConfig()
	batchCfg.Concurrency = cfg.Concurrency
	batchCfg.MaintenanceWeekday = cfg.MaintenanceWeekday
	batch := NewBatch(store, logger,
		WithConfig(batchCfg),
		WithDeliverer(NewLogDeliverer(logger, cfg.DeliveryRate)),
	)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
	if err != nil {
		return fmt.Errorf("listen on health port %d: %w", cfg.HealthPort, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()
	logger.Info("lifecycle health server listening", zap.String("addr", listener.Addr().String()))

	if !cfg.DisableScheduler {
		scheduler, err := NewScheduler(cfg.Schedule, batch, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(batch, cfg.CronToken, logger).Routes(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	httpErr := make(chan error, 1)
	go func() {
		logger.Info("lifecycle http server listening", zap.String("addr", cfg.HTTPAddr))
		httpErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown lifecycle http server: %w", err)
		}
		return nil
	case err := <-httpErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve lifecycle http: %w", err)
	}
}
