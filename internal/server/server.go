// Package server exposes the snapshot history over a read-only HTTP API and
// a gRPC health endpoint.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	swaggerUI "github.com/tx7do/kratos-swagger-ui"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	_ "github.com/go-tangra/go-tangra-sysinventory/internal/codec"
	"github.com/go-tangra/go-tangra-sysinventory/internal/config"
	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/store"
)

// Run starts the gRPC and HTTP servers and blocks until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, openApiData []byte, logger *slog.Logger) error {
	if cfg.DatabasePath == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "serve requires a history database (set database)")
	}

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	hs := health.NewServer()
	handler := NewHandler(db, hs, logger)

	// gRPC server with API-key interceptors (unary + stream).
	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(APIKeyInterceptor(cfg.ApiSecret)),
		grpc.ChainStreamInterceptor(APIKeyStreamInterceptor(cfg.ApiSecret)),
	)
	healthpb.RegisterHealthServer(grpcSrv, hs)
	reflection.Register(grpcSrv)

	lis, err := net.Listen("tcp", cfg.GRPCListen)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "listen gRPC on "+cfg.GRPCListen, err)
	}

	// Graceful shutdown when the caller cancels the context.
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		hs.Shutdown()
		grpcSrv.GracefulStop()
	}()

	if retention := cfg.Retention(); retention > 0 {
		go runPurgeLoop(ctx, db, retention, cfg.PurgeInterval, logger)
	}

	httpSrv := kratoshttp.NewServer(
		kratoshttp.Address(cfg.Listen),
		kratoshttp.Middleware(
			recovery.Recovery(),
			protectedOperations(cfg.ApiSecret),
		),
	)
	RegisterHTTPRoutes(httpSrv, handler)

	// Swagger UI (registered via HandlePrefix, bypasses middleware chain).
	if cfg.EnableSwagger && len(openApiData) > 0 {
		swaggerUI.RegisterSwaggerUIServerWithOption(
			httpSrv,
			swaggerUI.WithTitle("System Inventory"),
			swaggerUI.WithMemoryData(openApiData, "yaml"),
		)
		logger.Info("swagger UI available", "url", "http://"+cfg.Listen+"/docs/")
	}

	go func() {
		if err := httpSrv.Start(ctx); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = httpSrv.Stop(context.Background())
	}()

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	logger.Info("serving snapshot history",
		"http", cfg.Listen, "grpc", cfg.GRPCListen, "database", cfg.DatabasePath)
	if cfg.RetentionDays > 0 {
		logger.Info("retention enabled", "days", cfg.RetentionDays, "purge_interval", cfg.PurgeInterval)
	}

	return grpcSrv.Serve(lis)
}

// Purger deletes history older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

func runPurgeLoop(ctx context.Context, db Purger, retention, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.Purge(ctx, retention)
			if err != nil {
				logger.Warn("purge failed", "error", err)
			} else if n > 0 {
				logger.Info("purged snapshots", "count", n, "older_than", retention)
			}
		}
	}
}
