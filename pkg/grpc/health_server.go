package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/brewdesk/pkg/config"
)

// ServiceName is the health service key reported alongside the overall status.
const ServiceName = "brewdesk.Gateway"

// Pinger reports whether the REST collaborator is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer exposes grpc.health.v1 for the gateway. The gateway is
// SERVING while the REST collaborator answers.
type HealthServer struct {
	health *health.Server
	srv    *grpc.Server
	pinger Pinger
	logger *zap.Logger
	config config.ServerConfig
}

func NewHealthServer(cfg config.ServerConfig, pinger Pinger, logger *zap.Logger) *HealthServer {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	reflection.Register(srv)

	return &HealthServer{
		health: h,
		srv:    srv,
		pinger: pinger,
		logger: logger.Named("health"),
		config: cfg,
	}
}

func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("Health service started", zap.String("address", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// Check pings once and updates the reported status.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("REST API unreachable", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch re-checks on every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cctx, cancel := context.WithTimeout(ctx, interval)
		s.Check(cctx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Server returns the health implementation for in-process checks.
func (s *HealthServer) Server() healthpb.HealthServer {
	return s.health
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
