package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the record store.
const ServiceName = "skyrecords.Records"

// NewGRPCServer creates a gRPC server with recovery, logging and auth
// interceptors, registers the health service and reflection, and returns it
// ready to serve. Health starts as NOT_SERVING until WatchBackend reports a
// reachable backend.
func (s *Server) NewGRPCServer(authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.unaryRecovery,
			s.unaryLogging,
			UnaryAuth(authToken),
		),
		grpc.ChainStreamInterceptor(
			s.streamRecovery,
			s.streamLogging,
			StreamAuth(authToken),
		),
	)

	s.setServing(false)
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	return srv
}

// WatchBackend pings the backend every interval and mirrors the result into
// the gRPC health status and the backend_up gauge. It checks once right away
// and returns when ctx is done, leaving the status NOT_SERVING.
func (s *Server) WatchBackend(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	up := s.checkBackend(ctx, false)
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			up = s.checkBackend(ctx, up)
		}
	}
}

// checkBackend pings once and updates health, logging only transitions.
func (s *Server) checkBackend(ctx context.Context, wasUp bool) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.backend.Ping(pingCtx)
	up := err == nil
	switch {
	case up && !wasUp:
		s.logger.Info("backend reachable")
	case !up && wasUp:
		s.logger.Warn("backend unreachable", "error", err)
	case !up:
		s.logger.Debug("backend still unreachable", "error", err)
	}
	s.setServing(up)
	return up
}

func (s *Server) setServing(up bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if up {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	s.metrics.SetBackendUp(up)
}
