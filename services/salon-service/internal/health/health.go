// Package health serves grpc.health.v1 for the salon service. The
// "salon.sync" entry follows the mirror's connectivity.
package health

import (
	"context"
	"log/slog"
	"net"

	"github.com/md-rashed-zaman/glamflow/libs/grpcx"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/mirror"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const SyncService = "salon.sync"

type SyncState interface {
	Connected() bool
	Subscribe() (<-chan mirror.Change, func())
}

type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	srv := grpcx.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &Server{grpc: srv, health: hs, logger: logger}
}

// Track mirrors state into the SyncService status until ctx ends.
func (s *Server) Track(ctx context.Context, state SyncState) {
	changes, release := state.Subscribe()
	defer release()

	s.set(state.Connected())
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			s.set(state.Connected())
		}
	}
}

func (s *Server) set(connected bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !connected {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(SyncService, status)
}

// Serve blocks until ctx ends, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()
	s.logger.Info("grpc server starting", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}
