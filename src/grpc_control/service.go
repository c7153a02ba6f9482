package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"tsetmc-pusher/src/logger"
)

// ServiceName is the health service name reported for the pusher.
const ServiceName = "tsetmc.pusher"

// gracePeriod bounds GracefulStop. Health Watch streams outlive Shutdown.
const gracePeriod = 2 * time.Second

// ControlService exposes the standard gRPC health protocol. The pusher is
// SERVING while a trading session is open and NOT_SERVING otherwise, so
// orchestrators can tell an idle night from a failure.
type ControlService struct {
	Health *health.Server
	Logger *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(log *logger.Logger) *ControlService {
	s := &ControlService{
		Health: health.NewServer(),
		Logger: log,
	}
	s.SetSessionOpen(false)
	return s
}

// -----------------------------------------------------------------------------

// SetSessionOpen flips the reported serving status.
func (s *ControlService) SetSessionOpen(open bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if open {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(ServiceName, status)
	s.Logger.Debug("Health status: %s", status)
}

// -----------------------------------------------------------------------------

// Start listens on addr and serves until ctx is done.
func (s *ControlService) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// -----------------------------------------------------------------------------

// Serve runs the gRPC server on ln until ctx is done.
func (s *ControlService) Serve(ctx context.Context, ln net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.Health)

	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Info("gRPC health service listening on %s", ln.Addr())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.Health.Shutdown()
		s.stop(srv)
		return nil
	case err := <-serveErr:
		return err
	}
}

// -----------------------------------------------------------------------------

// stop drains in-flight calls, then force-closes whatever is still open.
func (s *ControlService) stop(srv *grpc.Server) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(gracePeriod):
		s.Logger.Warning("gRPC graceful stop timed out, closing open streams")
		srv.Stop()
		<-stopped
	}
}
