package server

import (
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer serves grpc.health.v1.Health and reflection on a side listener.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	// Reflection for grpcurl
	reflection.Register(gs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{grpc: gs, health: hs, logger: logger}
}

// SetServing flips the overall status ("" service name).
func (h *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
	h.logger.Info("grpc.health.status", "status", st.String())
}

// Serve blocks until Stop is called or the listener fails.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("grpc health listening", "addr", lis.Addr().String())
	if err := h.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop reports NOT_SERVING to watchers, then drains in-flight calls.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
