// Package grpc runs the gRPC side-port that exposes the standard
// grpc.health.v1.Health service, so orchestrators can probe bazaar without
// going through the HTTP stack.
//
//	srv := grpc.New()
//	if err := srv.Start(config.GRPCPort()); err != nil { ... }
//	defer srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

// ServiceName is the health service name reported alongside the server-wide
// "" entry.
const ServiceName = "bazaar.Marketplace"

var (
	handledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazaar",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "gRPC calls completed by method and code.",
	}, []string{"grpc_method", "grpc_code"})

	handlingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bazaar",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "gRPC response latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"grpc_method"})
)

func init() {
	metrics.MustRegister(handledTotal, handlingSeconds)
}

// ─── Interceptors ─────────────────────────────────────────────────────────────

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// observeInterceptor logs at debug level and records metrics per call.
func observeInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	dur := time.Since(start)
	code := status.Code(err)

	handledTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	handlingSeconds.WithLabelValues(info.FullMethod).Observe(dur.Seconds())
	logger.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", dur.Milliseconds(),
		"code", code.String(),
	)
	return resp, err
}

// ─── Server ───────────────────────────────────────────────────────────────────

type Server struct {
	srv    *grpc.Server
	health *health.Server
}

func New() *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(1<<20),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{srv: srv, health: hs}
	s.SetServing(true)
	return s
}

// SetServing flips both the server-wide and the marketplace service status.
func (s *Server) SetServing(ok bool) {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Start listens on port and serves in the background.
func (s *Server) Start(port string) error {
	addr := ":" + port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	logger.Info("gRPC health server starting", "addr", addr)
	go s.Serve(lis)
	return nil
}

// Serve blocks serving lis.
func (s *Server) Serve(lis net.Listener) {
	if err := s.srv.Serve(lis); err != nil {
		logger.Error("grpc: serve error", "error", err)
	}
}

// Stop marks the server NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.health.Shutdown()
	s.srv.GracefulStop()
	logger.Info("gRPC health server stopped")
}
