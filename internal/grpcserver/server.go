// Package grpcserver serves the standard gRPC health service. The reported
// status follows the reachability of the storage backend.
package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/patric-chuzhbe/usrinfo/internal/grpcserver/interceptor"
	"github.com/patric-chuzhbe/usrinfo/internal/logger"
)

// ServiceName is the name clients pass to Health/Check for the user service.
const ServiceName = "usrinfo.UserService"

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	grpcServer    *grpc.Server
	listener      net.Listener
	health        *health.Server
	db            pinger
	checkInterval time.Duration
}

func NewGRPCServer(
	addr string,
	db pinger,
	checkInterval time.Duration,
) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor([]string{
				healthpb.Health_Check_FullMethodName,
			}),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	result := &Server{
		grpcServer:    server,
		listener:      lis,
		health:        healthServer,
		db:            db,
		checkInterval: checkInterval,
	}
	result.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	return result, nil
}

// Addr is the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve blocks until the server stops.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// GracefulStop marks every service as not serving and waits for pending RPCs.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// CheckStorage pings the storage once and publishes the result.
func (s *Server) CheckStorage(ctx context.Context) {
	if err := s.db.Ping(ctx); err != nil {
		logger.Log.Warnw("storage ping failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}

	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// WatchStorage calls CheckStorage right away and then every check interval
// until ctx is done.
func (s *Server) WatchStorage(ctx context.Context) {
	s.CheckStorage(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckStorage(ctx)
		}
	}
}
