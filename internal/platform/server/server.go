package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/ogurasousui/engineer-capacity/internal/adapters/grpc/handler"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Handlers は登録する各サービスの実装です。
type Handlers struct {
	Engineers   handler.EngineerServiceServer
	Projects    handler.ProjectServiceServer
	Assignments handler.AssignmentServiceServer
}

// Dependencies はインターセプターが利用する周辺機能です。nil の項目は無効になります。
type Dependencies struct {
	Logger        *slog.Logger
	Metrics       RequestObserver
	Authenticator Authenticator
}

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。
func New(listenAddr string, handlers Handlers, deps Dependencies, opts ...grpc.ServerOption) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDInterceptor(),
		LoggingInterceptor(logger),
	}
	if deps.Metrics != nil {
		interceptors = append(interceptors, MetricsInterceptor(deps.Metrics))
	}
	if deps.Authenticator != nil {
		interceptors = append(interceptors, AuthInterceptor(deps.Authenticator))
	}

	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}, opts...)
	srv := grpc.NewServer(opts...)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)

	if handlers.Engineers != nil {
		handler.RegisterEngineerServiceServer(srv, handlers.Engineers)
		healthSrv.SetServingStatus(handler.EngineerServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	if handlers.Projects != nil {
		handler.RegisterProjectServiceServer(srv, handlers.Projects)
		healthSrv.SetServingStatus(handler.ProjectServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	if handlers.Assignments != nil {
		handler.RegisterAssignmentServiceServer(srv, handlers.Assignments)
		healthSrv.SetServingStatus(handler.AssignmentServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     healthSrv,
		logger:     logger,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は既存のリスナーで待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	s.logger.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
