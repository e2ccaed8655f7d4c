// Package grpc exposes the spendkeeper services over gRPC with the JSON codec
// from internal/api, plus the standard health service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Services groups the business services the handlers delegate to.
type Services struct {
	Auth          *services.AuthService
	Sessions      *services.SessionManager
	Authenticator *services.Authenticator
	Transactions  *services.TransactionService
	Receipts      *services.ReceiptService
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	services Services
	health   *health.Server
}

func NewGRPCServer(address string, l logging.Logger, svc Services) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		services: svc,
		health:   health.NewServer(),
	}
}

// NewServer builds a grpc.Server with the interceptors, the SpendKeeper
// service and the health service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))

	api.RegisterSpendKeeperServer(srv, &handler{s: s})
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
