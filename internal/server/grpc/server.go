// Package grpc exposes the lotkeeper services over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/logging"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	logger    logging.Logger
	jwtSecret []byte
	increment int64

	users    userSvc
	auctions auctionSvc
	bidding  biddingSvc
	photos   photoSvc

	handlers map[string]api.Handler
}

// Services groups what the server dispatches to.
type Services struct {
	Users    userSvc
	Auctions auctionSvc
	Bidding  biddingSvc
	Photos   photoSvc
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string, increment int64) *GRPCServer {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		jwtSecret: []byte(secretKey),
		increment: increment,
		users:     svc.Users,
		auctions:  svc.Auctions,
		bidding:   svc.Bidding,
		photos:    svc.Photos,
	}
	s.handlers = s.routes()
	return s
}

// Handler implements api.Server.
func (s *GRPCServer) Handler(method string) api.Handler {
	return s.handlers[method]
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	api.RegisterServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
