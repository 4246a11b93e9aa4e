package v2

import (
	"context"
	"net"

	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-lib/proto/pb"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func newGRPCServer(service *OracleService) *grpc.Server {
	grpcServer := grpc.NewServer()
	pb.RegisterOracleServiceServer(grpcServer, service)

	// Enable reflection for debugging
	reflection.Register(grpcServer)
	return grpcServer
}

// RunGRPCServer listens on config.GRPCHost and blocks until ctx is cancelled
func RunGRPCServer(ctx context.Context, service *OracleService) error {
	lis, err := net.Listen("tcp", config.GRPCHost)
	if err != nil {
		logging.L.Err(err).Msg("failed to listen for gRPC")
		return err
	}

	logging.L.Info().Msgf("Starting gRPC server on host %s", config.GRPCHost)
	return serve(ctx, lis, service)
}

func serve(ctx context.Context, lis net.Listener, service *OracleService) error {
	grpcServer := newGRPCServer(service)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	if err := grpcServer.Serve(lis); err != nil {
		logging.L.Err(err).Msg("failed to serve gRPC")
		grpcServer.Stop()
		return err
	}

	<-stopped
	logging.L.Info().Msg("gRPC server stopped")
	return nil
}
