package snapshotserver

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Options configures a Server.
type Options struct {
	// EnableReflection registers server reflection, including the
	// descriptor of the snapshot service.
	EnableReflection bool
	// ShutdownDelay is how long Shutdown waits after marking the server
	// NOT_SERVING before stopping it.
	ShutdownDelay time.Duration
}

// Server serves snapshots from a SnapshotStore over gRPC.
type Server struct {
	store  *SnapshotStore
	logger zerolog.Logger

	grpcServer   *grpc.Server
	healthServer *health.Server
	opts         Options
}

// NewServer creates a server with logging and recovery interceptors and
// the health service registered.
func NewServer(store *SnapshotStore, opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		store:        store,
		logger:       logger.With().Str("component", "snapshot_server").Logger(),
		healthServer: health.NewServer(),
		opts:         opts,
	}

	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.recoveryInterceptor,
		),
	)
	RegisterSnapshotServiceServer(s.grpcServer, s)
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.healthServer)

	if opts.EnableReflection {
		if err := RegisterDescriptor(); err != nil {
			s.logger.Warn().Err(err).Msg("Snapshot service descriptor unavailable to reflection")
		}
		reflection.Register(s.grpcServer)
		s.logger.Info().Msg("gRPC reflection enabled")
	}

	return s
}

// GetSnapshot returns the latest published snapshot.
func (s *Server) GetSnapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, info, ok := s.store.Latest()
	if !ok {
		return nil, status.Error(codes.Unavailable, "no snapshot published yet")
	}
	out, err := SnapshotToStruct(snap, info)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode snapshot: %v", err)
	}
	return out, nil
}

// Serve marks the server SERVING and blocks serving lis.
func (s *Server) Serve(lis net.Listener) error {
	s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	s.logger.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// Shutdown marks the server NOT_SERVING, waits ShutdownDelay or until ctx is
// done, then stops gracefully.
func (s *Server) Shutdown(ctx context.Context) {
	s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	s.healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if s.opts.ShutdownDelay > 0 {
		select {
		case <-time.After(s.opts.ShutdownDelay):
		case <-ctx.Done():
		}
	}

	s.logger.Info().Msg("Gracefully stopping gRPC server")
	s.grpcServer.GracefulStop()
}

// loggingInterceptor logs all unary RPC calls
func (s *Server) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	code := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			code = st.Code()
		}
	}

	s.logger.Debug().
		Str("method", info.FullMethod).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("gRPC call")

	return resp, err
}

// recoveryInterceptor catches panics and returns proper gRPC errors
func (s *Server) recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("method", info.FullMethod).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC handler")
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}
