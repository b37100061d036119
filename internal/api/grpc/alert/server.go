package alert

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	record.Store
}

// Server implements the AlertStore gRPC API.
type Server struct {
	// service provides the business logic for record operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Get returns the current record.
func (s *Server) Get(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	current, err := s.service.Get(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to read record")
	}

	return toStruct(current)
}

// Replace validates and stores the record.
func (s *Server) Replace(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	next, err := alert.FromStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid record: %v", err)
	}

	if err = s.service.Replace(ctx, next); err != nil {
		return nil, status.Error(codes.Internal, "unable to persist record")
	}

	return new(emptypb.Empty), nil
}

// Subscribe streams the current record and every later one until the client goes away.
func (s *Server) Subscribe(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	var (
		ctx     = stream.Context()
		updates = make(chan *alert.Record, 1)
	)

	dispose, err := s.service.Subscribe(ctx, func(r *alert.Record) {
		select {
		case updates <- r:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return status.Error(codes.Internal, "unable to subscribe")
	}

	defer dispose()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}

			return status.FromContextError(ctx.Err()).Err()
		case next := <-updates:
			st, err := toStruct(next)
			if err != nil {
				return err
			}

			if err = stream.Send(st); err != nil {
				logger.DebugKV(ctx, "Subscriber stream closed", "error", err)

				return err
			}
		}
	}
}

// toStruct converts a domain record into its transport message.
func toStruct(r *alert.Record) (*structpb.Struct, error) {
	st, err := alert.ToStruct(r)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode record")
	}

	return st, nil
}
