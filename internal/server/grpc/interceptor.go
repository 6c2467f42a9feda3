package grpc

import (
	"context"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/recviewer/internal/common"
	pb "github.com/dmitrijs2005/recviewer/internal/proto"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestIDFrom returns the caller-supplied request id, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDHeaderName); len(values) > 0 {
			ctx = context.WithValue(ctx, requestIDKey, values[0])
		}
	}
	return handler(ctx, req)
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start), "request_id", RequestIDFrom(ctx)}
	switch code {
	case codes.OK, codes.NotFound, codes.InvalidArgument, codes.Canceled:
		s.logger.Info(ctx, "grpc request", args...)
	default:
		s.logger.Error(ctx, "grpc request failed", append(args, "error", err)...)
	}
	return resp, err
}

func (s *Server) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic recovered", "method", info.FullMethod, "error", r, "stack", string(debug.Stack()))
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

// errorInterceptor turns domain errors into gRPC statuses.
func errorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	if _, ok := status.FromError(err); ok {
		return nil, err
	}
	code := pb.CodeFor(err)
	msg := err.Error()
	if code == codes.Internal {
		msg = "internal error"
	}
	return nil, status.Error(code, msg)
}
