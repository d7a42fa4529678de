package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// UnaryLoggingInterceptor пишет по строке на вызов. Ошибки клиента (неверный запрос,
// нет конфигурации или ключа) идут уровнем warn, ошибки сервиса уровнем error.
func UnaryLoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.Duration("duration", time.Since(start)),
			slog.String("grpc_code", code.String()),
			slog.String("remote_addr", remoteAddr(ctx)),
		}

		switch {
		case err == nil:
			log.InfoContext(ctx, "gRPC request handled", attrs...)
		case isClientError(code):
			log.WarnContext(ctx, "gRPC request rejected", append(attrs, slog.Any("error", err))...)
		default:
			log.ErrorContext(ctx, "gRPC request failed", append(attrs, slog.Any("error", err))...)
		}

		return resp, err
	}
}

func remoteAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

func isClientError(code codes.Code) bool {
	switch code {
	case codes.InvalidArgument, codes.NotFound, codes.Unauthenticated, codes.Canceled:
		return true
	default:
		return false
	}
}
