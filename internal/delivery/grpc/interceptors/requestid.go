package interceptors

import (
	"context"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ctxmeta"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	requestIDHeader = "x-request-id"
	maxRequestIDLen = 128
)

// UnaryRequestIDInterceptor берёт x-request-id из metadata или генерирует новый
// и возвращает его клиенту в заголовках ответа.
func UnaryRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		rid := firstValue(md, requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		ctx = ctxmeta.WithRequestID(ctx, rid)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, rid))

		return handler(ctx, req)
	}
}

// validRequestID отсекает пустые, слишком длинные и непечатные значения, чтобы не тащить их в логи.
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] < 0x21 || rid[i] > 0x7e {
			return false
		}
	}
	return true
}
