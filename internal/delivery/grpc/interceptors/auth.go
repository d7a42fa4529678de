package interceptors

import (
	"context"
	"errors"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ctxmeta"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeader   = "x-api-key"
	tenantIDHeader = "x-tenant-id"
)

// UnaryAuthInterceptor проверяет API-ключ из metadata и кладёт владельца ключа в контекст.
func UnaryAuthInterceptor(keys ports.ConfigRepo, hashKey string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		apiKey := firstValue(md, apiKeyHeader)
		if apiKey == "" {
			return nil, status.Error(codes.Unauthenticated, "missing api key")
		}

		id, err := keys.FetchKey(ctx, firstValue(md, tenantIDHeader), apiKey, hashKey)
		switch {
		case errors.Is(err, domain.ErrKeyNotFound), errors.Is(err, domain.ErrUnauthenticated):
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		case err != nil:
			return nil, status.Error(codes.Unavailable, err.Error())
		}

		return handler(ctxmeta.WithIdentity(ctx, id), req)
	}
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
