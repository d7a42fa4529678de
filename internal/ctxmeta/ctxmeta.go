package ctxmeta

import (
	"context"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID кладёт идентификатор запроса в контекст.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// RequestID достаёт идентификатор запроса из контекста.
func RequestID(ctx context.Context) (string, bool) {
	rid, ok := ctx.Value(requestIDKey).(string)
	return rid, ok && rid != ""
}

const identityKey ctxKey = iota + 1

// WithIdentity кладёт в контекст владельца проверенного API-ключа.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom достаёт владельца API-ключа; ok=false, если аутентификация выключена.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
