package ctxmeta

import (
	"context"
	"testing"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

func TestRequestID(t *testing.T) {
	if _, ok := RequestID(context.Background()); ok {
		t.Fatalf("expected no request id in empty context")
	}
	ctx := WithRequestID(context.Background(), "rid-1")
	rid, ok := RequestID(ctx)
	if !ok || rid != "rid-1" {
		t.Fatalf("unexpected request id %q ok=%v", rid, ok)
	}
}

func TestIdentity(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatalf("expected no identity in empty context")
	}
	want := domain.Identity{TenantID: "t", MerchantID: "m", KeyID: "k"}
	ctx := WithRequestID(WithIdentity(context.Background(), want), "rid")
	got, ok := IdentityFrom(ctx)
	if !ok || got != want {
		t.Fatalf("unexpected identity %+v ok=%v", got, ok)
	}
}
