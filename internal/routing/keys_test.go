package routing

import (
	"errors"
	"strings"
	"testing"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

func TestKey_String(t *testing.T) {
	cases := []struct {
		name string
		key  Key
		want string
	}{
		{
			"no tenant",
			Key{Prefix: "success_rate", Entity: "merchant1", Params: "card", Label: "stripe", Suffix: SuffixAggregates},
			"success_rate:merchant1:card:stripe:aggregates",
		},
		{
			"with tenant",
			Key{Prefix: "success_rate", Tenant: "t1", Entity: "merchant1", Params: "card", Label: "stripe", Suffix: SuffixCurrentBlock},
			"success_rate:t1:merchant1:card:stripe:current_block",
		},
		{
			"no suffix",
			Key{Prefix: "elimination", Entity: "global", Params: "upi", Label: "adyen"},
			"elimination:global:upi:adyen",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.key.String(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEntityPrefix_DoesNotMatchLongerEntity(t *testing.T) {
	prefix := EntityPrefix("success_rate", "", "merchant1")
	other := Key{Prefix: "success_rate", Entity: "merchant10", Params: "p", Label: "l"}.String()
	own := Key{Prefix: "success_rate", Entity: "merchant1", Params: "p", Label: "l"}.String()

	if strings.HasPrefix(other, prefix) {
		t.Fatalf("prefix %q must not match %q", prefix, other)
	}
	if !strings.HasPrefix(own, prefix) {
		t.Fatalf("prefix %q must match %q", prefix, own)
	}
}

func TestKey_WithSuffix(t *testing.T) {
	base := Key{Prefix: "success_rate", Entity: "e", Params: "p", Label: "l"}
	agg := base.WithSuffix(SuffixAggregates)
	if base.Suffix != "" {
		t.Fatalf("WithSuffix must not modify receiver")
	}
	if agg.String() != "success_rate:e:p:l:aggregates" {
		t.Fatalf("unexpected key %q", agg.String())
	}
}

func TestValidateSegment(t *testing.T) {
	for _, v := range []string{"", "merchant_1", "card-debit", "t1.eu"} {
		if err := ValidateSegment("entity id", v); err != nil {
			t.Fatalf("%q: unexpected error %v", v, err)
		}
	}
	for _, v := range []string{"a:b", "m*", "m?", "m[1]", `m\`} {
		err := ValidateSegment("entity id", v)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%q: expected ErrInvalidRequest, got %v", v, err)
		}
	}
}
