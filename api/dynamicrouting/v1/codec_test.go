package routingv1

import (
	"encoding/json"
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatalf("codec %q is not registered", CodecName)
	}

	in := &UpsertConfigRequest{
		Ref:    ConfigRef{MerchantID: "m", Algorithm: "contract_routing"},
		Config: json.RawMessage(`{"constants":[1,2]}`),
	}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out UpsertConfigRequest
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Ref != in.Ref || string(out.Config) != string(in.Config) {
		t.Fatalf("unexpected decoded request: %+v", out)
	}
}
