package routingclient

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakePBClient struct {
	routeResp *pbv1.PerformRoutingResponse
	err       error

	lastRoute      *pbv1.PerformRoutingRequest
	lastWindow     *pbv1.UpdateWindowRequest
	lastInvalidate *pbv1.InvalidateMetricsRequest
	lastUpsert     *pbv1.UpsertConfigRequest
	lastMD         metadata.MD
}

func (f *fakePBClient) PerformRouting(
	ctx context.Context,
	in *pbv1.PerformRoutingRequest,
	_ ...grpc.CallOption,
) (*pbv1.PerformRoutingResponse, error) {
	f.lastRoute = in
	f.lastMD, _ = metadata.FromOutgoingContext(ctx)
	return f.routeResp, f.err
}

func (f *fakePBClient) UpdateWindow(
	_ context.Context,
	in *pbv1.UpdateWindowRequest,
	_ ...grpc.CallOption,
) (*pbv1.UpdateWindowResponse, error) {
	f.lastWindow = in
	return &pbv1.UpdateWindowResponse{}, f.err
}

func (f *fakePBClient) InvalidateMetrics(
	_ context.Context,
	in *pbv1.InvalidateMetricsRequest,
	_ ...grpc.CallOption,
) (*pbv1.InvalidateMetricsResponse, error) {
	f.lastInvalidate = in
	if f.err != nil {
		return nil, f.err
	}
	return &pbv1.InvalidateMetricsResponse{DeletedKeys: []string{"elimination:m:card:x"}}, nil
}

func (f *fakePBClient) UpsertConfig(
	_ context.Context,
	in *pbv1.UpsertConfigRequest,
	_ ...grpc.CallOption,
) (*pbv1.UpsertConfigResponse, error) {
	f.lastUpsert = in
	return &pbv1.UpsertConfigResponse{}, f.err
}

func (f *fakePBClient) GetConfig(
	_ context.Context,
	_ *pbv1.GetConfigRequest,
	_ ...grpc.CallOption,
) (*pbv1.GetConfigResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pbv1.GetConfigResponse{Config: json.RawMessage(`{"constants":[1,1]}`)}, nil
}

func TestMethods_ForwardToPB(t *testing.T) {
	ctx := context.Background()
	fake := &fakePBClient{routeResp: &pbv1.PerformRoutingResponse{Algorithm: "elimination", Eligible: []string{"x"}}}
	c := &Client{client: fake}

	resp, err := c.PerformRouting(ctx, &pbv1.PerformRoutingRequest{Algorithm: "elimination", ID: "m"})
	if err != nil {
		t.Fatalf("PerformRouting returned error: %v", err)
	}
	if len(resp.Eligible) != 1 || resp.Eligible[0] != "x" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if fake.lastRoute.ID != "m" {
		t.Fatalf("unexpected PerformRouting args: %+v", fake.lastRoute)
	}
	if len(fake.lastMD.Get("x-api-key")) != 0 {
		t.Fatalf("api key must not be sent without credentials: %v", fake.lastMD)
	}

	if err := c.UpdateWindow(ctx, &pbv1.UpdateWindowRequest{ID: "m", Reports: []pbv1.BucketReport{{Label: "x"}}}); err != nil {
		t.Fatalf("UpdateWindow error: %v", err)
	}
	if fake.lastWindow.Reports[0].Label != "x" {
		t.Fatalf("unexpected UpdateWindow args: %+v", fake.lastWindow)
	}

	keys, err := c.InvalidateMetrics(ctx, "", "t", "m")
	if err != nil {
		t.Fatalf("InvalidateMetrics error: %v", err)
	}
	if len(keys) != 1 || fake.lastInvalidate.TenantID != "t" || fake.lastInvalidate.ID != "m" {
		t.Fatalf("unexpected InvalidateMetrics result %v for %+v", keys, fake.lastInvalidate)
	}

	ref := pbv1.ConfigRef{MerchantID: "m", Algorithm: "contract_routing"}
	if err := c.UpsertConfig(ctx, ref, json.RawMessage(`{"constants":[1,1]}`)); err != nil {
		t.Fatalf("UpsertConfig error: %v", err)
	}
	if fake.lastUpsert.Ref != ref {
		t.Fatalf("unexpected UpsertConfig ref: %+v", fake.lastUpsert.Ref)
	}
	cfg, err := c.GetConfig(ctx, ref)
	if err != nil || string(cfg) != `{"constants":[1,1]}` {
		t.Fatalf("unexpected GetConfig result %s, %v", cfg, err)
	}

	// error forwarding
	fake.err = status.Errorf(codes.Unavailable, "boom")
	if _, err := c.PerformRouting(ctx, &pbv1.PerformRoutingRequest{}); err == nil {
		t.Fatalf("expected error from PerformRouting, got nil")
	}
	if _, err := c.InvalidateMetrics(ctx, "", "", "m"); err == nil {
		t.Fatalf("expected error from InvalidateMetrics, got nil")
	}
	if _, err := c.GetConfig(ctx, ref); err == nil {
		t.Fatalf("expected error from GetConfig, got nil")
	}
}

func TestCredentials_SentAsMetadata(t *testing.T) {
	fake := &fakePBClient{routeResp: &pbv1.PerformRoutingResponse{}}
	c := &Client{client: fake, creds: Credentials{TenantID: "t1", APIKey: "secret"}}

	if _, err := c.PerformRouting(context.Background(), &pbv1.PerformRoutingRequest{}); err != nil {
		t.Fatalf("PerformRouting returned error: %v", err)
	}
	if got := fake.lastMD.Get("x-api-key"); len(got) != 1 || got[0] != "secret" {
		t.Fatalf("unexpected x-api-key: %v", got)
	}
	if got := fake.lastMD.Get("x-tenant-id"); len(got) != 1 || got[0] != "t1" {
		t.Fatalf("unexpected x-tenant-id: %v", got)
	}
}

func TestClose_NilAndRealConn(t *testing.T) {
	// nil client/conn should not panic and should return nil
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on empty client returned error: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	srv := grpc.NewServer()
	pbv1.RegisterDynamicRoutingServer(srv, &pbv1.UnimplementedDynamicRoutingServer{})

	go srv.Serve(lis)
	defer srv.Stop()

	c2, err := New(lis.Addr().String(), Credentials{})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if err := c2.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
