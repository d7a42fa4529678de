package routingclient

import (
	"context"
	"encoding/json"
	"fmt"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Credentials - API-ключ, с которым клиент ходит в сервис с включённой аутентификацией.
type Credentials struct {
	TenantID string
	APIKey   string
}

type Client struct {
	conn   *grpc.ClientConn
	client pbv1.DynamicRoutingClient
	creds  Credentials
}

// New создает новый gRPC-клиент сервиса динамической маршрутизации.
//
// address - например, "localhost:50051".
func New(address string, creds Credentials) (*Client, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("routingclient: dial %s: %w", address, err)
	}

	return &Client{
		conn:   conn,
		client: pbv1.NewDynamicRoutingClient(conn),
		creds:  creds,
	}, nil
}

// Close закрывает gRPC-соединение.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.creds.APIKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "x-api-key", c.creds.APIKey, "x-tenant-id", c.creds.TenantID)
}

// PerformRouting вызывает RPC PerformRouting.
func (c *Client) PerformRouting(
	ctx context.Context,
	req *pbv1.PerformRoutingRequest,
) (*pbv1.PerformRoutingResponse, error) {
	return c.client.PerformRouting(c.outgoing(ctx), req)
}

// UpdateWindow вызывает RPC UpdateWindow.
func (c *Client) UpdateWindow(ctx context.Context, req *pbv1.UpdateWindowRequest) error {
	_, err := c.client.UpdateWindow(c.outgoing(ctx), req)
	return err
}

// InvalidateMetrics вызывает RPC InvalidateMetrics и возвращает удалённые ключи.
func (c *Client) InvalidateMetrics(ctx context.Context, algorithm, tenantID, id string) ([]string, error) {
	resp, err := c.client.InvalidateMetrics(c.outgoing(ctx), &pbv1.InvalidateMetricsRequest{
		Algorithm: algorithm,
		TenantID:  tenantID,
		ID:        id,
	})
	if err != nil {
		return nil, err
	}
	return resp.DeletedKeys, nil
}

// UpsertConfig вызывает RPC UpsertConfig.
func (c *Client) UpsertConfig(ctx context.Context, ref pbv1.ConfigRef, cfg json.RawMessage) error {
	_, err := c.client.UpsertConfig(c.outgoing(ctx), &pbv1.UpsertConfigRequest{Ref: ref, Config: cfg})
	return err
}

// GetConfig вызывает RPC GetConfig.
func (c *Client) GetConfig(ctx context.Context, ref pbv1.ConfigRef) (json.RawMessage, error) {
	resp, err := c.client.GetConfig(c.outgoing(ctx), &pbv1.GetConfigRequest{Ref: ref})
	if err != nil {
		return nil, err
	}
	return resp.Config, nil
}
