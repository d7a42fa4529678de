//go:build integration
// +build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routingclient"
)

const (
	project    = "dr-it"
	composeYml = "../../docker-compose-it.yml"
	grpcAddr   = "127.0.0.1:50051"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	must(ctx, "docker", "compose", "-f", composeYml, "-p", project, "up", "-d", "--build")
	mustWaitTCP(ctx, grpcAddr, 90*time.Second)
	mustWaitReady(grpcAddr, 90*time.Second)

	code := m.Run()

	if code != 0 {
		_ = exec.Command("docker", "compose", "-f", composeYml, "-p", project, "logs").Run()
	}

	_ = exec.CommandContext(context.Background(),
		"docker", "compose", "-f", composeYml, "-p", project, "down", "-v",
	).Run()

	os.Exit(code)
}

func newClient(t *testing.T) *routingclient.Client {
	t.Helper()
	cl, err := routingclient.New(grpcAddr, routingclient.Credentials{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })
	return cl
}

func Test_Elimination_StoredConfigAndInvalidate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cl := newClient(t)

	merchant := fmt.Sprintf("it-el-%d", time.Now().UnixNano())
	ref := pbv1.ConfigRef{MerchantID: merchant, Algorithm: "elimination"}
	cfg := `{"entity_bucket":{"bucket_size":2,"bucket_leak_interval_in_secs":3600},` +
		`"global_bucket":{"bucket_size":1000,"bucket_leak_interval_in_secs":3600}}`
	require.NoError(t, cl.UpsertConfig(ctx, ref, json.RawMessage(cfg)))

	got, err := cl.GetConfig(ctx, ref)
	require.NoError(t, err)
	require.JSONEq(t, cfg, string(got))

	require.NoError(t, cl.UpdateWindow(ctx, &pbv1.UpdateWindowRequest{
		Algorithm: "elimination",
		ID:        merchant,
		Params:    "card",
		Reports:   []pbv1.BucketReport{{Label: "stripe"}, {Label: "stripe"}},
	}))

	route := &pbv1.PerformRoutingRequest{
		Algorithm: "elimination",
		ID:        merchant,
		Params:    "card",
		Labels:    []string{"stripe", "adyen"},
	}
	resp, err := cl.PerformRouting(ctx, route)
	require.NoError(t, err)
	require.Equal(t, []string{"adyen"}, resp.Eligible)

	deleted, err := cl.InvalidateMetrics(ctx, "elimination", "", merchant)
	require.NoError(t, err)
	require.Contains(t, deleted, "elimination:"+merchant+":card:stripe")

	resp, err = cl.PerformRouting(ctx, route)
	require.NoError(t, err)
	require.Equal(t, []string{"stripe", "adyen"}, resp.Eligible)
}

func Test_SuccessRate_RotatesIntoAggregates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cl := newClient(t)

	merchant := fmt.Sprintf("it-sr-%d", time.Now().UnixNano())
	cfg := json.RawMessage(`{"min_aggregates_size":1,"max_aggregates_size":5,"default_success_rate":50,` +
		`"current_block_threshold":{"max_total_count":2}}`)

	outcomes := []pbv1.Outcome{
		{Label: "stripe", Success: true}, {Label: "stripe", Success: true},
		{Label: "adyen", Success: false}, {Label: "adyen", Success: false},
	}
	for _, o := range outcomes {
		require.NoError(t, cl.UpdateWindow(ctx, &pbv1.UpdateWindowRequest{
			Algorithm: "success_rate",
			ID:        merchant,
			Params:    "card",
			Config:    cfg,
			Outcomes:  []pbv1.Outcome{o},
		}))
	}

	resp, err := cl.PerformRouting(ctx, &pbv1.PerformRoutingRequest{
		Algorithm: "success_rate",
		ID:        merchant,
		Params:    "card",
		Labels:    []string{"adyen", "stripe"},
		Config:    cfg,
	})
	require.NoError(t, err)
	require.Len(t, resp.Labels, 2)
	require.Equal(t, "stripe", resp.Labels[0].Label)
	require.Equal(t, 100.0, resp.Labels[0].Score)
	require.Equal(t, 0.0, resp.Labels[1].Score)
}

func Test_Contract_FulfilledScoresZero(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cl := newClient(t)

	merchant := fmt.Sprintf("it-cr-%d", time.Now().UnixNano())
	target := uint64(time.Now().Add(24 * time.Hour).Unix())
	require.NoError(t, cl.UpdateWindow(ctx, &pbv1.UpdateWindowRequest{
		Algorithm: "contract_routing",
		ID:        merchant,
		Contracts: []pbv1.Contract{
			{Label: "stripe", TargetCount: 10, TargetTime: target, CurrentCount: 10},
			{Label: "adyen", TargetCount: 1000, TargetTime: target, CurrentCount: 1},
		},
	}))

	resp, err := cl.PerformRouting(ctx, &pbv1.PerformRoutingRequest{
		Algorithm: "contract_routing",
		ID:        merchant,
		Labels:    []string{"stripe", "adyen"},
	})
	require.NoError(t, err)
	require.Equal(t, "adyen", resp.Labels[0].Label)
	require.Equal(t, 0.0, resp.Labels[1].Score)
}

func must(ctx context.Context, name string, args ...string) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(fmt.Errorf("command failed: %s %v: %w", name, args, err))
	}
}

func mustWaitTCP(ctx context.Context, address string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		d := net.Dialer{Timeout: 500 * time.Millisecond}
		c, err := d.DialContext(ctx, "tcp", address)
		if err == nil {
			_ = c.Close()
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	panic("timeout waiting for tcp " + address)
}

func mustWaitReady(addr string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

		c, err := routingclient.New(addr, routingclient.Credentials{})
		if err == nil {
			_, err = c.InvalidateMetrics(ctx, "", "", "readiness-probe")

			c.Close()
			cancel()

			// Сервер отвечает и достучался до Redis
			if err == nil {
				return
			}
		} else {
			cancel()
		}

		time.Sleep(400 * time.Millisecond)
	}

	panic("timeout waiting for dynamic routing grpc ready " + addr)
}
