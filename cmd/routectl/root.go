package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routingclient"
	"github.com/spf13/cobra"
)

type ctxKey string

const clientKey ctxKey = "routingclient"

var (
	addr  string
	creds routingclient.Credentials
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "routectl",
		Short:        "Dynamic routing admin CLI",
		SilenceUsage: true,
		Example: `	routectl --addr 127.0.0.1:50051 route --algorithm success_rate --id merchant-1 --params card --label stripe --label adyen
	routectl feedback elimination --id merchant-1 --params card --report stripe:timeout
	routectl config set --merchant merchant-1 --algorithm contract_routing --config @contract.json
	routectl invalidate --id merchant-1`,
		// Создаём клиента и кладём его в context перед выполнением любой команды
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			c, err := routingclient.New(addr, creds)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), clientKey, c))
			return nil
		},

		// Закрываем клиента после выполнения любой команды
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c, ok := cmd.Context().Value(clientKey).(*routingclient.Client); ok && c != nil {
				return c.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(
		&addr,
		"addr",
		getenv("ROUTECTL_ADDR", "127.0.0.1:50051"),
		"gRPC address (or ROUTECTL_ADDR)",
	)
	root.PersistentFlags().StringVar(
		&creds.APIKey,
		"api-key",
		os.Getenv("ROUTECTL_API_KEY"),
		"API key, required when the server has auth enabled (or ROUTECTL_API_KEY)",
	)
	root.PersistentFlags().StringVar(
		&creds.TenantID,
		"auth-tenant",
		os.Getenv("ROUTECTL_TENANT"),
		"tenant the API key belongs to (or ROUTECTL_TENANT)",
	)

	root.AddCommand(newRouteCmd())
	root.AddCommand(newFeedbackCmd())
	root.AddCommand(newInvalidateCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func getClient(cmd *cobra.Command) *routingclient.Client {
	c, _ := cmd.Context().Value(clientKey).(*routingclient.Client)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// readConfig принимает JSON как есть или "@path" для чтения из файла.
func readConfig(s string) (json.RawMessage, error) {
	if s == "" {
		return nil, nil
	}
	raw := []byte(s)
	if path, ok := strings.CutPrefix(s, "@"); ok {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("config is not valid JSON")
	}
	return raw, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
