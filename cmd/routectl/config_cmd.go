package main

import (
	"errors"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored algorithm configs",
	}

	cmd.AddCommand(
		newConfigSetCmd(),
		newConfigGetCmd(),
	)

	return cmd
}

func bindRef(c *cobra.Command, ref *pbv1.ConfigRef) {
	c.Flags().StringVar(&ref.TenantID, "tenant", "", "Tenant id")
	c.Flags().StringVar(&ref.ProfileID, "profile", "", "Profile id")
	c.Flags().StringVar(&ref.MerchantID, "merchant", "", "Merchant id")
	c.Flags().StringVar(&ref.Algorithm, "algorithm", "", "success_rate|elimination|contract_routing")
	_ = c.MarkFlagRequired("merchant")
	_ = c.MarkFlagRequired("algorithm")
}

func newConfigSetCmd() *cobra.Command {
	var (
		ref pbv1.ConfigRef
		raw string
	)

	c := &cobra.Command{
		Use:   "set",
		Short: "Create or replace algorithm config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(raw)
			if err != nil {
				return err
			}
			if cfg == nil {
				return errors.New("config is required")
			}
			if err := getClient(cmd).UpsertConfig(cmd.Context(), ref, cfg); err != nil {
				return err
			}
			cmd.Println("Config saved")
			return nil
		},
	}

	bindRef(c, &ref)
	c.Flags().StringVar(&raw, "config", "", "Config JSON or @file")
	_ = c.MarkFlagRequired("config")
	return c
}

func newConfigGetCmd() *cobra.Command {
	var ref pbv1.ConfigRef

	c := &cobra.Command{
		Use:   "get",
		Short: "Print stored algorithm config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getClient(cmd).GetConfig(cmd.Context(), ref)
			if err != nil {
				return err
			}
			return printJSON(cmd, cfg)
		},
	}

	bindRef(c, &ref)
	return c
}
