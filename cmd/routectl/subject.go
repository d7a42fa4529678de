package main

import "github.com/spf13/cobra"

// subjectFlags - общие флаги адресации состояния: кто, с какими параметрами и каким алгоритмом.
type subjectFlags struct {
	algorithm string
	tenantID  string
	profileID string
	id        string
	params    string
	config    string
}

func (f *subjectFlags) bind(c *cobra.Command, withAlgorithm bool) {
	if withAlgorithm {
		c.Flags().StringVar(&f.algorithm, "algorithm", "", "success_rate|elimination|contract_routing")
		_ = c.MarkFlagRequired("algorithm")
	}
	c.Flags().StringVar(&f.tenantID, "tenant", "", "Tenant id (multi-tenant deployments)")
	c.Flags().StringVar(&f.profileID, "profile", "", "Profile id used to look up stored config")
	c.Flags().StringVar(&f.id, "id", "", "Entity (merchant) id")
	c.Flags().StringVar(&f.params, "params", "", "Routing parameters, e.g. card:visa")
	c.Flags().StringVar(&f.config, "config", "", "Inline config JSON or @file")
	_ = c.MarkFlagRequired("id")
}
