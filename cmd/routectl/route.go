package main

import (
	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"github.com/spf13/cobra"
)

func newRouteCmd() *cobra.Command {
	var (
		subj         subjectFlags
		labels       []string
		globalLabels []string
	)

	c := &cobra.Command{
		Use:   "route",
		Short: "Rank labels with a routing algorithm",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(subj.config)
			if err != nil {
				return err
			}
			resp, err := getClient(cmd).PerformRouting(cmd.Context(), &pbv1.PerformRoutingRequest{
				Algorithm:    subj.algorithm,
				TenantID:     subj.tenantID,
				ProfileID:    subj.profileID,
				ID:           subj.id,
				Params:       subj.params,
				Labels:       labels,
				GlobalLabels: globalLabels,
				Config:       cfg,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	subj.bind(c, true)
	c.Flags().StringArrayVar(&labels, "label", nil, "Label to rank (repeatable)")
	c.Flags().StringArrayVar(&globalLabels, "global-label", nil, "Label to rank on global level, success_rate only")
	_ = c.MarkFlagRequired("label")
	return c
}
