package main

import "github.com/spf13/cobra"

func newInvalidateCmd() *cobra.Command {
	var algorithm, tenantID, id string

	c := &cobra.Command{
		Use:   "invalidate",
		Short: "Delete stored routing state of an entity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := getClient(cmd).InvalidateMetrics(cmd.Context(), algorithm, tenantID, id)
			if err != nil {
				return err
			}
			for _, k := range keys {
				cmd.Println(k)
			}
			cmd.Printf("Deleted %d keys\n", len(keys))
			return nil
		},
	}

	c.Flags().StringVar(&algorithm, "algorithm", "", "Algorithm to invalidate, all when empty")
	c.Flags().StringVar(&tenantID, "tenant", "", "Tenant id")
	c.Flags().StringVar(&id, "id", "", "Entity (merchant) id")
	_ = c.MarkFlagRequired("id")
	return c
}
