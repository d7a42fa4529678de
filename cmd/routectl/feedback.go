package main

import (
	"fmt"
	"strconv"
	"strings"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/spf13/cobra"
)

// feedbackSpec описывает подкоманду feedback для одного алгоритма.
type feedbackSpec struct {
	name      string
	algorithm domain.Algorithm
	flag      string
	usage     string
	fill      func(req *pbv1.UpdateWindowRequest, values []string) error
}

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Report routing outcomes",
	}

	cmd.AddCommand(
		newFeedbackAlgorithmCmd(feedbackSpec{
			name:      "success-rate",
			algorithm: domain.SuccessRate,
			flag:      "outcome",
			usage:     "label=ok|fail (repeatable); prefix with global: for global level",
			fill:      fillOutcomes,
		}),
		newFeedbackAlgorithmCmd(feedbackSpec{
			name:      "elimination",
			algorithm: domain.Elimination,
			flag:      "report",
			usage:     "label[:bucket] (repeatable)",
			fill:      fillReports,
		}),
		newFeedbackAlgorithmCmd(feedbackSpec{
			name:      "contract",
			algorithm: domain.ContractRouting,
			flag:      "contract",
			usage:     "label:target_count:target_time:current_count (repeatable)",
			fill:      fillContracts,
		}),
	)

	return cmd
}

func newFeedbackAlgorithmCmd(spec feedbackSpec) *cobra.Command {
	var (
		subj   subjectFlags
		values []string
	)

	c := &cobra.Command{
		Use:   spec.name,
		Short: "Report " + string(spec.algorithm) + " feedback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(subj.config)
			if err != nil {
				return err
			}
			req := &pbv1.UpdateWindowRequest{
				Algorithm: string(spec.algorithm),
				TenantID:  subj.tenantID,
				ProfileID: subj.profileID,
				ID:        subj.id,
				Params:    subj.params,
				Config:    cfg,
			}
			if err := spec.fill(req, values); err != nil {
				return err
			}
			if err := getClient(cmd).UpdateWindow(cmd.Context(), req); err != nil {
				return err
			}
			cmd.Println("Feedback accepted")
			return nil
		},
	}

	subj.bind(c, false)
	c.Flags().StringArrayVar(&values, spec.flag, nil, spec.usage)
	_ = c.MarkFlagRequired(spec.flag)
	return c
}

func fillOutcomes(req *pbv1.UpdateWindowRequest, values []string) error {
	for _, v := range values {
		global := false
		if rest, ok := strings.CutPrefix(v, "global:"); ok {
			global, v = true, rest
		}
		label, result, ok := strings.Cut(v, "=")
		if !ok || label == "" {
			return fmt.Errorf("invalid outcome %q, want label=ok|fail", v)
		}
		var success bool
		switch result {
		case "ok", "true":
			success = true
		case "fail", "false":
		default:
			return fmt.Errorf("invalid outcome result %q, want ok or fail", result)
		}
		o := pbv1.Outcome{Label: label, Success: success}
		if global {
			req.GlobalOutcomes = append(req.GlobalOutcomes, o)
		} else {
			req.Outcomes = append(req.Outcomes, o)
		}
	}
	return nil
}

func fillReports(req *pbv1.UpdateWindowRequest, values []string) error {
	for _, v := range values {
		label, bucket, _ := strings.Cut(v, ":")
		if label == "" {
			return fmt.Errorf("invalid report %q, want label[:bucket]", v)
		}
		req.Reports = append(req.Reports, pbv1.BucketReport{Label: label, BucketName: bucket})
	}
	return nil
}

func fillContracts(req *pbv1.UpdateWindowRequest, values []string) error {
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 4 || parts[0] == "" {
			return fmt.Errorf("invalid contract %q, want label:target_count:target_time:current_count", v)
		}
		nums := make([]uint64, 3)
		for i, p := range parts[1:] {
			n, err := strconv.ParseUint(p, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid contract %q: %w", v, err)
			}
			nums[i] = n
		}
		req.Contracts = append(req.Contracts, pbv1.Contract{
			Label:        parts[0],
			TargetCount:  nums[0],
			TargetTime:   nums[1],
			CurrentCount: nums[2],
		})
	}
	return nil
}
