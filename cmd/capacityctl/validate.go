package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/spf13/cobra"
)

var errProposalRejected = errors.New("proposed assignment is not valid")

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		engineerID string
		projectID  string
		pct        int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check whether a proposed assignment fits skills and capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, at, err := opts.service()
			if err != nil {
				return err
			}

			report, err := svc.ValidateAssignment(cmd.Context(), assignment.ValidateAssignmentInput{
				EngineerID:           engineerID,
				ProjectID:            projectID,
				AllocationPercentage: pct,
				EvaluationDate:       &at,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "used %d%%, available %d%%\n", report.Capacity.UsedCapacity, report.Capacity.AvailableCapacity)
			if report.Result.Valid() {
				fmt.Fprintf(out, "OK: %d%% can be assigned\n", pct)
				return nil
			}

			fields := make([]string, 0, len(report.Result))
			for f := range report.Result {
				fields = append(fields, string(f))
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(out, "%s: %s\n", f, report.Result[allocation.Field(f)])
			}
			return errProposalRejected
		},
	}
	cmd.Flags().StringVarP(&engineerID, "engineer", "e", "", "engineer id")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id")
	cmd.Flags().IntVarP(&pct, "allocation", "a", 0, "proposed allocation percentage (0-100)")
	_ = cmd.MarkFlagRequired("engineer")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("allocation")
	return cmd
}
