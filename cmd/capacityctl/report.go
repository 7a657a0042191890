package main

import (
	"fmt"

	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/spf13/cobra"
)

func newReportCmd(opts *globalOptions) *cobra.Command {
	var skill, search string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show utilisation for every engineer in the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, at, err := opts.service()
			if err != nil {
				return err
			}

			reports, err := svc.GetTeamOverview(cmd.Context(), assignment.TeamOverviewInput{Skill: skill, Search: search})
			if err != nil {
				return fmt.Errorf("build team overview: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Team utilisation as of %s\n\n", at.Format("2006-01-02"))
			if len(reports) == 0 {
				fmt.Fprintln(out, "no engineers matched")
				return nil
			}
			newTableRenderer(out).teamTable(reports)
			return nil
		},
	}
	cmd.Flags().StringVar(&skill, "skill", "", "only engineers with this skill (case-insensitive)")
	cmd.Flags().StringVar(&search, "search", "", "substring match on name, email or department")
	return cmd
}

func newCapacityCmd(opts *globalOptions) *cobra.Command {
	var engineerID string

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Show the active assignments and remaining capacity of one engineer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.service()
			if err != nil {
				return err
			}

			report, err := svc.GetEngineerCapacity(cmd.Context(), assignment.GetEngineerCapacityInput{EngineerID: engineerID})
			if err != nil {
				return err
			}
			newTableRenderer(cmd.OutOrStdout()).capacityDetail(report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&engineerID, "engineer", "e", "", "engineer id")
	_ = cmd.MarkFlagRequired("engineer")
	return cmd
}
