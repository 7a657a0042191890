// Package main はロスターファイルに対して稼働状況の集計と割り当て検証を行う CLI です。
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/adapters/roster"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	rosterPath string
	date       string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "capacityctl",
		Short: "Engineer capacity reports over a YAML roster",
		Long: `capacityctl reads a roster file (engineers, projects and assignments)
and reports utilisation or checks a proposed assignment without a database.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.rosterPath, "roster", "r", "roster.yaml", "path to the roster YAML file")
	root.PersistentFlags().StringVar(&opts.date, "date", "", "evaluation date (YYYY-MM-DD, defaults to today)")

	root.AddCommand(newReportCmd(opts), newCapacityCmd(opts), newValidateCmd(opts))
	return root
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// service はロスターを読み込み、評価日を固定した割り当てサービスを返します。
func (o *globalOptions) service() (*assignment.Service, time.Time, error) {
	at := time.Now().UTC()
	if raw := strings.TrimSpace(o.date); raw != "" {
		t, err := time.Parse(roster.DateLayout, raw)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		at = t
	}

	r, err := roster.Load(o.rosterPath)
	if err != nil {
		return nil, time.Time{}, err
	}

	return assignment.NewService(r.Assignments, r.Engineers, r.Projects, fixedClock(at), nil, nil), at, nil
}
