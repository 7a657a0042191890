package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--roster", "testdata/team.yaml", "--date", "2025-03-01"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestReport_ListsEveryEngineer(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "report")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}

	for _, want := range []string{"as of 2025-03-01", "Alice Kato", "Bob Ito", "Chika Mori", "90%", "high", "medium", "low"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestReport_FiltersBySkill(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "report", "--skill", "react")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if !strings.Contains(out, "Bob Ito") || strings.Contains(out, "Alice Kato") {
		t.Fatalf("expected only Bob, got:\n%s", out)
	}

	out, err = runCLI(t, "report", "--search", "nobody")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if !strings.Contains(out, "no engineers matched") {
		t.Fatalf("expected empty notice, got:\n%s", out)
	}
}

func TestCapacity_ShowsActiveAssignments(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "capacity", "--engineer", "eng-alice")
	if err != nil {
		t.Fatalf("capacity returned error: %v", err)
	}
	if !strings.Contains(out, "available 40%") || !strings.Contains(out, "proj-api 60% open-ended") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "proj-web") {
		t.Fatalf("ended assignment should not be listed:\n%s", out)
	}
}

func TestValidate_AcceptsRemainingCapacity(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "validate", "-e", "eng-alice", "-p", "proj-api", "-a", "40")
	if err != nil {
		t.Fatalf("validate returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK: 40% can be assigned") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestValidate_ReportsViolations(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "validate", "-e", "eng-alice", "-p", "proj-web", "-a", "41")
	if !errors.Is(err, errProposalRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	for _, want := range []string{
		"allocationPercentage: Allocation exceeds available capacity (40%)",
		"engineerId: Engineer does not have required skills for this project",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestValidate_RequiresFlags(t *testing.T) {
	t.Parallel()

	if _, err := runCLI(t, "validate", "-e", "eng-alice"); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestRoot_RejectsBadDate(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--roster", "testdata/team.yaml", "--date", "03/01/2025", "report"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected date parse error")
	}
}
