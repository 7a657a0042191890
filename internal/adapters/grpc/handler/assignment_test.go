package handler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubAssignmentUseCase struct {
	createInput assignment.CreateAssignmentInput
	createOut   *assignment.Assignment
	createErr   error

	validateInput assignment.ValidateAssignmentInput
	validateOut   *assignment.ValidationReport
	validateErr   error

	listOut []*assignment.Assignment

	capacityOut *assignment.CapacityReport

	overviewInput assignment.TeamOverviewInput
	overviewOut   []*assignment.CapacityReport
}

func (s *stubAssignmentUseCase) CreateAssignment(ctx context.Context, in assignment.CreateAssignmentInput) (*assignment.Assignment, error) {
	s.createInput = in
	return s.createOut, s.createErr
}

func (s *stubAssignmentUseCase) ValidateAssignment(ctx context.Context, in assignment.ValidateAssignmentInput) (*assignment.ValidationReport, error) {
	s.validateInput = in
	return s.validateOut, s.validateErr
}

func (s *stubAssignmentUseCase) ListAssignments(ctx context.Context, in assignment.ListAssignmentsInput) ([]*assignment.Assignment, error) {
	return s.listOut, nil
}

func (s *stubAssignmentUseCase) GetEngineerCapacity(ctx context.Context, in assignment.GetEngineerCapacityInput) (*assignment.CapacityReport, error) {
	return s.capacityOut, nil
}

func (s *stubAssignmentUseCase) GetTeamOverview(ctx context.Context, in assignment.TeamOverviewInput) ([]*assignment.CapacityReport, error) {
	s.overviewInput = in
	return s.overviewOut, nil
}

func TestAssignmentGrpcHandler_CreateAssignment(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubAssignmentUseCase{createOut: &assignment.Assignment{
		ID:                   "asg-1",
		EngineerID:           "eng-1",
		ProjectID:            "proj-1",
		AllocationPercentage: 40,
		StartDate:            &now,
		CreatedAt:            now,
		UpdatedAt:            now,
		Project:              &assignment.ProjectSnapshot{ID: "proj-1", Name: "Cloud", Status: allocation.ProjectStatusActive},
	}}
	h := NewAssignmentGrpcHandler(stub, nil)

	resp, err := h.CreateAssignment(managerCtx(), mustStruct(t, map[string]any{
		"engineerId":           "eng-1",
		"projectId":            "proj-1",
		"allocationPercentage": 40,
		"startDate":            "2025-04-01",
	}))
	if err != nil {
		t.Fatalf("CreateAssignment returned error: %v", err)
	}
	if stub.createInput.AllocationPercentage != 40 || stub.createInput.StartDate == nil {
		t.Fatalf("unexpected input %+v", stub.createInput)
	}

	got := resp.GetFields()["assignment"].GetStructValue().GetFields()
	if got["project"].GetStructValue().GetFields()["name"].GetStringValue() != "Cloud" {
		t.Fatalf("expected project snapshot, got %v", got["project"])
	}
}

func TestAssignmentGrpcHandler_CreateAssignment_ValidationFailed(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{createErr: &assignment.ValidationFailedError{Result: allocation.ValidationResult{
		allocation.FieldAllocationPercentage: allocation.CapacityExceededMessage(40),
	}}}
	h := NewAssignmentGrpcHandler(stub, nil)

	_, err := h.CreateAssignment(managerCtx(), mustStruct(t, map[string]any{
		"engineerId":           "eng-1",
		"projectId":            "proj-1",
		"allocationPercentage": 41,
	}))
	assertCode(t, err, codes.FailedPrecondition)
	if msg := status.Convert(err).Message(); !strings.Contains(msg, "allocationPercentage: Allocation exceeds available capacity (40%)") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAssignmentGrpcHandler_CreateAssignment_RequiresManager(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{}
	h := NewAssignmentGrpcHandler(stub, nil)

	_, err := h.CreateAssignment(engineerCtx("eng-1"), mustStruct(t, map[string]any{"engineerId": "eng-1"}))
	assertCode(t, err, codes.PermissionDenied)
}

func TestAssignmentGrpcHandler_ValidateAssignment(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubAssignmentUseCase{validateOut: &assignment.ValidationReport{
		Result: allocation.ValidationResult{
			allocation.FieldEngineerID: "Engineer does not have required skills for this project",
		},
		Capacity: allocation.CapacityInfo{
			UsedCapacity:      60,
			AvailableCapacity: 40,
			ActiveAssignments: []allocation.Assignment{{ID: "a1", ProjectID: "p1", AllocationPercentage: 60}},
		},
		EvaluatedAt: at,
	}}
	h := NewAssignmentGrpcHandler(stub, nil)

	resp, err := h.ValidateAssignment(managerCtx(), mustStruct(t, map[string]any{
		"engineerId":           "eng-1",
		"projectId":            "proj-1",
		"allocationPercentage": 10,
		"evaluationDate":       "2025-06-01",
	}))
	if err != nil {
		t.Fatalf("ValidateAssignment returned error: %v", err)
	}
	if stub.validateInput.EvaluationDate == nil || !stub.validateInput.EvaluationDate.Equal(at) {
		t.Fatalf("expected evaluation date, got %v", stub.validateInput.EvaluationDate)
	}

	fields := resp.GetFields()
	if fields["valid"].GetBoolValue() {
		t.Fatal("expected invalid result")
	}
	if fields["errors"].GetStructValue().GetFields()["engineerId"].GetStringValue() == "" {
		t.Fatalf("expected engineerId error, got %v", fields["errors"])
	}
	capacity := fields["capacity"].GetStructValue().GetFields()
	if capacity["availableCapacity"].GetNumberValue() != 40 || len(capacity["activeAssignments"].GetListValue().GetValues()) != 1 {
		t.Fatalf("unexpected capacity %v", capacity)
	}
}

func TestAssignmentGrpcHandler_ValidateAssignment_InputError(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{validateErr: assignment.ErrInvalidAllocation}
	h := NewAssignmentGrpcHandler(stub, nil)

	_, err := h.ValidateAssignment(managerCtx(), mustStruct(t, map[string]any{"allocationPercentage": -5}))
	assertCode(t, err, codes.InvalidArgument)
}

func TestAssignmentGrpcHandler_GetEngineerCapacity(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{capacityOut: &assignment.CapacityReport{
		Engineer:           sampleEngineer(),
		Capacity:           allocation.CapacityInfo{UsedCapacity: 85, AvailableCapacity: 15, ActiveAssignments: []allocation.Assignment{}},
		UtilizationPercent: 85,
		Band:               allocation.UtilizationHigh,
	}}
	h := NewAssignmentGrpcHandler(stub, nil)

	resp, err := h.GetEngineerCapacity(engineerCtx("eng-1"), mustStruct(t, map[string]any{"engineerId": "eng-1"}))
	if err != nil {
		t.Fatalf("GetEngineerCapacity returned error: %v", err)
	}
	if resp.GetFields()["band"].GetStringValue() != "high" || resp.GetFields()["utilizationPercent"].GetNumberValue() != 85 {
		t.Fatalf("unexpected response %v", resp)
	}

	_, err = h.GetEngineerCapacity(engineerCtx("eng-2"), mustStruct(t, map[string]any{"engineerId": "eng-1"}))
	assertCode(t, err, codes.PermissionDenied)
}

func TestAssignmentGrpcHandler_GetTeamOverview(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{overviewOut: []*assignment.CapacityReport{
		{Engineer: sampleEngineer(), UtilizationPercent: 50, Band: allocation.UtilizationMedium},
	}}
	h := NewAssignmentGrpcHandler(stub, nil)

	resp, err := h.GetTeamOverview(managerCtx(), mustStruct(t, map[string]any{"skill": "react"}))
	if err != nil {
		t.Fatalf("GetTeamOverview returned error: %v", err)
	}
	if stub.overviewInput.Skill != "react" {
		t.Fatalf("unexpected input %+v", stub.overviewInput)
	}
	if len(resp.GetFields()["engineers"].GetListValue().GetValues()) != 1 {
		t.Fatalf("expected one row")
	}

	_, err = h.GetTeamOverview(engineerCtx("eng-1"), mustStruct(t, map[string]any{}))
	assertCode(t, err, codes.PermissionDenied)
}

func TestAssignmentGrpcHandler_ListAssignments(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{listOut: []*assignment.Assignment{{ID: "a1", EngineerID: "eng-1"}}}
	h := NewAssignmentGrpcHandler(stub, nil)

	resp, err := h.ListAssignments(engineerCtx("eng-1"), mustStruct(t, map[string]any{"engineerId": "eng-1"}))
	if err != nil {
		t.Fatalf("ListAssignments returned error: %v", err)
	}
	items := resp.GetFields()["assignments"].GetListValue().GetValues()
	if len(items) != 1 {
		t.Fatalf("expected one assignment, got %d", len(items))
	}
	if _, ok := items[0].GetStructValue().GetFields()["project"]; ok {
		t.Fatal("did not expect project snapshot when none was loaded")
	}
}
