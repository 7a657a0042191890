package handler

import (
	"context"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AssignmentGrpcHandler は AssignmentService の gRPC 実装です。
type AssignmentGrpcHandler struct {
	svc      assignment.UseCase
	sessions session.Provider
}

var _ AssignmentServiceServer = (*AssignmentGrpcHandler)(nil)

// NewAssignmentGrpcHandler は AssignmentGrpcHandler を生成します。
func NewAssignmentGrpcHandler(svc assignment.UseCase, sessions session.Provider) *AssignmentGrpcHandler {
	if sessions == nil {
		sessions = session.ContextProvider{}
	}
	return &AssignmentGrpcHandler{svc: svc, sessions: sessions}
}

// CreateAssignment は割り当てを検証して作成します。マネージャーのみ実行できます。
// 検証で却下された場合は FailedPrecondition を返します。
func (h *AssignmentGrpcHandler) CreateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := session.RequireRole(ctx, h.sessions, session.RoleManager); err != nil {
		return nil, toStatusError(err)
	}

	engineerID, err := stringField(req, "engineerId")
	if err != nil {
		return nil, err
	}
	projectID, err := stringField(req, "projectId")
	if err != nil {
		return nil, err
	}
	pct, err := intField(req, "allocationPercentage")
	if err != nil {
		return nil, err
	}
	role, err := stringField(req, "role")
	if err != nil {
		return nil, err
	}
	start, err := dateField(req, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := dateField(req, "endDate")
	if err != nil {
		return nil, err
	}

	created, err := h.svc.CreateAssignment(ctx, assignment.CreateAssignmentInput{
		EngineerID:           engineerID,
		ProjectID:            projectID,
		AllocationPercentage: pct,
		Role:                 role,
		StartDate:            start,
		EndDate:              end,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"assignment": assignmentFields(created)})
}

// ValidateAssignment は書き込みを行わずに割り当て提案を検証します。
func (h *AssignmentGrpcHandler) ValidateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := session.RequireRole(ctx, h.sessions, session.RoleManager); err != nil {
		return nil, toStatusError(err)
	}

	engineerID, err := stringField(req, "engineerId")
	if err != nil {
		return nil, err
	}
	projectID, err := stringField(req, "projectId")
	if err != nil {
		return nil, err
	}
	pct, err := intField(req, "allocationPercentage")
	if err != nil {
		return nil, err
	}
	evaluationDate, err := dateField(req, "evaluationDate")
	if err != nil {
		return nil, err
	}

	report, err := h.svc.ValidateAssignment(ctx, assignment.ValidateAssignmentInput{
		EngineerID:           engineerID,
		ProjectID:            projectID,
		AllocationPercentage: pct,
		EvaluationDate:       evaluationDate,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	errs := make(map[string]any, len(report.Result))
	for field, msg := range report.Result {
		errs[string(field)] = msg
	}

	return toStruct(map[string]any{
		"valid":       report.Result.Valid(),
		"errors":      errs,
		"capacity":    capacityFields(report.Capacity),
		"evaluatedAt": formatTimestamp(report.EvaluatedAt),
	})
}

// ListAssignments はエンジニアの割り当て一覧を返します。エンジニアは本人分のみ参照できます。
func (h *AssignmentGrpcHandler) ListAssignments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	engineerID, err := stringField(req, "engineerId")
	if err != nil {
		return nil, err
	}
	if err := authorizeEngineer(ctx, h.sessions, engineerID); err != nil {
		return nil, err
	}

	items, err := h.svc.ListAssignments(ctx, assignment.ListAssignmentsInput{EngineerID: engineerID})
	if err != nil {
		return nil, toStatusError(err)
	}

	out := make([]any, 0, len(items))
	for _, a := range items {
		out = append(out, assignmentFields(a))
	}
	return toStruct(map[string]any{"assignments": out})
}

// GetEngineerCapacity はエンジニアの稼働状況を返します。エンジニアは本人分のみ参照できます。
func (h *AssignmentGrpcHandler) GetEngineerCapacity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	engineerID, err := stringField(req, "engineerId")
	if err != nil {
		return nil, err
	}
	if err := authorizeEngineer(ctx, h.sessions, engineerID); err != nil {
		return nil, err
	}

	report, err := h.svc.GetEngineerCapacity(ctx, assignment.GetEngineerCapacityInput{EngineerID: engineerID})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(capacityReportFields(report))
}

// GetTeamOverview はチーム全体の稼働状況を返します。マネージャーのみ実行できます。
func (h *AssignmentGrpcHandler) GetTeamOverview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := session.RequireRole(ctx, h.sessions, session.RoleManager); err != nil {
		return nil, toStatusError(err)
	}

	skill, err := stringField(req, "skill")
	if err != nil {
		return nil, err
	}
	search, err := stringField(req, "search")
	if err != nil {
		return nil, err
	}

	reports, err := h.svc.GetTeamOverview(ctx, assignment.TeamOverviewInput{Skill: skill, Search: search})
	if err != nil {
		return nil, toStatusError(err)
	}

	rows := make([]any, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, capacityReportFields(r))
	}
	return toStruct(map[string]any{"engineers": rows})
}

func assignmentFields(a *assignment.Assignment) map[string]any {
	if a == nil {
		return nil
	}
	out := map[string]any{
		"id":                   a.ID,
		"engineerId":           a.EngineerID,
		"projectId":            a.ProjectID,
		"allocationPercentage": a.AllocationPercentage,
		"role":                 a.Role,
		"startDate":            formatDate(a.StartDate),
		"endDate":              formatDate(a.EndDate),
		"createdAt":            formatTimestamp(a.CreatedAt),
		"updatedAt":            formatTimestamp(a.UpdatedAt),
	}
	if a.Project != nil {
		out["project"] = map[string]any{
			"id":     a.Project.ID,
			"name":   a.Project.Name,
			"status": string(a.Project.Status),
		}
	}
	return out
}

func capacityFields(info allocation.CapacityInfo) map[string]any {
	active := make([]any, 0, len(info.ActiveAssignments))
	for _, a := range info.ActiveAssignments {
		active = append(active, map[string]any{
			"id":                   a.ID,
			"projectId":            a.ProjectID,
			"allocationPercentage": a.AllocationPercentage,
			"role":                 a.Role,
			"startDate":            formatDate(a.StartDate),
			"endDate":              formatDate(a.EndDate),
		})
	}
	return map[string]any{
		"usedCapacity":      info.UsedCapacity,
		"availableCapacity": info.AvailableCapacity,
		"activeAssignments": active,
	}
}

func capacityReportFields(r *assignment.CapacityReport) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return map[string]any{
		"engineer":           engineerFields(r.Engineer),
		"capacity":           capacityFields(r.Capacity),
		"utilizationPercent": r.UtilizationPercent,
		"band":               string(r.Band),
		"evaluatedAt":        formatTimestamp(r.EvaluatedAt),
	}
}
