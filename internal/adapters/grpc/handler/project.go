package handler

import (
	"context"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProjectGrpcHandler は ProjectService の gRPC 実装です。
type ProjectGrpcHandler struct {
	svc      project.UseCase
	sessions session.Provider
}

var _ ProjectServiceServer = (*ProjectGrpcHandler)(nil)

// NewProjectGrpcHandler は ProjectGrpcHandler を生成します。
func NewProjectGrpcHandler(svc project.UseCase, sessions session.Provider) *ProjectGrpcHandler {
	if sessions == nil {
		sessions = session.ContextProvider{}
	}
	return &ProjectGrpcHandler{svc: svc, sessions: sessions}
}

// CreateProject はプロジェクトを作成します。マネージャーのみ実行できます。
func (h *ProjectGrpcHandler) CreateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := session.RequireRole(ctx, h.sessions, session.RoleManager); err != nil {
		return nil, toStatusError(err)
	}

	name, err := stringField(req, "name")
	if err != nil {
		return nil, err
	}
	description, err := stringField(req, "description")
	if err != nil {
		return nil, err
	}
	skills, err := stringListField(req, "requiredSkills")
	if err != nil {
		return nil, err
	}
	teamSize, err := optionalIntField(req, "teamSize")
	if err != nil {
		return nil, err
	}
	rawStatus, err := optionalStringField(req, "status")
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

	var statusPtr *allocation.ProjectStatus
	if rawStatus != nil && *rawStatus != "" {
		s := allocation.ProjectStatus(*rawStatus)
		statusPtr = &s
	}

	created, err := h.svc.CreateProject(ctx, project.CreateProjectInput{
		Name:           name,
		Description:    description,
		RequiredSkills: skills,
		TeamSize:       teamSize,
		Status:         statusPtr,
		StartDate:      start,
		EndDate:        end,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"project": projectFields(created)})
}

// GetProject はプロジェクトを取得します。
func (h *ProjectGrpcHandler) GetProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := h.sessions.CurrentUser(ctx); err != nil {
		return nil, toStatusError(err)
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, err
	}

	found, err := h.svc.GetProject(ctx, project.GetProjectInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"project": projectFields(found)})
}

// ListProjects はプロジェクト一覧を取得します。
func (h *ProjectGrpcHandler) ListProjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := h.sessions.CurrentUser(ctx); err != nil {
		return nil, toStatusError(err)
	}

	rawStatus, err := stringField(req, "status")
	if err != nil {
		return nil, err
	}
	pageSize, err := intField(req, "pageSize")
	if err != nil {
		return nil, err
	}
	pageToken, err := stringField(req, "pageToken")
	if err != nil {
		return nil, err
	}

	var statusPtr *allocation.ProjectStatus
	if rawStatus != "" {
		s := allocation.ProjectStatus(rawStatus)
		statusPtr = &s
	}

	result, err := h.svc.ListProjects(ctx, project.ListProjectsInput{
		Status:    statusPtr,
		PageSize:  pageSize,
		PageToken: pageToken,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	items := make([]any, 0, len(result.Projects))
	for _, p := range result.Projects {
		items = append(items, projectFields(p))
	}

	return toStruct(map[string]any{
		"projects":      items,
		"nextPageToken": result.NextPageToken,
	})
}

// UpdateProjectStatus はプロジェクトのステータスを変更します。マネージャーのみ実行できます。
func (h *ProjectGrpcHandler) UpdateProjectStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if _, err := session.RequireRole(ctx, h.sessions, session.RoleManager); err != nil {
		return nil, toStatusError(err)
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, err
	}
	rawStatus, err := stringField(req, "status")
	if err != nil {
		return nil, err
	}

	updated, err := h.svc.UpdateProjectStatus(ctx, project.UpdateProjectStatusInput{
		ID:     id,
		Status: allocation.ProjectStatus(rawStatus),
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"project": projectFields(updated)})
}

func projectFields(p *project.Project) map[string]any {
	if p == nil {
		return nil
	}
	var teamSize any
	if p.TeamSize != nil {
		teamSize = *p.TeamSize
	}
	return map[string]any{
		"id":             p.ID,
		"name":           p.Name,
		"description":    p.Description,
		"requiredSkills": stringsToValues(p.RequiredSkills),
		"teamSize":       teamSize,
		"status":         string(p.Status),
		"startDate":      formatDate(p.StartDate),
		"endDate":        formatDate(p.EndDate),
		"createdAt":      formatTimestamp(p.CreatedAt),
		"updatedAt":      formatTimestamp(p.UpdatedAt),
	}
}
