package handler

import (
	"context"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// EngineerGrpcHandler は EngineerService の gRPC 実装です。
type EngineerGrpcHandler struct {
	svc      engineer.UseCase
	sessions session.Provider
}

var _ EngineerServiceServer = (*EngineerGrpcHandler)(nil)

// NewEngineerGrpcHandler は EngineerGrpcHandler を生成します。
func NewEngineerGrpcHandler(svc engineer.UseCase, sessions session.Provider) *EngineerGrpcHandler {
	if sessions == nil {
		sessions = session.ContextProvider{}
	}
	return &EngineerGrpcHandler{svc: svc, sessions: sessions}
}

// CreateEngineer はエンジニアを登録します。マネージャーのみ実行できます。
func (h *EngineerGrpcHandler) CreateEngineer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
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
	email, err := stringField(req, "email")
	if err != nil {
		return nil, err
	}
	skills, err := stringListField(req, "skills")
	if err != nil {
		return nil, err
	}
	maxCapacity, err := optionalIntField(req, "maxCapacity")
	if err != nil {
		return nil, err
	}
	seniority, err := stringField(req, "seniority")
	if err != nil {
		return nil, err
	}
	department, err := stringField(req, "department")
	if err != nil {
		return nil, err
	}

	created, err := h.svc.CreateEngineer(ctx, engineer.CreateEngineerInput{
		Name:        name,
		Email:       email,
		Skills:      skills,
		MaxCapacity: maxCapacity,
		Seniority:   allocation.Seniority(seniority),
		Department:  department,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"engineer": engineerFields(created)})
}

// GetEngineer はエンジニアを取得します。エンジニアは本人のみ参照できます。
func (h *EngineerGrpcHandler) GetEngineer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := stringField(req, "id")
	if err != nil {
		return nil, err
	}
	if err := authorizeEngineer(ctx, h.sessions, id); err != nil {
		return nil, err
	}

	found, err := h.svc.GetEngineer(ctx, engineer.GetEngineerInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"engineer": engineerFields(found)})
}

// ListEngineers はエンジニア一覧を取得します。マネージャーのみ実行できます。
func (h *EngineerGrpcHandler) ListEngineers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
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
	pageSize, err := intField(req, "pageSize")
	if err != nil {
		return nil, err
	}
	pageToken, err := stringField(req, "pageToken")
	if err != nil {
		return nil, err
	}

	result, err := h.svc.ListEngineers(ctx, engineer.ListEngineersInput{
		Skill:     skill,
		Search:    search,
		PageSize:  pageSize,
		PageToken: pageToken,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	items := make([]any, 0, len(result.Engineers))
	for _, e := range result.Engineers {
		items = append(items, engineerFields(e))
	}

	return toStruct(map[string]any{
		"engineers":     items,
		"nextPageToken": result.NextPageToken,
	})
}

// UpdateEngineer はプロフィールを更新します。
// エンジニア本人は自身のプロフィールを更新できますが、最大稼働率の変更はマネージャーのみです。
func (h *EngineerGrpcHandler) UpdateEngineer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := stringField(req, "id")
	if err != nil {
		return nil, err
	}

	u, err := h.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	if !session.CanViewEngineer(u, id) {
		return nil, toStatusError(session.ErrForbidden)
	}

	in := engineer.UpdateEngineerInput{ID: id}
	if in.Name, err = optionalStringField(req, "name"); err != nil {
		return nil, err
	}
	if in.Skills, err = optionalStringListField(req, "skills"); err != nil {
		return nil, err
	}
	if in.MaxCapacity, err = optionalIntField(req, "maxCapacity"); err != nil {
		return nil, err
	}
	if in.Department, err = optionalStringField(req, "department"); err != nil {
		return nil, err
	}
	seniority, err := optionalStringField(req, "seniority")
	if err != nil {
		return nil, err
	}
	if seniority != nil {
		value := allocation.Seniority(*seniority)
		in.Seniority = &value
	}

	if in.MaxCapacity != nil && u.Role != session.RoleManager {
		return nil, toStatusError(session.ErrForbidden)
	}

	updated, err := h.svc.UpdateEngineer(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"engineer": engineerFields(updated)})
}

func authorizeEngineer(ctx context.Context, sessions session.Provider, engineerID string) error {
	u, err := sessions.CurrentUser(ctx)
	if err != nil {
		return toStatusError(err)
	}
	if !session.CanViewEngineer(u, engineerID) {
		return toStatusError(session.ErrForbidden)
	}
	return nil
}

func engineerFields(e *engineer.Engineer) map[string]any {
	if e == nil {
		return nil
	}
	return map[string]any{
		"id":          e.ID,
		"name":        e.Name,
		"email":       e.Email,
		"skills":      stringsToValues(e.Skills),
		"maxCapacity": e.MaxCapacity,
		"seniority":   string(e.Seniority),
		"department":  e.Department,
		"createdAt":   formatTimestamp(e.CreatedAt),
		"updatedAt":   formatTimestamp(e.UpdatedAt),
	}
}
