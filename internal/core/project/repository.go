package project

import (
	"context"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

// Repository はプロジェクト永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	Update(ctx context.Context, project *Project) (*Project, error)
	FindByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, filter ListProjectsFilter) ([]*Project, string, error)
}

// ListProjectsFilter は一覧取得用フィルタです。
type ListProjectsFilter struct {
	Status *allocation.ProjectStatus
	Limit  int
	Offset int
}
