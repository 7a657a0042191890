package assignment

import (
	"context"

	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
)

// Repository は割り当て永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, assignment *Assignment) (*Assignment, error)
	ListByEngineer(ctx context.Context, engineerID string) ([]*Assignment, error)
	ListByEngineers(ctx context.Context, engineerIDs []string) (map[string][]*Assignment, error)
}

// EngineerReader は割り当て判定に必要なエンジニア参照です。
type EngineerReader interface {
	FindByID(ctx context.Context, id string) (*engineer.Engineer, error)
	List(ctx context.Context, filter engineer.ListEngineersFilter) ([]*engineer.Engineer, string, error)
}

// ProjectReader は割り当て判定に必要なプロジェクト参照です。
type ProjectReader interface {
	FindByID(ctx context.Context, id string) (*project.Project, error)
}
