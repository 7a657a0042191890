package engineer

import "context"

// Repository はエンジニア永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, engineer *Engineer) (*Engineer, error)
	Update(ctx context.Context, engineer *Engineer) (*Engineer, error)
	FindByID(ctx context.Context, id string) (*Engineer, error)
	FindByEmail(ctx context.Context, email string) (*Engineer, error)
	List(ctx context.Context, filter ListEngineersFilter) ([]*Engineer, string, error)
}

// ListEngineersFilter は一覧取得用フィルタです。
// Skill は大文字小文字を区別しない完全一致、Search は氏名・メール・部署の部分一致です。
type ListEngineersFilter struct {
	Skill  string
	Search string
	Limit  int
	Offset int
}
