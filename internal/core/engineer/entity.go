package engineer

import (
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

// Engineer はエンジニアエンティティです。
type Engineer struct {
	ID          string
	Name        string
	Email       string
	Skills      []string
	MaxCapacity int
	Seniority   allocation.Seniority
	Department  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToAllocation は割り当てエンジンへ渡す読み取り専用の値へ変換します。
func (e *Engineer) ToAllocation() allocation.Engineer {
	skills := make([]string, len(e.Skills))
	copy(skills, e.Skills)
	return allocation.Engineer{
		ID:          e.ID,
		Name:        e.Name,
		Email:       e.Email,
		Skills:      skills,
		MaxCapacity: e.MaxCapacity,
		Seniority:   e.Seniority,
		Department:  e.Department,
	}
}
