package project

import (
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

// Project はプロジェクトエンティティです。
type Project struct {
	ID             string
	Name           string
	Description    string
	RequiredSkills []string
	TeamSize       *int
	Status         allocation.ProjectStatus
	StartDate      *time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ToAllocation は割り当てエンジンへ渡す値へ変換します。
func (p *Project) ToAllocation() allocation.Project {
	skills := make([]string, len(p.RequiredSkills))
	copy(skills, p.RequiredSkills)
	return allocation.Project{
		ID:             p.ID,
		Name:           p.Name,
		RequiredSkills: skills,
		Status:         p.Status,
	}
}
