package assignment

import (
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
)

// Assignment はエンジニアとプロジェクトの割り当てエンティティです。
type Assignment struct {
	ID                   string
	EngineerID           string
	ProjectID            string
	AllocationPercentage int
	Role                 string
	StartDate            *time.Time
	EndDate              *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Project              *ProjectSnapshot
}

// ProjectSnapshot は割り当てに紐づくプロジェクト情報のスナップショットです。
type ProjectSnapshot struct {
	ID     string
	Name   string
	Status allocation.ProjectStatus
}

// ToAllocation は割り当てエンジンへ渡す値へ変換します。
func (a *Assignment) ToAllocation() allocation.Assignment {
	return allocation.Assignment{
		ID:                   a.ID,
		EngineerID:           a.EngineerID,
		ProjectID:            a.ProjectID,
		AllocationPercentage: a.AllocationPercentage,
		Role:                 a.Role,
		StartDate:            cloneTime(a.StartDate),
		EndDate:              cloneTime(a.EndDate),
	}
}

// ValidationReport は事前検証の結果です。
type ValidationReport struct {
	Result      allocation.ValidationResult
	Capacity    allocation.CapacityInfo
	EvaluatedAt time.Time
}

// CapacityReport はエンジニア 1 名分の稼働状況です。
type CapacityReport struct {
	Engineer           *engineer.Engineer
	Capacity           allocation.CapacityInfo
	UtilizationPercent int
	Band               allocation.UtilizationBand
	EvaluatedAt        time.Time
}

func toAllocationAssignments(items []*Assignment) []allocation.Assignment {
	out := make([]allocation.Assignment, 0, len(items))
	for _, a := range items {
		out = append(out, a.ToAllocation())
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
