package project

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service はプロジェクトに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase はプロジェクトユースケースの公開インターフェースです。
type UseCase interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error)
	GetProject(ctx context.Context, in GetProjectInput) (*Project, error)
	ListProjects(ctx context.Context, in ListProjectsInput) (*ListProjectsResult, error)
	UpdateProjectStatus(ctx context.Context, in UpdateProjectStatusInput) (*Project, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateProjectInput はプロジェクト作成時の入力です。
type CreateProjectInput struct {
	Name           string
	Description    string
	RequiredSkills []string
	TeamSize       *int
	Status         *allocation.ProjectStatus
	StartDate      *time.Time
	EndDate        *time.Time
}

// GetProjectInput はプロジェクト取得時の入力です。
type GetProjectInput struct {
	ID string
}

// ListProjectsInput は一覧取得時の入力です。
type ListProjectsInput struct {
	Status    *allocation.ProjectStatus
	PageSize  int
	PageToken string
}

// ListProjectsResult は一覧取得結果を表します。
type ListProjectsResult struct {
	Projects      []*Project
	NextPageToken string
}

// UpdateProjectStatusInput はステータス変更時の入力です。
type UpdateProjectStatusInput struct {
	ID     string
	Status allocation.ProjectStatus
}

// CreateProject は新しいプロジェクトを作成します。
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	skills, ok := allocation.NormalizeSkills(in.RequiredSkills)
	if !ok {
		return nil, ErrInvalidSkill
	}

	if in.TeamSize != nil && *in.TeamSize < 1 {
		return nil, ErrInvalidTeamSize
	}

	status := allocation.ProjectStatusPlanning
	if in.Status != nil {
		if !IsValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status = *in.Status
	}

	start := normalizeDate(in.StartDate)
	end := normalizeDate(in.EndDate)
	if err := allocation.ValidateDateRange(start, end); err != nil {
		return nil, ErrInvalidDateRange
	}

	var created *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Project{
			Name:           name,
			Description:    strings.TrimSpace(in.Description),
			RequiredSkills: skills,
			TeamSize:       cloneInt(in.TeamSize),
			Status:         status,
			StartDate:      start,
			EndDate:        end,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetProject はプロジェクトを取得します。
func (s *Service) GetProject(ctx context.Context, in GetProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ListProjects はプロジェクトの一覧を取得します。
func (s *Service) ListProjects(ctx context.Context, in ListProjectsInput) (*ListProjectsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *allocation.ProjectStatus
	if in.Status != nil {
		if !IsValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var (
		projects  []*Project
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, ListProjectsFilter{Status: statusPtr, Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		projects = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListProjectsResult{Projects: projects, NextPageToken: nextToken}, nil
}

// UpdateProjectStatus はプロジェクトのステータスを変更します。
func (s *Service) UpdateProjectStatus(ctx context.Context, in UpdateProjectStatusInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if !IsValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	var updated *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		existing.Status = in.Status
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

// IsValidStatus は既知のステータスであるかを判定します。
func IsValidStatus(status allocation.ProjectStatus) bool {
	switch status {
	case allocation.ProjectStatusPlanning, allocation.ProjectStatusActive, allocation.ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}
	return offset, nil
}
