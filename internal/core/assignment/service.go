package assignment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
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
// WithinEngineerLock は同一エンジニアへの書き込みを直列化した読み書きトランザクションを提供します。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	WithinEngineerLock(ctx context.Context, engineerID string, fn func(context.Context) error) error
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

func (noopTransactionManager) WithinEngineerLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Recorder は検証結果を計測系へ通知します。
type Recorder interface {
	ObserveValidation(result allocation.ValidationResult)
}

type noopRecorder struct{}

func (noopRecorder) ObserveValidation(allocation.ValidationResult) {}

const overviewPageSize = 200

// Service は割り当てに関するユースケースをまとめます。
type Service struct {
	repo      Repository
	engineers EngineerReader
	projects  ProjectReader
	clock     Clock
	tx        TransactionManager
	recorder  Recorder
}

// UseCase は割り当てユースケースの公開インターフェースです。
type UseCase interface {
	CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Assignment, error)
	ValidateAssignment(ctx context.Context, in ValidateAssignmentInput) (*ValidationReport, error)
	ListAssignments(ctx context.Context, in ListAssignmentsInput) ([]*Assignment, error)
	GetEngineerCapacity(ctx context.Context, in GetEngineerCapacityInput) (*CapacityReport, error)
	GetTeamOverview(ctx context.Context, in TeamOverviewInput) ([]*CapacityReport, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, engineers EngineerReader, projects ProjectReader, clock Clock, tx TransactionManager, recorder Recorder) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{repo: repo, engineers: engineers, projects: projects, clock: clock, tx: tx, recorder: recorder}
}

// CreateAssignmentInput は割り当て作成時の入力です。
type CreateAssignmentInput struct {
	EngineerID           string
	ProjectID            string
	AllocationPercentage int
	Role                 string
	StartDate            *time.Time
	EndDate              *time.Time
}

// ValidateAssignmentInput は事前検証の入力です。EvaluationDate 未指定時は現在日時で評価します。
type ValidateAssignmentInput struct {
	EngineerID           string
	ProjectID            string
	AllocationPercentage int
	EvaluationDate       *time.Time
}

// ListAssignmentsInput は一覧取得時の入力です。
type ListAssignmentsInput struct {
	EngineerID string
}

// GetEngineerCapacityInput は稼働状況取得時の入力です。
type GetEngineerCapacityInput struct {
	EngineerID string
}

// TeamOverviewInput はチーム稼働一覧の入力です。
type TeamOverviewInput struct {
	Skill  string
	Search string
}

type proposal struct {
	engineerID string
	projectID  string
	allocation int
}

// CreateAssignment は割り当てを検証した上で作成します。
//
// 検証と書き込みはエンジニア単位のロックを保持したトランザクション内で行い、
// 同時に作成された割り当てによって最大稼働率を超えることを防ぎます。
func (s *Service) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Assignment, error) {
	p, err := normalizeProposal(in.EngineerID, in.ProjectID, in.AllocationPercentage)
	if err != nil {
		return nil, err
	}

	start := normalizeDate(in.StartDate)
	end := normalizeDate(in.EndDate)
	if err := allocation.ValidateDateRange(start, end); err != nil {
		return nil, ErrInvalidDateRange
	}

	var created *Assignment
	if err := s.tx.WithinEngineerLock(ctx, p.engineerID, func(txCtx context.Context) error {
		now := s.clock.Now()

		report, err := s.evaluate(txCtx, p, now)
		if err != nil {
			return err
		}
		if !report.Result.Valid() {
			return &ValidationFailedError{Result: report.Result}
		}

		result, err := s.repo.Create(txCtx, &Assignment{
			EngineerID:           p.engineerID,
			ProjectID:            p.projectID,
			AllocationPercentage: p.allocation,
			Role:                 strings.TrimSpace(in.Role),
			StartDate:            start,
			EndDate:              end,
			CreatedAt:            now,
			UpdatedAt:            now,
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

// ValidateAssignment は書き込みを行わずに割り当て提案を検証します。
func (s *Service) ValidateAssignment(ctx context.Context, in ValidateAssignmentInput) (*ValidationReport, error) {
	p, err := normalizeProposal(in.EngineerID, in.ProjectID, in.AllocationPercentage)
	if err != nil {
		return nil, err
	}

	at := s.clock.Now()
	if in.EvaluationDate != nil {
		at = *in.EvaluationDate
	}

	var report *ValidationReport
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		r, err := s.evaluate(txCtx, p, at)
		if err != nil {
			return err
		}
		report = r
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) evaluate(ctx context.Context, p proposal, at time.Time) (*ValidationReport, error) {
	eng, err := s.engineers.FindByID(ctx, p.engineerID)
	if err != nil {
		return nil, err
	}

	proj, err := s.projects.FindByID(ctx, p.projectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByEngineer(ctx, p.engineerID)
	if err != nil {
		return nil, err
	}

	engineerValue := eng.ToAllocation()
	info, err := allocation.ComputeCapacity(engineerValue, toAllocationAssignments(existing), at)
	if err != nil {
		return nil, err
	}

	result, err := allocation.ValidateWithCapacity(engineerValue, proj.ToAllocation(), info, p.allocation)
	if err != nil {
		return nil, err
	}
	s.recorder.ObserveValidation(result)

	return &ValidationReport{Result: result, Capacity: info, EvaluatedAt: at}, nil
}

// ListAssignments はエンジニアの割り当て一覧を取得します。
func (s *Service) ListAssignments(ctx context.Context, in ListAssignmentsInput) ([]*Assignment, error) {
	engineerID := strings.TrimSpace(in.EngineerID)
	if engineerID == "" {
		return nil, ErrInvalidEngineerID
	}

	var result []*Assignment
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.engineers.FindByID(txCtx, engineerID); err != nil {
			return err
		}
		found, err := s.repo.ListByEngineer(txCtx, engineerID)
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

// GetEngineerCapacity はエンジニアの現在の稼働状況を返します。
func (s *Service) GetEngineerCapacity(ctx context.Context, in GetEngineerCapacityInput) (*CapacityReport, error) {
	engineerID := strings.TrimSpace(in.EngineerID)
	if engineerID == "" {
		return nil, ErrInvalidEngineerID
	}

	var report *CapacityReport
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		eng, err := s.engineers.FindByID(txCtx, engineerID)
		if err != nil {
			return err
		}
		existing, err := s.repo.ListByEngineer(txCtx, engineerID)
		if err != nil {
			return err
		}
		r, err := buildCapacityReport(eng, existing, s.clock.Now())
		if err != nil {
			return err
		}
		report = r
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// GetTeamOverview は条件に合致する全エンジニアの稼働状況を返します。
// 1 回の呼び出しで同じ評価日時を全員に適用します。
func (s *Service) GetTeamOverview(ctx context.Context, in TeamOverviewInput) ([]*CapacityReport, error) {
	at := s.clock.Now()

	var reports []*CapacityReport
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		engineers, err := s.listAllEngineers(txCtx, strings.TrimSpace(in.Skill), strings.TrimSpace(in.Search))
		if err != nil {
			return err
		}
		if len(engineers) == 0 {
			reports = []*CapacityReport{}
			return nil
		}

		ids := make([]string, 0, len(engineers))
		for _, e := range engineers {
			ids = append(ids, e.ID)
		}
		byEngineer, err := s.repo.ListByEngineers(txCtx, ids)
		if err != nil {
			return err
		}

		reports = make([]*CapacityReport, 0, len(engineers))
		for _, e := range engineers {
			r, err := buildCapacityReport(e, byEngineer[e.ID], at)
			if err != nil {
				return err
			}
			reports = append(reports, r)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) listAllEngineers(ctx context.Context, skill, search string) ([]*engineer.Engineer, error) {
	var (
		all    []*engineer.Engineer
		offset int
	)
	for {
		page, next, err := s.engineers.List(ctx, engineer.ListEngineersFilter{
			Skill:  skill,
			Search: search,
			Limit:  overviewPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		offset, err = strconv.Atoi(next)
		if err != nil {
			return nil, fmt.Errorf("assignment: engineer page token %q: %w", next, err)
		}
	}
}

func buildCapacityReport(eng *engineer.Engineer, assignments []*Assignment, at time.Time) (*CapacityReport, error) {
	value := eng.ToAllocation()
	info, err := allocation.ComputeCapacity(value, toAllocationAssignments(assignments), at)
	if err != nil {
		return nil, err
	}
	pct, err := allocation.ReportUtilization(value, info)
	if err != nil {
		return nil, err
	}
	return &CapacityReport{
		Engineer:           eng,
		Capacity:           info,
		UtilizationPercent: pct,
		Band:               allocation.ClassifyUtilization(pct),
		EvaluatedAt:        at,
	}, nil
}

func normalizeProposal(engineerID, projectID string, pct int) (proposal, error) {
	p := proposal{
		engineerID: strings.TrimSpace(engineerID),
		projectID:  strings.TrimSpace(projectID),
		allocation: pct,
	}
	if p.engineerID == "" {
		return proposal{}, ErrInvalidEngineerID
	}
	if p.projectID == "" {
		return proposal{}, ErrInvalidProjectID
	}
	if pct < 0 || pct > 100 {
		return proposal{}, ErrInvalidAllocation
	}
	return p, nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}
