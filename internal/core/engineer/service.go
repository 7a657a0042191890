package engineer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
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

	// DefaultMaxCapacity は最大稼働率が未指定の場合の既定値です。
	DefaultMaxCapacity = 100
)

// Service はエンジニアに関するユースケースをまとめます。
type Service struct {
	repo               Repository
	clock              Clock
	tx                 TransactionManager
	defaultMaxCapacity int
}

// UseCase はエンジニアユースケースの公開インターフェースです。
type UseCase interface {
	CreateEngineer(ctx context.Context, in CreateEngineerInput) (*Engineer, error)
	GetEngineer(ctx context.Context, in GetEngineerInput) (*Engineer, error)
	ListEngineers(ctx context.Context, in ListEngineersInput) (*ListEngineersResult, error)
	UpdateEngineer(ctx context.Context, in UpdateEngineerInput) (*Engineer, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithDefaultMaxCapacity は作成時の既定最大稼働率を変更します。
func WithDefaultMaxCapacity(v int) Option {
	return func(s *Service) {
		if v >= 0 && v <= 100 {
			s.defaultMaxCapacity = v
		}
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{repo: repo, clock: clock, tx: tx, defaultMaxCapacity: DefaultMaxCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEngineerInput はエンジニア作成時の入力です。
type CreateEngineerInput struct {
	Name        string
	Email       string
	Skills      []string
	MaxCapacity *int
	Seniority   allocation.Seniority
	Department  string
}

// UpdateEngineerInput はエンジニア更新時の入力です。nil の項目は変更しません。
type UpdateEngineerInput struct {
	ID          string
	Name        *string
	Skills      *[]string
	MaxCapacity *int
	Seniority   *allocation.Seniority
	Department  *string
}

// GetEngineerInput はエンジニア取得時の入力です。
type GetEngineerInput struct {
	ID string
}

// ListEngineersInput は一覧取得時の入力です。
type ListEngineersInput struct {
	Skill     string
	Search    string
	PageSize  int
	PageToken string
}

// ListEngineersResult は一覧取得結果を表します。
type ListEngineersResult struct {
	Engineers     []*Engineer
	NextPageToken string
}

// CreateEngineer は新しいエンジニアを登録します。
func (s *Service) CreateEngineer(ctx context.Context, in CreateEngineerInput) (*Engineer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	skills, ok := allocation.NormalizeSkills(in.Skills)
	if !ok {
		return nil, ErrInvalidSkill
	}

	maxCapacity := s.defaultMaxCapacity
	if in.MaxCapacity != nil {
		maxCapacity = *in.MaxCapacity
	}
	if err := validateMaxCapacity(maxCapacity); err != nil {
		return nil, err
	}

	if !isValidSeniority(in.Seniority) {
		return nil, ErrInvalidSeniority
	}

	var created *Engineer
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailNotExists(txCtx, email); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Engineer{
			Name:        name,
			Email:       email,
			Skills:      skills,
			MaxCapacity: maxCapacity,
			Seniority:   in.Seniority,
			Department:  strings.TrimSpace(in.Department),
			CreatedAt:   now,
			UpdatedAt:   now,
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

// UpdateEngineer はエンジニア情報を更新します。
// 最大稼働率を現在の割り当て合計より小さくすることは許容し、超過は稼働状況で報告します。
func (s *Service) UpdateEngineer(ctx context.Context, in UpdateEngineerInput) (*Engineer, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Engineer
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrInvalidName
			}
			existing.Name = name
		}

		if in.Skills != nil {
			skills, ok := allocation.NormalizeSkills(*in.Skills)
			if !ok {
				return ErrInvalidSkill
			}
			existing.Skills = skills
		}

		if in.MaxCapacity != nil {
			if err := validateMaxCapacity(*in.MaxCapacity); err != nil {
				return err
			}
			existing.MaxCapacity = *in.MaxCapacity
		}

		if in.Seniority != nil {
			if !isValidSeniority(*in.Seniority) {
				return ErrInvalidSeniority
			}
			existing.Seniority = *in.Seniority
		}

		if in.Department != nil {
			existing.Department = strings.TrimSpace(*in.Department)
		}

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

// GetEngineer はエンジニアを取得します。
func (s *Service) GetEngineer(ctx context.Context, in GetEngineerInput) (*Engineer, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Engineer
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

// ListEngineers はエンジニアの一覧を取得します。
func (s *Service) ListEngineers(ctx context.Context, in ListEngineersInput) (*ListEngineersResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		engineers []*Engineer
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, ListEngineersFilter{
			Skill:  strings.TrimSpace(in.Skill),
			Search: strings.TrimSpace(in.Search),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		engineers = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEngineersResult{Engineers: engineers, NextPageToken: nextToken}, nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	found, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrEngineerNotFound) {
		return err
	}
	if found != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

// MatchesFilter はフィルタ条件にエンジニアが合致するかを判定します。
// 永続化層を持たない実装 (ロスターやテスト用フェイク) でも同じ規則を使います。
func MatchesFilter(e *Engineer, skill, search string) bool {
	if skill != "" {
		matched := false
		for _, s := range e.Skills {
			if strings.EqualFold(s, skill) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(e.Name), needle) &&
			!strings.Contains(strings.ToLower(e.Email), needle) &&
			!strings.Contains(strings.ToLower(e.Department), needle) {
			return false
		}
	}

	return true
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

func validateMaxCapacity(v int) error {
	if v < 0 || v > 100 {
		return ErrInvalidMaxCapacity
	}
	return nil
}

func isValidSeniority(s allocation.Seniority) bool {
	switch s {
	case "", allocation.SeniorityJunior, allocation.SeniorityMid, allocation.SenioritySenior:
		return true
	default:
		return false
	}
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
