package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	pgdb "github.com/ogurasousui/engineer-capacity/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"

	// uuid 列へ不正な文字列を渡した場合のコードです。該当行なしとして扱います。
	invalidTextRepresentationCode = "22P02"
)

const engineerColumns = `e.id, e.name, e.email, e.skills, e.max_capacity, e.seniority, e.department, e.created_at, e.updated_at`

// EngineerRepository は PostgreSQL を利用したエンジニア永続化の実装です。
type EngineerRepository struct {
	pool pgdb.Queryer
}

// NewEngineerRepository は EngineerRepository を生成します。
func NewEngineerRepository(pool pgdb.Queryer) *EngineerRepository {
	return &EngineerRepository{pool: pool}
}

// Create はエンジニアを新規作成します。
func (r *EngineerRepository) Create(ctx context.Context, e *engineer.Engineer) (*engineer.Engineer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO engineers AS e (name, email, skills, max_capacity, seniority, department, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+engineerColumns,
		e.Name,
		e.Email,
		nonNilSkills(e.Skills),
		e.MaxCapacity,
		nullableString(string(e.Seniority)),
		e.Department,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEngineer(row)
	if err != nil {
		return nil, translateEngineerPgError(err)
	}
	return created, nil
}

// Update はエンジニアのプロフィールを更新します。
func (r *EngineerRepository) Update(ctx context.Context, e *engineer.Engineer) (*engineer.Engineer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE engineers AS e
           SET name = $1,
               skills = $2,
               max_capacity = $3,
               seniority = $4,
               department = $5,
               updated_at = $6
         WHERE e.id = $7
        RETURNING `+engineerColumns,
		e.Name,
		nonNilSkills(e.Skills),
		e.MaxCapacity,
		nullableString(string(e.Seniority)),
		e.Department,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEngineer(row)
	if err != nil {
		return nil, translateEngineerPgError(err)
	}
	return updated, nil
}

// FindByID は ID でエンジニアを取得します。
func (r *EngineerRepository) FindByID(ctx context.Context, id string) (*engineer.Engineer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+engineerColumns+`
          FROM engineers e
         WHERE e.id = $1
         LIMIT 1
    `, id)

	found, err := scanEngineer(row)
	if err != nil {
		return nil, translateEngineerPgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスでエンジニアを取得します。
func (r *EngineerRepository) FindByEmail(ctx context.Context, email string) (*engineer.Engineer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+engineerColumns+`
          FROM engineers e
         WHERE e.email = $1
         LIMIT 1
    `, email)

	found, err := scanEngineer(row)
	if err != nil {
		return nil, translateEngineerPgError(err)
	}
	return found, nil
}

// List はエンジニアの一覧を氏名順で取得します。
func (r *EngineerRepository) List(ctx context.Context, filter engineer.ListEngineersFilter) ([]*engineer.Engineer, string, error) {
	if filter.Limit <= 0 {
		return nil, "", engineer.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", engineer.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		args = append(args, skill)
		conditions = append(conditions, "EXISTS (SELECT 1 FROM unnest(e.skills) AS s(skill) WHERE lower(s.skill) = lower($"+strconv.Itoa(len(args))+"))")
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(e.name ILIKE "+placeholder+" OR e.email ILIKE "+placeholder+" OR e.department ILIKE "+placeholder+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `
        SELECT ` + engineerColumns + `
          FROM engineers e` + whereClause + `
         ORDER BY e.name ASC, e.id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEngineerPgError(err)
	}
	defer rows.Close()

	engineers := make([]*engineer.Engineer, 0, filter.Limit)
	for rows.Next() {
		e, err := scanEngineer(rows)
		if err != nil {
			return nil, "", translateEngineerPgError(err)
		}
		engineers = append(engineers, e)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEngineerPgError(err)
	}

	var nextToken string
	if len(engineers) == limitWithBuffer {
		engineers = engineers[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return engineers, nextToken, nil
}

func scanEngineer(row pgx.Row) (*engineer.Engineer, error) {
	var (
		id          string
		name        string
		email       string
		skills      []string
		maxCapacity int
		seniority   sql.NullString
		department  string
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&id, &name, &email, &skills, &maxCapacity, &seniority, &department, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engineer.ErrEngineerNotFound
		}
		return nil, err
	}

	if skills == nil {
		skills = []string{}
	}

	return &engineer.Engineer{
		ID:          id,
		Name:        name,
		Email:       email,
		Skills:      skills,
		MaxCapacity: maxCapacity,
		Seniority:   allocation.Seniority(seniority.String),
		Department:  department,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func translateEngineerPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return engineer.ErrEngineerNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentationCode:
			return engineer.ErrEngineerNotFound
		case uniqueViolationCode:
			return engineer.ErrEmailAlreadyExists
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "engineers_max_capacity_check":
				return engineer.ErrInvalidMaxCapacity
			case "engineers_seniority_check":
				return engineer.ErrInvalidSeniority
			}
		}
	}

	return err
}

func nonNilSkills(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func dateFromNull(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}
