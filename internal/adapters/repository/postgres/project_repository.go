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
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	pgdb "github.com/ogurasousui/engineer-capacity/internal/platform/db/postgres"
)

const projectColumns = `p.id, p.name, p.description, p.required_skills, p.team_size, p.status, p.start_date, p.end_date, p.created_at, p.updated_at`

// ProjectRepository は PostgreSQL を利用したプロジェクト永続化の実装です。
type ProjectRepository struct {
	pool pgdb.Queryer
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(pool pgdb.Queryer) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create はプロジェクトを新規作成します。
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO projects AS p (name, description, required_skills, team_size, status, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+projectColumns,
		p.Name,
		p.Description,
		nonNilSkills(p.RequiredSkills),
		nullableInt(p.TeamSize),
		string(p.Status),
		nullableDate(p.StartDate),
		nullableDate(p.EndDate),
		p.CreatedAt,
		p.UpdatedAt,
	)

	created, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return created, nil
}

// Update はプロジェクトを更新します。
func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE projects AS p
           SET name = $1,
               description = $2,
               required_skills = $3,
               team_size = $4,
               status = $5,
               start_date = $6,
               end_date = $7,
               updated_at = $8
         WHERE p.id = $9
        RETURNING `+projectColumns,
		p.Name,
		p.Description,
		nonNilSkills(p.RequiredSkills),
		nullableInt(p.TeamSize),
		string(p.Status),
		nullableDate(p.StartDate),
		nullableDate(p.EndDate),
		p.UpdatedAt,
		p.ID,
	)

	updated, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return updated, nil
}

// FindByID は ID でプロジェクトを取得します。
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+projectColumns+`
          FROM projects p
         WHERE p.id = $1
         LIMIT 1
    `, id)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// List はプロジェクトの一覧を新しい順に取得します。
func (r *ProjectRepository) List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, string, error) {
	if filter.Limit <= 0 {
		return nil, "", project.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", project.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		whereClause = "\n         WHERE p.status = $" + strconv.Itoa(len(args))
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `
        SELECT ` + projectColumns + `
          FROM projects p` + whereClause + `
         ORDER BY p.created_at DESC, p.id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateProjectPgError(err)
	}
	defer rows.Close()

	projects := make([]*project.Project, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, "", translateProjectPgError(err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateProjectPgError(err)
	}

	var nextToken string
	if len(projects) == limitWithBuffer {
		projects = projects[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return projects, nextToken, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		id          string
		name        string
		description string
		skills      []string
		teamSize    sql.NullInt32
		status      string
		startDate   sql.NullTime
		endDate     sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&id, &name, &description, &skills, &teamSize, &status, &startDate, &endDate, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}

	if skills == nil {
		skills = []string{}
	}

	var teamSizePtr *int
	if teamSize.Valid {
		v := int(teamSize.Int32)
		teamSizePtr = &v
	}

	return &project.Project{
		ID:             id,
		Name:           name,
		Description:    description,
		RequiredSkills: skills,
		TeamSize:       teamSizePtr,
		Status:         allocation.ProjectStatus(status),
		StartDate:      dateFromNull(startDate),
		EndDate:        dateFromNull(endDate),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func translateProjectPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return project.ErrProjectNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentationCode {
		return project.ErrProjectNotFound
	}
	if errors.As(err, &pgErr) && pgErr.Code == checkViolationCode {
		switch {
		case strings.Contains(pgErr.ConstraintName, "date"):
			return project.ErrInvalidDateRange
		case strings.Contains(pgErr.ConstraintName, "team_size"):
			return project.ErrInvalidTeamSize
		case strings.Contains(pgErr.ConstraintName, "status"):
			return project.ErrInvalidStatus
		}
	}

	return err
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
