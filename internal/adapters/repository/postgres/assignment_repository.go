package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	pgdb "github.com/ogurasousui/engineer-capacity/internal/platform/db/postgres"
)

// AssignmentRepository は PostgreSQL を利用した割り当て永続化の実装です。
type AssignmentRepository struct {
	pool pgdb.Queryer
}

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(pool pgdb.Queryer) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// Create は割り当てを新規作成し、プロジェクト情報を添えて返します。
func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO assignments (engineer_id, project_id, allocation_percentage, role, start_date, end_date, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, engineer_id, project_id, allocation_percentage, role, start_date, end_date, created_at, updated_at
        )
        SELECT i.id, i.engineer_id, i.project_id, i.allocation_percentage, i.role, i.start_date, i.end_date, i.created_at, i.updated_at,
               p.id, p.name, p.status
          FROM inserted i
          JOIN projects p ON p.id = i.project_id
    `,
		a.EngineerID,
		a.ProjectID,
		a.AllocationPercentage,
		a.Role,
		nullableDate(a.StartDate),
		nullableDate(a.EndDate),
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return created, nil
}

// ListByEngineer はエンジニアの全割り当てを新しい順に取得します。
func (r *AssignmentRepository) ListByEngineer(ctx context.Context, engineerID string) ([]*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT a.id, a.engineer_id, a.project_id, a.allocation_percentage, a.role, a.start_date, a.end_date, a.created_at, a.updated_at,
               p.id, p.name, p.status
          FROM assignments a
          JOIN projects p ON p.id = a.project_id
         WHERE a.engineer_id = $1
         ORDER BY a.created_at DESC, a.id DESC
    `, engineerID)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	items := make([]*assignment.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, translateAssignmentPgError(err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return items, nil
}

// ListByEngineers は複数エンジニアの割り当てを 1 回のクエリで取得し、エンジニア ID ごとにまとめます。
func (r *AssignmentRepository) ListByEngineers(ctx context.Context, engineerIDs []string) (map[string][]*assignment.Assignment, error) {
	result := make(map[string][]*assignment.Assignment, len(engineerIDs))
	if len(engineerIDs) == 0 {
		return result, nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT a.id, a.engineer_id, a.project_id, a.allocation_percentage, a.role, a.start_date, a.end_date, a.created_at, a.updated_at,
               p.id, p.name, p.status
          FROM assignments a
          JOIN projects p ON p.id = a.project_id
         WHERE a.engineer_id = ANY($1::uuid[])
         ORDER BY a.engineer_id, a.created_at DESC, a.id DESC
    `, engineerIDs)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, translateAssignmentPgError(err)
		}
		result[a.EngineerID] = append(result[a.EngineerID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return result, nil
}

func scanAssignment(row pgx.Row) (*assignment.Assignment, error) {
	var (
		id            string
		engineerID    string
		projectID     string
		pct           int
		role          string
		startDate     sql.NullTime
		endDate       sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		projectJoinID string
		projectName   string
		projectStatus string
	)

	if err := row.Scan(
		&id,
		&engineerID,
		&projectID,
		&pct,
		&role,
		&startDate,
		&endDate,
		&createdAt,
		&updatedAt,
		&projectJoinID,
		&projectName,
		&projectStatus,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}

	return &assignment.Assignment{
		ID:                   id,
		EngineerID:           engineerID,
		ProjectID:            projectID,
		AllocationPercentage: pct,
		Role:                 role,
		StartDate:            dateFromNull(startDate),
		EndDate:              dateFromNull(endDate),
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
		Project: &assignment.ProjectSnapshot{
			ID:     projectJoinID,
			Name:   projectName,
			Status: allocation.ProjectStatus(projectStatus),
		},
	}, nil
}

func translateAssignmentPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return assignment.ErrAssignmentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentationCode:
			return engineer.ErrEngineerNotFound
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "assignments_engineer_id_fkey":
				return engineer.ErrEngineerNotFound
			case "assignments_project_id_fkey":
				return project.ErrProjectNotFound
			}
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "assignments_allocation_percentage_check":
				return assignment.ErrInvalidAllocation
			case "assignments_date_range_check":
				return assignment.ErrInvalidDateRange
			}
		}
	}

	return err
}
