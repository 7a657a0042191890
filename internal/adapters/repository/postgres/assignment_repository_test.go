package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	pgdb "github.com/ogurasousui/engineer-capacity/internal/platform/db/postgres"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

var assignmentRowColumns = []string{
	"id", "engineer_id", "project_id", "allocation_percentage", "role", "start_date", "end_date", "created_at", "updated_at",
	"project_id", "project_name", "project_status",
}

func TestAssignmentRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	start := time.Date(2025, 4, 2, 13, 0, 0, 0, time.UTC)
	startDay := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)INSERT INTO assignments .*JOIN projects p ON p\.id = i\.project_id`).
		WithArgs("eng-1", "proj-1", 40, "Lead", startDay, nil, now, now).
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow("asg-1", "eng-1", "proj-1", 40, "Lead", startDay, nil, now, now, "proj-1", "Cloud", "active"))

	created, err := repo.Create(context.Background(), &assignment.Assignment{
		EngineerID:           "eng-1",
		ProjectID:            "proj-1",
		AllocationPercentage: 40,
		Role:                 "Lead",
		StartDate:            &start,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "asg-1" || created.Project == nil || created.Project.Name != "Cloud" {
		t.Fatalf("unexpected assignment %+v", created)
	}
	if created.EndDate != nil {
		t.Fatalf("expected open-ended assignment, got %v", created.EndDate)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_ListByEngineer_UsesTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	tm := pgdb.NewTransactionManager(mock)
	now := time.Now().UTC()

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`(?s)FROM assignments a\s+JOIN projects p ON p\.id = a\.project_id\s+WHERE a\.engineer_id = \$1\s+ORDER BY a\.created_at DESC`).
		WithArgs("eng-1").
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow("asg-2", "eng-1", "proj-1", 30, "", nil, nil, now, now, "proj-1", "Cloud", "active").
			AddRow("asg-1", "eng-1", "proj-2", 20, "", nil, now, now, now, "proj-2", "Web", "completed"))
	mock.ExpectCommit()

	var items []*assignment.Assignment
	err = tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		found, err := repo.ListByEngineer(ctx, "eng-1")
		items = found
		return err
	})
	if err != nil {
		t.Fatalf("ListByEngineer returned error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "asg-2" || items[1].EndDate == nil {
		t.Fatalf("unexpected items: %+v", items)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_ListByEngineers_GroupsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAssignmentRepository(mock)
	now := time.Now().UTC()
	ids := []string{"eng-1", "eng-2", "eng-3"}

	mock.ExpectQuery(`(?s)WHERE a\.engineer_id = ANY\(\$1::uuid\[\]\)`).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(assignmentRowColumns).
			AddRow("a1", "eng-1", "proj-1", 30, "", nil, nil, now, now, "proj-1", "Cloud", "active").
			AddRow("a2", "eng-1", "proj-2", 20, "", nil, nil, now, now, "proj-2", "Web", "active").
			AddRow("a3", "eng-2", "proj-1", 50, "", nil, nil, now, now, "proj-1", "Cloud", "active"))

	grouped, err := repo.ListByEngineers(context.Background(), ids)
	if err != nil {
		t.Fatalf("ListByEngineers returned error: %v", err)
	}
	if len(grouped["eng-1"]) != 2 || len(grouped["eng-2"]) != 1 || len(grouped["eng-3"]) != 0 {
		t.Fatalf("unexpected grouping: %v", grouped)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentRepository_ListByEngineers_Empty(t *testing.T) {
	t.Parallel()

	repo := NewAssignmentRepository(nil)
	grouped, err := repo.ListByEngineers(context.Background(), nil)
	if err != nil || grouped == nil || len(grouped) != 0 {
		t.Fatalf("expected empty map, got %v %v", grouped, err)
	}
}

func TestTranslateAssignmentPgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  *pgconn.PgError
		want error
	}{
		{err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "assignments_engineer_id_fkey"}, want: engineer.ErrEngineerNotFound},
		{err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "assignments_project_id_fkey"}, want: project.ErrProjectNotFound},
		{err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "assignments_allocation_percentage_check"}, want: assignment.ErrInvalidAllocation},
		{err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "assignments_date_range_check"}, want: assignment.ErrInvalidDateRange},
		{err: &pgconn.PgError{Code: invalidTextRepresentationCode}, want: engineer.ErrEngineerNotFound},
	}
	for _, tc := range cases {
		if got := translateAssignmentPgError(tc.err); !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.err.ConstraintName, tc.want, got)
		}
	}
}
