package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

var engineerRowColumns = []string{"id", "name", "email", "skills", "max_capacity", "seniority", "department", "created_at", "updated_at"}

func TestScanEngineer_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Now().UTC()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 9 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "eng-1"
		*(dest[1].(*string)) = "Alice"
		*(dest[2].(*string)) = "alice@example.com"
		*(dest[3].(*[]string)) = []string{"Go", "AWS"}
		*(dest[4].(*int)) = 80
		seniority := dest[5].(*sql.NullString)
		seniority.String = "senior"
		seniority.Valid = true
		*(dest[6].(*string)) = "Platform"
		*(dest[7].(*time.Time)) = createdAt
		*(dest[8].(*time.Time)) = createdAt
		return nil
	}}

	e, err := scanEngineer(row)
	if err != nil {
		t.Fatalf("scanEngineer returned error: %v", err)
	}

	if e.ID != "eng-1" || e.MaxCapacity != 80 || e.Seniority != allocation.SenioritySenior {
		t.Fatalf("unexpected engineer %+v", e)
	}
	if len(e.Skills) != 2 || e.Skills[1] != "AWS" {
		t.Fatalf("unexpected skills %v", e.Skills)
	}
}

func TestScanEngineer_NullSkillsAndSeniority(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		*(dest[0].(*string)) = "eng-2"
		return nil
	}}

	e, err := scanEngineer(row)
	if err != nil {
		t.Fatalf("scanEngineer returned error: %v", err)
	}
	if e.Skills == nil || len(e.Skills) != 0 {
		t.Fatalf("expected empty non-nil skills, got %#v", e.Skills)
	}
	if e.Seniority != "" {
		t.Fatalf("expected empty seniority, got %q", e.Seniority)
	}
}

func TestScanEngineer_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	if _, err := scanEngineer(row); !errors.Is(err, engineer.ErrEngineerNotFound) {
		t.Fatalf("expected ErrEngineerNotFound, got %v", err)
	}
}

func TestTranslateEngineerPgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique", err: &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "engineers_email_key"}, want: engineer.ErrEmailAlreadyExists},
		{name: "capacity check", err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "engineers_max_capacity_check"}, want: engineer.ErrInvalidMaxCapacity},
		{name: "seniority check", err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "engineers_seniority_check"}, want: engineer.ErrInvalidSeniority},
		{name: "no rows", err: pgx.ErrNoRows, want: engineer.ErrEngineerNotFound},
		{name: "malformed uuid", err: &pgconn.PgError{Code: invalidTextRepresentationCode}, want: engineer.ErrEngineerNotFound},
	}

	for _, tc := range cases {
		if got := translateEngineerPgError(tc.err); !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	otherErr := errors.New("random")
	if translateEngineerPgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestEngineerRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEngineerRepository(mock)
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)INSERT INTO engineers AS e .*RETURNING e\.id`).
		WithArgs("Alice", "alice@example.com", []string{}, 100, nil, "", now, now).
		WillReturnRows(pgxmock.NewRows(engineerRowColumns).
			AddRow("eng-1", "Alice", "alice@example.com", []string{}, 100, nil, "", now, now))

	created, err := repo.Create(context.Background(), &engineer.Engineer{
		Name:        "Alice",
		Email:       "alice@example.com",
		MaxCapacity: 100,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "eng-1" {
		t.Fatalf("unexpected engineer %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEngineerRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEngineerRepository(mock)

	query := `(?s)FROM engineers e\s+WHERE EXISTS \(SELECT 1 FROM unnest\(e\.skills\) AS s\(skill\) WHERE lower\(s\.skill\) = lower\(\$1\)\)` +
		` AND \(e\.name ILIKE \$2 OR e\.email ILIKE \$2 OR e\.department ILIKE \$2\)` +
		`\s+ORDER BY e\.name ASC, e\.id ASC\s+LIMIT \$3\s+OFFSET \$4`

	now := time.Now().UTC()
	rows := pgxmock.NewRows(engineerRowColumns).
		AddRow("eng-1", "Alice", "alice@example.com", []string{"Go"}, 100, nil, "Platform", now, now).
		AddRow("eng-2", "Bob", "bob@example.com", []string{"go"}, 100, "mid", "Platform", now, now)

	mock.ExpectQuery(query).
		WithArgs("go", `%plat\_form%`, 2, 0).
		WillReturnRows(rows)

	engineers, next, err := repo.List(context.Background(), engineer.ListEngineersFilter{Skill: "go", Search: "plat_form", Limit: 1})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(engineers) != 1 || engineers[0].ID != "eng-1" {
		t.Fatalf("unexpected engineers: %+v", engineers)
	}
	if next != "1" {
		t.Fatalf("expected next token '1', got %q", next)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEngineerRepository_List_NoFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEngineerRepository(mock)

	query := regexp.QuoteMeta(`FROM engineers e`) + `\s+ORDER BY`
	mock.ExpectQuery(query).
		WithArgs(51, 50).
		WillReturnRows(pgxmock.NewRows(engineerRowColumns))

	engineers, next, err := repo.List(context.Background(), engineer.ListEngineersFilter{Limit: 50, Offset: 50})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(engineers) != 0 || next != "" {
		t.Fatalf("expected empty page, got %d rows and token %q", len(engineers), next)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEngineerRepository_List_InvalidFilter(t *testing.T) {
	t.Parallel()

	repo := NewEngineerRepository(nil)
	if _, _, err := repo.List(context.Background(), engineer.ListEngineersFilter{Limit: 0}); !errors.Is(err, engineer.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), engineer.ListEngineersFilter{Limit: 1, Offset: -1}); !errors.Is(err, engineer.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	if got := escapeLike(`50%_a\b`); got != `50\%\_a\\b` {
		t.Fatalf("unexpected escape %q", got)
	}
}
