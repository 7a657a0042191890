// Package roster は capacityctl が読み込む YAML 形式のロスターファイルを扱います。
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	"gopkg.in/yaml.v3"
)

// DateLayout はロスター内の日付書式です。
const DateLayout = "2006-01-02"

const defaultMaxCapacity = 100

var (
	ErrInvalidEntry    = errors.New("roster: invalid entry")
	ErrDuplicateID     = errors.New("roster: duplicate id")
	ErrUnknownEngineer = errors.New("roster: unknown engineer")
	ErrUnknownProject  = errors.New("roster: unknown project")
)

type fileEngineer struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Email       string   `yaml:"email"`
	Skills      []string `yaml:"skills"`
	MaxCapacity *int     `yaml:"maxCapacity"`
	Seniority   string   `yaml:"seniority"`
	Department  string   `yaml:"department"`
}

type fileProject struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	RequiredSkills []string `yaml:"requiredSkills"`
	TeamSize       *int     `yaml:"teamSize"`
	Status         string   `yaml:"status"`
	StartDate      string   `yaml:"startDate"`
	EndDate        string   `yaml:"endDate"`
}

type fileAssignment struct {
	ID                   string `yaml:"id"`
	EngineerID           string `yaml:"engineerId"`
	ProjectID            string `yaml:"projectId"`
	AllocationPercentage int    `yaml:"allocationPercentage"`
	Role                 string `yaml:"role"`
	StartDate            string `yaml:"startDate"`
	EndDate              string `yaml:"endDate"`
}

type file struct {
	Engineers   []fileEngineer   `yaml:"engineers"`
	Projects    []fileProject    `yaml:"projects"`
	Assignments []fileAssignment `yaml:"assignments"`
}

// Roster は読み込み済みのエンジニア・プロジェクト・割り当てです。
type Roster struct {
	Engineers   *EngineerStore
	Projects    *ProjectStore
	Assignments *AssignmentStore
}

// Load はファイルからロスターを読み込みます。
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	return r, nil
}

// Decode は YAML を検証してロスターへ変換します。ID が省略された項目には UUID を採番します。
func Decode(r io.Reader) (*Roster, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw file
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	engineers := make([]*engineer.Engineer, 0, len(raw.Engineers))
	engineerIDs := make(map[string]struct{}, len(raw.Engineers))
	for i, fe := range raw.Engineers {
		e, err := fe.toEngineer()
		if err != nil {
			return nil, fmt.Errorf("engineers[%d]: %w", i, err)
		}
		if _, dup := engineerIDs[e.ID]; dup {
			return nil, fmt.Errorf("engineers[%d] %s: %w", i, e.ID, ErrDuplicateID)
		}
		engineerIDs[e.ID] = struct{}{}
		engineers = append(engineers, e)
	}

	projects := make([]*project.Project, 0, len(raw.Projects))
	projectsByID := make(map[string]*project.Project, len(raw.Projects))
	for i, fp := range raw.Projects {
		p, err := fp.toProject()
		if err != nil {
			return nil, fmt.Errorf("projects[%d]: %w", i, err)
		}
		if _, dup := projectsByID[p.ID]; dup {
			return nil, fmt.Errorf("projects[%d] %s: %w", i, p.ID, ErrDuplicateID)
		}
		projectsByID[p.ID] = p
		projects = append(projects, p)
	}

	assignments := make([]*assignment.Assignment, 0, len(raw.Assignments))
	assignmentIDs := make(map[string]struct{}, len(raw.Assignments))
	for i, fa := range raw.Assignments {
		a, err := fa.toAssignment()
		if err != nil {
			return nil, fmt.Errorf("assignments[%d]: %w", i, err)
		}
		if _, ok := engineerIDs[a.EngineerID]; !ok {
			return nil, fmt.Errorf("assignments[%d] engineerId %q: %w", i, a.EngineerID, ErrUnknownEngineer)
		}
		p, ok := projectsByID[a.ProjectID]
		if !ok {
			return nil, fmt.Errorf("assignments[%d] projectId %q: %w", i, a.ProjectID, ErrUnknownProject)
		}
		if _, dup := assignmentIDs[a.ID]; dup {
			return nil, fmt.Errorf("assignments[%d] %s: %w", i, a.ID, ErrDuplicateID)
		}
		assignmentIDs[a.ID] = struct{}{}
		a.Project = &assignment.ProjectSnapshot{ID: p.ID, Name: p.Name, Status: p.Status}
		assignments = append(assignments, a)
	}

	return &Roster{
		Engineers:   newEngineerStore(engineers),
		Projects:    newProjectStore(projects),
		Assignments: newAssignmentStore(assignments),
	}, nil
}

func (fe fileEngineer) toEngineer() (*engineer.Engineer, error) {
	name := strings.TrimSpace(fe.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	skills, ok := allocation.NormalizeSkills(fe.Skills)
	if !ok {
		return nil, fmt.Errorf("%w: skills must not be blank", ErrInvalidEntry)
	}
	maxCapacity := defaultMaxCapacity
	if fe.MaxCapacity != nil {
		maxCapacity = *fe.MaxCapacity
	}
	if maxCapacity < 0 || maxCapacity > 100 {
		return nil, fmt.Errorf("%w: maxCapacity must be between 0 and 100", ErrInvalidEntry)
	}
	seniority := allocation.Seniority(strings.TrimSpace(fe.Seniority))
	switch seniority {
	case "", allocation.SeniorityJunior, allocation.SeniorityMid, allocation.SenioritySenior:
	default:
		return nil, fmt.Errorf("%w: unsupported seniority %q", ErrInvalidEntry, fe.Seniority)
	}

	return &engineer.Engineer{
		ID:          idOrNew(fe.ID),
		Name:        name,
		Email:       strings.ToLower(strings.TrimSpace(fe.Email)),
		Skills:      skills,
		MaxCapacity: maxCapacity,
		Seniority:   seniority,
		Department:  strings.TrimSpace(fe.Department),
	}, nil
}

func (fp fileProject) toProject() (*project.Project, error) {
	name := strings.TrimSpace(fp.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	skills, ok := allocation.NormalizeSkills(fp.RequiredSkills)
	if !ok {
		return nil, fmt.Errorf("%w: requiredSkills must not be blank", ErrInvalidEntry)
	}
	status := allocation.ProjectStatus(strings.TrimSpace(fp.Status))
	if status == "" {
		status = allocation.ProjectStatusPlanning
	}
	if !project.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: unsupported status %q", ErrInvalidEntry, fp.Status)
	}
	if fp.TeamSize != nil && *fp.TeamSize < 1 {
		return nil, fmt.Errorf("%w: teamSize must be at least 1", ErrInvalidEntry)
	}
	start, end, err := parseRange(fp.StartDate, fp.EndDate)
	if err != nil {
		return nil, err
	}

	return &project.Project{
		ID:             idOrNew(fp.ID),
		Name:           name,
		Description:    strings.TrimSpace(fp.Description),
		RequiredSkills: skills,
		TeamSize:       fp.TeamSize,
		Status:         status,
		StartDate:      start,
		EndDate:        end,
	}, nil
}

func (fa fileAssignment) toAssignment() (*assignment.Assignment, error) {
	if fa.AllocationPercentage < 0 || fa.AllocationPercentage > 100 {
		return nil, fmt.Errorf("%w: allocationPercentage must be between 0 and 100", ErrInvalidEntry)
	}
	start, end, err := parseRange(fa.StartDate, fa.EndDate)
	if err != nil {
		return nil, err
	}
	return &assignment.Assignment{
		ID:                   idOrNew(fa.ID),
		EngineerID:           strings.TrimSpace(fa.EngineerID),
		ProjectID:            strings.TrimSpace(fa.ProjectID),
		AllocationPercentage: fa.AllocationPercentage,
		Role:                 strings.TrimSpace(fa.Role),
		StartDate:            start,
		EndDate:              end,
	}, nil
}

func parseRange(rawStart, rawEnd string) (*time.Time, *time.Time, error) {
	start, err := parseDate(rawStart)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return nil, nil, err
	}
	if err := allocation.ValidateDateRange(start, end); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return start, end, nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidEntry, raw)
	}
	return &t, nil
}

func idOrNew(raw string) string {
	if id := strings.TrimSpace(raw); id != "" {
		return id
	}
	return uuid.NewString()
}
