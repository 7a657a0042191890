package roster

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
)

// EngineerStore はロスター上のエンジニアを参照します。
type EngineerStore struct {
	items []*engineer.Engineer
	byID  map[string]*engineer.Engineer
}

var _ assignment.EngineerReader = (*EngineerStore)(nil)

func newEngineerStore(items []*engineer.Engineer) *EngineerStore {
	sorted := append([]*engineer.Engineer(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})
	byID := make(map[string]*engineer.Engineer, len(sorted))
	for _, e := range sorted {
		byID[e.ID] = e
	}
	return &EngineerStore{items: sorted, byID: byID}
}

// FindByID はエンジニアを取得します。
func (s *EngineerStore) FindByID(_ context.Context, id string) (*engineer.Engineer, error) {
	e, ok := s.byID[id]
	if !ok {
		return nil, engineer.ErrEngineerNotFound
	}
	c := *e
	return &c, nil
}

// List は氏名順でフィルタに合致するエンジニアを返します。
func (s *EngineerStore) List(_ context.Context, filter engineer.ListEngineersFilter) ([]*engineer.Engineer, string, error) {
	var matched []*engineer.Engineer
	for _, e := range s.items {
		if engineer.MatchesFilter(e, filter.Skill, filter.Search) {
			matched = append(matched, e)
		}
	}

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	out := make([]*engineer.Engineer, 0, end-start)
	for _, e := range matched[start:end] {
		c := *e
		out = append(out, &c)
	}

	next := ""
	if end < len(matched) {
		next = strconv.Itoa(end)
	}
	return out, next, nil
}

// Len は登録件数を返します。
func (s *EngineerStore) Len() int {
	return len(s.items)
}

// ProjectStore はロスター上のプロジェクトを参照します。
type ProjectStore struct {
	byID map[string]*project.Project
}

var _ assignment.ProjectReader = (*ProjectStore)(nil)

func newProjectStore(items []*project.Project) *ProjectStore {
	byID := make(map[string]*project.Project, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	return &ProjectStore{byID: byID}
}

// FindByID はプロジェクトを取得します。
func (s *ProjectStore) FindByID(_ context.Context, id string) (*project.Project, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	c := *p
	return &c, nil
}

// AssignmentStore はロスター上の割り当てを保持します。Create はメモリ上にのみ反映されます。
type AssignmentStore struct {
	mu    sync.RWMutex
	items []*assignment.Assignment
	now   func() time.Time
}

var _ assignment.Repository = (*AssignmentStore)(nil)

func newAssignmentStore(items []*assignment.Assignment) *AssignmentStore {
	return &AssignmentStore{items: items, now: time.Now}
}

// Create は割り当てを追加します。
func (s *AssignmentStore) Create(_ context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *a
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.items = append(s.items, &c)

	out := c
	return &out, nil
}

// ListByEngineer はエンジニアの割り当てをファイル記載順に返します。
func (s *AssignmentStore) ListByEngineer(_ context.Context, engineerID string) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*assignment.Assignment{}
	for _, a := range s.items {
		if a.EngineerID == engineerID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

// ListByEngineers は複数エンジニアの割り当てをまとめて返します。
func (s *AssignmentStore) ListByEngineers(ctx context.Context, engineerIDs []string) (map[string][]*assignment.Assignment, error) {
	out := make(map[string][]*assignment.Assignment, len(engineerIDs))
	for _, id := range engineerIDs {
		items, err := s.ListByEngineer(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = items
	}
	return out, nil
}
