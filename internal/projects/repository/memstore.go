package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pgm-labs/pgm-backend/internal/projects/domain"
)

// MemStore is an in-memory Store used for local development (STORE_DRIVER=memory)
// and in tests. It mirrors the Firestore semantics the service depends on:
// owner-partitioned documents, per-document atomic updates, explicit nulls.
type MemStore struct {
	mu           sync.RWMutex
	projects     map[string]map[string]*domain.Project // ownerID -> projectID -> project
	activities   map[string][]*domain.ActivityLogEntry // ownerID -> entries
	updateHook   func(ownerID, projectID string) error // test fault injection
	activityHook func(ownerID string) error            // test fault injection
}

func NewMemStore() *MemStore {
	return &MemStore{
		projects:   make(map[string]map[string]*domain.Project),
		activities: make(map[string][]*domain.ActivityLogEntry),
	}
}

// SetUpdateHook installs a hook invoked before every UpdateProject; a non-nil
// return aborts the update with that error. Tests use it to simulate a store
// failure on a single document.
func (s *MemStore) SetUpdateHook(hook func(ownerID, projectID string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateHook = hook
}

// SetActivityHook installs a hook invoked before every AddActivity; a
// non-nil return aborts the append with that error.
func (s *MemStore) SetActivityHook(hook func(ownerID string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityHook = hook
}

func (s *MemStore) CreateProject(_ context.Context, ownerID string, p *domain.Project) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projects[ownerID] == nil {
		s.projects[ownerID] = make(map[string]*domain.Project)
	}
	p.ID = uuid.NewString()
	s.projects[ownerID][p.ID] = cloneProject(p)
	return p.ID, nil
}

func (s *MemStore) GetProject(_ context.Context, ownerID, projectID string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[ownerID][projectID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *MemStore) UpdateProject(_ context.Context, ownerID, projectID string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateHook != nil {
		if err := s.updateHook(ownerID, projectID); err != nil {
			return err
		}
	}

	p, ok := s.projects[ownerID][projectID]
	if !ok {
		return ErrNotFound
	}

	for field, value := range updates {
		if err := applyField(p, field, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStore) DeleteProject(_ context.Context, ownerID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects[ownerID], projectID)
	return nil
}

func (s *MemStore) ListProjects(_ context.Context, ownerID string) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Project, 0, len(s.projects[ownerID]))
	for _, p := range s.projects[ownerID] {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemStore) ListProjectsByStatus(_ context.Context, st domain.Status) ([]OwnedProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.projects))
	for ownerID := range s.projects {
		owners = append(owners, ownerID)
	}
	sort.Strings(owners)

	out := make([]OwnedProject, 0, 16)
	for _, ownerID := range owners {
		ids := make([]string, 0, len(s.projects[ownerID]))
		for id := range s.projects[ownerID] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if p := s.projects[ownerID][id]; p.Status == st {
				out = append(out, OwnedProject{OwnerID: ownerID, Project: cloneProject(p)})
			}
		}
	}
	return out, nil
}

func (s *MemStore) AddActivity(_ context.Context, ownerID string, entry *domain.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activityHook != nil {
		if err := s.activityHook(ownerID); err != nil {
			return err
		}
	}

	e := *entry
	e.ID = uuid.NewString()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	entry.ID = e.ID
	s.activities[ownerID] = append(s.activities[ownerID], &e)
	return nil
}

// Activities returns the owner's audit entries in append order. Test helper.
func (s *MemStore) Activities(ownerID string) []*domain.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ActivityLogEntry, 0, len(s.activities[ownerID]))
	for _, e := range s.activities[ownerID] {
		c := *e
		out = append(out, &c)
	}
	return out
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	if p.LastCommitAt != nil {
		t := *p.LastCommitAt
		c.LastCommitAt = &t
	}
	if p.ForcedDecisionAt != nil {
		t := *p.ForcedDecisionAt
		c.ForcedDecisionAt = &t
	}
	return &c
}

func applyField(p *domain.Project, field string, value any) error {
	switch field {
	case "name":
		p.Name = value.(string)
	case "description":
		p.Description = value.(string)
	case "repoUrl":
		p.RepoURL = value.(string)
	case "status":
		switch v := value.(type) {
		case domain.Status:
			p.Status = v
		case string:
			p.Status = domain.Status(v)
		default:
			return fmt.Errorf("invalid status value %v", value)
		}
	case "updatedAt":
		p.UpdatedAt = value.(time.Time)
	case "lastCommitAt":
		p.LastCommitAt = asTimePtr(value)
	case "forcedDecisionAt":
		p.ForcedDecisionAt = asTimePtr(value)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

func asTimePtr(value any) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	case *time.Time:
		return v
	}
	return nil
}
