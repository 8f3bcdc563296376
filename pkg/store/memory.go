package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory keeps projects in process. Values are stored encoded so callers never
// share slices or maps with the store.
type Memory struct {
	mu       sync.RWMutex
	projects map[string][]byte
	opts     options
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		projects: make(map[string][]byte),
		opts:     buildOptions(opts),
	}
}

func (m *Memory) Save(ctx context.Context, project Project) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	if strings.TrimSpace(project.ID) == "" {
		return Project{}, ErrNoID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var existing *Project
	if data, ok := m.projects[project.ID]; ok {
		prev, err := decode(data)
		if err != nil {
			return Project{}, err
		}
		existing = &prev
	}
	project = stamp(project, existing, m.opts.now())
	data, err := encode(project)
	if err != nil {
		return Project{}, err
	}
	m.projects[project.ID] = data
	return decode(data)
}

func (m *Memory) Get(ctx context.Context, id string) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	m.mu.RLock()
	data, ok := m.projects[id]
	m.mu.RUnlock()
	if !ok {
		return Project{}, ErrNotFound
	}
	return decode(data)
}

func (m *Memory) List(ctx context.Context) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Project, 0, len(m.projects))
	for _, data := range m.projects {
		project, err := decode(data)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		out = append(out, project)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
