// Package store persists generated projects: the requirements, the schema,
// and the tests and endpoints derived from it. It replaces browser session
// storage with an explicit, swappable backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

var (
	// ErrNotFound is returned when no project has the requested id.
	ErrNotFound = errors.New("store: project not found")
	// ErrNoID is returned when saving a project without an id.
	ErrNoID = errors.New("store: project id is required")
)

// Preferences records per-project presentation choices.
type Preferences struct {
	Theme   string `json:"theme,omitempty"`
	Variant string `json:"variant,omitempty"`
}

// Project is the unit of persistence. The schema, tests and endpoints are
// always replaced together.
type Project struct {
	ID           string             `json:"id"`
	Requirements string             `json:"requirements"`
	Mode         input.Mode         `json:"mode"`
	Schema       schema.FormSchema  `json:"schema"`
	Tests        []testgen.TestCase `json:"tests"`
	Endpoints    []mockapi.Endpoint `json:"endpoints"`
	Preferences  Preferences        `json:"preferences"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Store is implemented by every backend.
type Store interface {
	// Save inserts or replaces a project. CreatedAt is preserved for existing
	// projects; UpdatedAt is always set to the store clock.
	Save(ctx context.Context, project Project) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	// List returns projects, most recently updated first.
	List(ctx context.Context) ([]Project, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	return o
}

func encode(project Project) ([]byte, error) {
	data, err := json.Marshal(project)
	if err != nil {
		return nil, fmt.Errorf("store: encode project %s: %w", project.ID, err)
	}
	return data, nil
}

func decode(data []byte) (Project, error) {
	var project Project
	if err := json.Unmarshal(data, &project); err != nil {
		return Project{}, fmt.Errorf("store: decode project: %w", err)
	}
	return project, nil
}

func stamp(project Project, existing *Project, now time.Time) Project {
	now = now.UTC()
	switch {
	case existing != nil && !existing.CreatedAt.IsZero():
		project.CreatedAt = existing.CreatedAt
	case project.CreatedAt.IsZero():
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	return project
}
