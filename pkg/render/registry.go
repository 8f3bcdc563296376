package render

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrUnknownRenderer is returned when no renderer answers to a name.
	ErrUnknownRenderer = errors.New("render: unknown renderer")
	// ErrDuplicateRenderer is returned when a name is registered twice.
	ErrDuplicateRenderer = errors.New("render: renderer already registered")
)

// Registry maps renderer names to renderers. Names are matched case
// insensitively. The first renderer registered is the fallback for an empty
// name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
	first  string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Renderer{}}
}

// Register adds renderers in order. It stops at the first invalid or
// duplicate one; renderers before it stay registered.
func (r *Registry) Register(renderers ...Renderer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, renderer := range renderers {
		if renderer == nil {
			return errors.New("render: nil renderer")
		}
		key := registryKey(renderer.Name())
		if key == "" {
			return errors.New("render: renderer has no name")
		}
		if _, taken := r.byName[key]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateRenderer, key)
		}
		r.byName[key] = renderer
		if r.first == "" {
			r.first = key
		}
	}
	return nil
}

// MustRegister is Register for wiring that cannot fail at runtime.
func (r *Registry) MustRegister(renderers ...Renderer) {
	if err := r.Register(renderers...); err != nil {
		panic(err)
	}
}

// Lookup finds a renderer by name. An empty name yields the first renderer
// registered.
func (r *Registry) Lookup(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := registryKey(name)
	if key == "" {
		key = r.first
	}
	if renderer, ok := r.byName[key]; ok {
		return renderer, nil
	}
	if key == "" {
		return nil, fmt.Errorf("%w: registry is empty", ErrUnknownRenderer)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, key)
}

// Names lists registered renderer names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
