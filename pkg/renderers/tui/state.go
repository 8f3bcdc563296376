package tui

import (
	"maps"
	"slices"
)

// State tracks collected answers and the validation messages attached to
// each field. Fields are flat, so keys are field names.
type State struct {
	values map[string]any
	errors map[string][]string
}

// NewState seeds the state with prefilled values and errors.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	s := &State{
		values: make(map[string]any, len(prefill)),
		errors: make(map[string][]string, len(errs)),
	}
	maps.Copy(s.values, prefill)
	for name, messages := range errs {
		s.errors[name] = slices.Clone(messages)
	}
	return s
}

// Values returns the collected values (mutable).
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// ErrorsFor returns the messages attached to a field.
func (s *State) ErrorsFor(name string) []string {
	if s == nil {
		return nil
	}
	return s.errors[name]
}

// Value returns the current answer for a field.
func (s *State) Value(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Set records an answer and clears stale errors for the field.
func (s *State) Set(name string, value any) {
	s.values[name] = value
	delete(s.errors, name)
}

// Clear removes an answer, used when an optional field is left blank.
func (s *State) Clear(name string) {
	delete(s.values, name)
	delete(s.errors, name)
}
