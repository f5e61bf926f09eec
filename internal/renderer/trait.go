// Package renderer implements the renderer contract (C9): immutable
// metadata, a closed-union configurable trait system with validating
// setters, and a base type built-in renderers embed for the trait bookkeeping
// and key-input plumbing common to all of them.
package renderer

import (
	"fmt"
	"sync"
)

// Meta is a renderer's immutable identity, per spec §4.9.
type Meta struct {
	Name        string
	Description string
	Author      string
	Version     string
}

// Color is a single RGB trait value.
type Color struct {
	R, G, B uint8
}

// Kind is the closed union of trait types from spec §4.9.
type Kind string

const (
	KindBoundedFloat Kind = "bounded_float"
	KindBoundedInt   Kind = "bounded_int"
	KindBool         Kind = "bool"
	KindEnum         Kind = "enum"
	KindString       Kind = "string"
	KindColor        Kind = "color"
	KindColorList    Kind = "color_list"
	KindPreset       Kind = "preset"
)

// Spec describes a single trait's type and constraints. Only the fields
// relevant to Kind are meaningful.
type Spec struct {
	Kind Kind

	Min, Max float64 // bounded_float, bounded_int
	Choices  []string // enum, preset (preset's choice keys)

	MinColors int // color_list

	Presets map[string][]Color // preset: choice name -> color list
}

// validate checks value against spec, returning a normalized value or an
// error naming why assignment was rejected.
func (s Spec) validate(value any) (any, error) {
	switch s.Kind {
	case KindBoundedFloat:
		v, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("expected a number")
		}
		if v < s.Min || v > s.Max {
			return nil, fmt.Errorf("value %v out of range [%v, %v]", v, s.Min, s.Max)
		}
		return v, nil
	case KindBoundedInt:
		v, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("expected an integer")
		}
		iv := int(v)
		if float64(iv) < s.Min || float64(iv) > s.Max {
			return nil, fmt.Errorf("value %v out of range [%v, %v]", iv, s.Min, s.Max)
		}
		return iv, nil
	case KindBool:
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a bool")
		}
		return v, nil
	case KindEnum:
		v, ok := value.(string)
		if !ok || !contains(s.Choices, v) {
			return nil, fmt.Errorf("value %v not in %v", value, s.Choices)
		}
		return v, nil
	case KindString:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		return v, nil
	case KindColor:
		v, ok := value.(Color)
		if !ok {
			return nil, fmt.Errorf("expected a color")
		}
		return v, nil
	case KindColorList:
		v, ok := value.([]Color)
		if !ok || len(v) < s.MinColors {
			return nil, fmt.Errorf("expected at least %d colors", s.MinColors)
		}
		return v, nil
	case KindPreset:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a preset name")
		}
		if _, ok := s.Presets[v]; !ok {
			return nil, fmt.Errorf("unknown preset %q", v)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown trait kind %q", s.Kind)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}

func contains(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

// Set is a live, thread-safe collection of a renderer's trait definitions,
// current values, and re-derivation subscribers, per spec §4.9: "a
// subscription mechanism re-derives before the next draw."
type Set struct {
	mu          sync.Mutex
	order       []string
	specs       map[string]Spec
	values      map[string]any
	subscribers map[string][]func()
}

// NewSet builds an empty trait set.
func NewSet() *Set {
	return &Set{
		specs:       make(map[string]Spec),
		values:      make(map[string]any),
		subscribers: make(map[string][]func()),
	}
}

// Define registers a trait with its spec and initial value. Define is only
// safe to call during renderer construction, before the trait set is shared
// with the compositor.
func (s *Set) Define(name string, spec Spec, initial any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.specs[name]; !exists {
		s.order = append(s.order, name)
	}
	s.specs[name] = spec
	s.values[name] = initial
}

// Subscribe registers fn to run whenever name's value successfully changes.
func (s *Set) Subscribe(name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[name] = append(s.subscribers[name], fn)
}

// Get returns the trait's current value.
func (s *Set) Get(name string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name]
}

// Set validates and applies a new trait value, invoking any re-derivation
// subscribers on success. On validation failure the prior value is left
// untouched, per spec §4.9.
func (s *Set) Set(name string, value any) error {
	s.mu.Lock()
	spec, ok := s.specs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("no such trait: %s", name)
	}
	normalized, err := spec.validate(value)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("trait %s: %w", name, err)
	}
	s.values[name] = normalized
	subs := append([]func(){}, s.subscribers[name]...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return nil
}

// Names returns the trait names in declaration order.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SpecOf returns the declared spec for name.
func (s *Set) SpecOf(name string) (Spec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.specs[name]
	return spec, ok
}
