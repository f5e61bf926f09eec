package renderer

import (
	"context"

	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/input"
)

// InputSource is the narrow view of a device's input intake a key-input
// dependent renderer needs; it never gets the full Intake type so it cannot
// reach past pop/coords into unrelated device state.
type InputSource interface {
	PopEvents(ctx context.Context) ([]input.Event, error)
	CoordsOf(keycode string) []descriptor.Point
}

// Base is embedded by every built-in renderer: it owns the trait set and
// declares whether the renderer needs key input, factoring out the
// bookkeeping the contract in spec §4.9 requires of every implementation.
type Base struct {
	meta         Meta
	traits       *Set
	needsKeyInput bool
}

// NewBase builds a Base with the given identity and trait set.
func NewBase(meta Meta, needsKeyInput bool) Base {
	return Base{meta: meta, traits: NewSet(), needsKeyInput: needsKeyInput}
}

// Meta returns the renderer's immutable identity.
func (b *Base) Meta() Meta { return b.meta }

// Traits exposes the trait set for definition, inspection, and mutation.
func (b *Base) Traits() *Set { return b.traits }

// SetTrait validates and applies a trait value by name.
func (b *Base) SetTrait(name string, value any) error {
	return b.traits.Set(name, value)
}

// NeedsKeyInput reports whether the compositor must refuse to start this
// renderer on a device lacking the key_input capability.
func (b *Base) NeedsKeyInput() bool { return b.needsKeyInput }
