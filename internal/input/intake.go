// Package input implements input intake (C11): a per-device key event queue
// fed from an OS keyboard source, filtered by keystate mask and mapped to
// matrix coordinates through a device's descriptor key map.
package input

import (
	"context"
	"sync"
	"time"

	"github.com/chromad/chromad/internal/descriptor"
)

// KeyState is the closed set of key transitions a renderer may subscribe to.
type KeyState string

const (
	KeyDown KeyState = "down"
	KeyUp   KeyState = "up"
	KeyHold KeyState = "hold"
)

// Event is one delivered key input event, per spec §4.11.
type Event struct {
	Keycode   string
	State     KeyState
	Coords    []descriptor.Point
	Payload   map[string]any
	ArrivedAt time.Time
	ExpireAt  time.Time
}

func (e Event) expired(now time.Time) bool {
	return now.After(e.ExpireAt)
}

// Intake is the per-device event queue. Source implementations call Push as
// raw keycodes arrive; renderers call PopEvents to consume the live set.
type Intake struct {
	mu         sync.Mutex
	mask       map[KeyState]struct{}
	events     []Event
	coordsOf   func(string) []descriptor.Point
	notifyCh   chan struct{}
	expireTime time.Duration
}

// NewIntake builds an Intake for d's key map, delivering only the key states
// in mask (all three if mask is empty), expiring events after expireAfter.
func NewIntake(d *descriptor.Descriptor, mask []KeyState, expireAfter time.Duration) *Intake {
	m := make(map[KeyState]struct{}, len(mask))
	for _, s := range mask {
		m[s] = struct{}{}
	}
	return &Intake{
		mask:       m,
		coordsOf:   d.CoordsOf,
		notifyCh:   make(chan struct{}, 1),
		expireTime: expireAfter,
	}
}

func (i *Intake) allowed(state KeyState) bool {
	if len(i.mask) == 0 {
		return true
	}
	_, ok := i.mask[state]
	return ok
}

// CoordsOf returns the matrix cells a keycode maps to, or nil if unmapped.
func (i *Intake) CoordsOf(keycode string) []descriptor.Point {
	return i.coordsOf(keycode)
}

// Push enqueues a raw keystate transition, dropping it if the state is
// filtered by the intake's mask. Each pushed event gets its own Payload map
// even when coalesced with another event of the same keycode in the same
// tick, per spec §4.11's coalescing rule.
func (i *Intake) Push(keycode string, state KeyState, now time.Time) {
	if !i.allowed(state) {
		return
	}
	ev := Event{
		Keycode:   keycode,
		State:     state,
		Coords:    i.coordsOf(keycode),
		Payload:   make(map[string]any),
		ArrivedAt: now,
		ExpireAt:  now.Add(i.expireTime),
	}
	i.mu.Lock()
	i.events = append(i.events, ev)
	i.mu.Unlock()
	select {
	case i.notifyCh <- struct{}{}:
	default:
	}
}

func (i *Intake) pruneExpired(now time.Time) []Event {
	live := i.events[:0]
	for _, e := range i.events {
		if !e.expired(now) {
			live = append(live, e)
		}
	}
	i.events = live
	out := make([]Event, len(live))
	copy(out, live)
	return out
}

// PopEvents returns the current non-expired event set, blocking until at
// least one is available or ctx is cancelled (renderer shutdown).
func (i *Intake) PopEvents(ctx context.Context) ([]Event, error) {
	for {
		i.mu.Lock()
		live := i.pruneExpired(time.Now())
		i.mu.Unlock()
		if len(live) > 0 {
			return live, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-i.notifyCh:
		case <-time.After(50 * time.Millisecond):
		}
	}
}
