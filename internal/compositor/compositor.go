package compositor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chromad/chromad/internal/chromaerr"
)

// MaxFPS is the compositor's global commit rate ceiling, per spec §4.10.
const MaxFPS = 30

// layerQueueCapacity is avail_q/active_q's bound, giving a renderer a
// one-frame lead over the compositor before it blocks, per spec §5.
const layerQueueCapacity = 2

// maxCommitFailures is the number of consecutive Frame.Commit errors the
// compositor tolerates before reporting the device offline, per spec §7.
const maxCommitFailures = 3

// slot tracks one active renderer's lifecycle: its layer queues, z-index,
// and the last composed layer used for sticky reuse when it misses a tick.
type slot struct {
	id       string
	r        Renderer
	zIndex   int
	availQ   chan *Layer
	activeQ  chan *Layer
	cancel   context.CancelFunc
	done     chan struct{}
	lastUsed *Layer

	// blendMode, opacity, and background are this layer's per-composite
	// parameters (spec §3/§4.8), configurable via SetLayerComposition and
	// read fresh by runRenderer on every Reset rather than hardcoded.
	blendMode  BlendMode
	opacity    float64
	background RGBA
}

// Compositor is the C10 animation compositor: it owns a device's renderer
// set, composites their output into a Frame at up to MaxFPS, and commits the
// result to the device driver.
type Compositor struct {
	mu         sync.Mutex
	frame      *Frame
	background RGBA
	slots      map[string]*slot
	nextZ      int
	paused     bool

	// commitFailures counts consecutive Frame.Commit errors. suspended is
	// set once it reaches maxCommitFailures, halting further commit attempts
	// until ClearCommitSuspension is called; offlineFunc is invoked exactly
	// once at that point so the owning manager can mark the device offline,
	// per spec §7.
	commitFailures int
	suspended      bool
	offlineFunc    func(error)

	hasKeyInput bool

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// New builds a Compositor bound to frame, optionally able to start
// key-input-dependent renderers when hasKeyInput is true.
func New(frame *Frame, hasKeyInput bool) *Compositor {
	return &Compositor{
		frame:       frame,
		slots:       make(map[string]*slot),
		hasKeyInput: hasKeyInput,
	}
}

// Start begins the compositor's main commit loop as a background goroutine.
func (c *Compositor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.loopCancel = cancel
	c.loopDone = make(chan struct{})
	c.mu.Unlock()
	go c.run(ctx)
}

func newLayerID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// AddRenderer validates traits are already set on r, calls Init, and on
// success spawns the renderer's task with freshly allocated layer queues. A
// zero zIndex auto-assigns one above the highest z-index this compositor has
// ever assigned; z-indices freed by RemoveRenderer are not reused, so after a
// removal the result can be larger than max(current)+1.
// A zIndex already held by another renderer is rejected with Conflict
// (spec §8 scenario 4) rather than silently stacking two layers at the same
// position.
func (c *Compositor) AddRenderer(r Renderer, zIndex int) (string, error) {
	if r.NeedsKeyInput() && !c.hasKeyInput {
		return "", chromaerr.Unsupported("renderer requires key input capability this device lacks")
	}

	c.mu.Lock()
	if zIndex == 0 {
		zIndex = c.nextZ + 1
	}
	for _, s := range c.slots {
		if s.zIndex == zIndex {
			c.mu.Unlock()
			return "", chromaerr.Conflict(fmt.Sprintf("z-index %d is already occupied", zIndex))
		}
	}
	if zIndex > c.nextZ {
		c.nextZ = zIndex
	}
	c.mu.Unlock()

	if !r.Init(c.frame) {
		return "", chromaerr.RendererFailed("renderer init returned false")
	}

	s := &slot{
		id:        newLayerID(),
		r:         r,
		zIndex:    zIndex,
		availQ:    make(chan *Layer, layerQueueCapacity),
		activeQ:   make(chan *Layer, layerQueueCapacity),
		done:      make(chan struct{}),
		blendMode: DefaultBlendMode,
		opacity:   1,
	}
	for i := 0; i < layerQueueCapacity; i++ {
		s.availQ <- NewLayer(c.frame.Rows, c.frame.Cols)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	c.mu.Lock()
	c.slots[s.id] = s
	c.mu.Unlock()

	go c.runRenderer(ctx, s)
	return s.id, nil
}

// RemoveRenderer cancels the renderer's task, drains both of its queues,
// calls Finish, and frees its layers.
func (c *Compositor) RemoveRenderer(id string) error {
	c.mu.Lock()
	s, ok := c.slots[id]
	if ok {
		delete(c.slots, id)
	}
	c.mu.Unlock()
	if !ok {
		return chromaerr.InvalidArgument("no such renderer layer: " + id)
	}

	s.cancel()
	<-s.done

	drain := func(ch chan *Layer) {
		for {
			select {
			case <-ch:
			default:
				return
			}
		}
	}
	drain(s.availQ)
	drain(s.activeQ)
	s.r.Finish(c.frame)
	return nil
}

// LayerSummary describes one active renderer slot for the "active_layers"
// device property, per spec §6.
type LayerSummary struct {
	LayerID    string
	ZIndex     int
	Renderer   string
	BlendMode  BlendMode
	Opacity    float64
	Background RGBA
}

// ActiveLayers returns a z-ordered snapshot of every renderer currently
// attached to the compositor.
func (c *Compositor) ActiveLayers() []LayerSummary {
	c.mu.Lock()
	out := make([]LayerSummary, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, LayerSummary{
			LayerID: s.id, ZIndex: s.zIndex, Renderer: s.r.Meta().Name,
			BlendMode: s.blendMode, Opacity: s.opacity, Background: s.background,
		})
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// SetLayerTraits applies a trait update to the renderer behind id, taking
// effect by its next draw call per spec §4.9.
func (c *Compositor) SetLayerTraits(id string, traits map[string]any) error {
	c.mu.Lock()
	s, ok := c.slots[id]
	c.mu.Unlock()
	if !ok {
		return chromaerr.InvalidArgument("no such renderer layer: " + id)
	}
	for name, value := range traits {
		if err := s.r.Traits().Set(name, value); err != nil {
			return chromaerr.InvalidArgument(err.Error())
		}
	}
	return nil
}

// SetLayerComposition updates a layer's blend mode, opacity, and/or
// background color — the per-layer composition parameters from spec
// §3/§4.8, distinct from the renderer's own tunable traits. A nil
// parameter leaves that field unchanged.
func (c *Compositor) SetLayerComposition(id string, blend *BlendMode, opacity *float64, background *RGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[id]
	if !ok {
		return chromaerr.InvalidArgument("no such renderer layer: " + id)
	}
	if blend != nil {
		if !ValidBlendMode(*blend) {
			return chromaerr.InvalidArgument("unknown blend mode: " + string(*blend))
		}
		s.blendMode = *blend
	}
	if opacity != nil {
		if *opacity < 0 || *opacity > 1 {
			return chromaerr.InvalidArgument("opacity out of range [0,1]")
		}
		s.opacity = *opacity
	}
	if background != nil {
		s.background = *background
	}
	return nil
}

// SetOfflineFunc registers the callback run when commit failures reach
// maxCommitFailures. fn receives the last commit error. Must be set before
// Start for a device whose manager wants offline notification.
func (c *Compositor) SetOfflineFunc(fn func(error)) {
	c.mu.Lock()
	c.offlineFunc = fn
	c.mu.Unlock()
}

// Pause halts composition while leaving renderer tasks running; they may
// continue filling active_q up to its capacity and then block, per spec §5.
func (c *Compositor) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume continues consumption from the paused state.
func (c *Compositor) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// ClearCommitSuspension lifts a commit-failure suspension (spec §7) and
// resets its failure count, independent of the user-facing Pause/Resume
// state. Called once a device that was failing commits is confirmed back
// online.
func (c *Compositor) ClearCommitSuspension() {
	c.mu.Lock()
	c.suspended = false
	c.commitFailures = 0
	c.mu.Unlock()
}

// StopAll removes every renderer, then resets the device driver.
func (c *Compositor) StopAll(reset func() error) error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.slots))
	for id := range c.slots {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		_ = c.RemoveRenderer(id)
	}
	return reset()
}

// Close tears down the compositor's commit loop and every active renderer.
func (c *Compositor) Close() {
	c.mu.Lock()
	cancel := c.loopCancel
	done := c.loopDone
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	_ = c.StopAll(func() error { return nil })
}

// runRenderer is the per-renderer cooperative task loop from spec §4.9.
func (c *Compositor) runRenderer(ctx context.Context, s *slot) {
	defer close(s.done)

	fps := s.r.FPS()
	if fps < 1 {
		fps = 1
	}
	if fps > MaxFPS {
		fps = MaxFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var layer *Layer
		select {
		case layer = <-s.availQ:
		case <-ctx.Done():
			return
		}

		c.mu.Lock()
		bg, blend, opacity := s.background, s.blendMode, s.opacity
		c.mu.Unlock()
		layer.Reset(bg, blend, opacity)
		submit := s.r.Draw(layer, time.Now())

		if submit {
			layer.Locked = true
			select {
			case s.activeQ <- layer:
			case <-ctx.Done():
				return
			}
		} else {
			select {
			case s.availQ <- layer:
			case <-ctx.Done():
				return
			}
		}
	}
}

// run is the compositor's own main loop: it waits for at least one
// renderer's active_q to hold a layer, composites all available layers in
// z-order (reusing the last composed layer for renderers that missed this
// tick), and commits.
func (c *Compositor) run(ctx context.Context) {
	defer close(c.loopDone)

	ticker := time.NewTicker(time.Second / MaxFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		paused := c.paused || c.suspended
		slots := make([]*slot, 0, len(c.slots))
		for _, s := range c.slots {
			slots = append(slots, s)
		}
		c.mu.Unlock()
		if paused || len(slots) == 0 {
			continue
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].zIndex < slots[j].zIndex })

		produced := false
		type composed struct {
			s     *slot
			layer *Layer
			fresh bool
		}
		picks := make([]composed, 0, len(slots))
		for _, s := range slots {
			select {
			case l := <-s.activeQ:
				produced = true
				picks = append(picks, composed{s: s, layer: l, fresh: true})
			default:
				if s.lastUsed != nil {
					picks = append(picks, composed{s: s, layer: s.lastUsed, fresh: false})
				}
			}
		}
		if !produced {
			continue
		}

		c.frame.Clear()
		for _, p := range picks {
			c.frame.Blit(p.layer)
			if p.fresh {
				p.s.lastUsed = p.layer
			}
		}
		if err := c.frame.Commit(); err != nil {
			c.mu.Lock()
			c.commitFailures++
			failures := c.commitFailures
			fn := c.offlineFunc
			if failures >= maxCommitFailures {
				c.suspended = true
			}
			c.mu.Unlock()
			if failures >= maxCommitFailures && fn != nil {
				fn(err)
			}
			// Fresh layers are still handed back below so their renderers
			// keep producing; the next tick retries with a newly composited
			// frame instead of replaying this one.
		} else {
			c.mu.Lock()
			c.commitFailures = 0
			c.mu.Unlock()
		}

		for _, p := range picks {
			if !p.fresh {
				continue
			}
			p.layer.Locked = false
			select {
			case p.s.availQ <- p.layer:
			default:
			}
		}
	}
}

