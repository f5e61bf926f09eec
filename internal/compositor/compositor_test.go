package compositor_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

// fakeDriver records every committed frame's bytes. failNext, if positive,
// counts down and returns an error from CommitMatrix instead of recording.
type fakeDriver struct {
	mu       sync.Mutex
	commits  [][][]byte
	resets   int
	failNext int
}

func (f *fakeDriver) CommitMatrix(rows [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return errors.New("commit failed")
	}
	f.commits = append(f.commits, rows)
	return nil
}

func (f *fakeDriver) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commits)
}

// solidRenderer fills every pixel with a fixed color, on demand.
type solidRenderer struct {
	renderer.Base
	color compositor.RGBA
}

func newSolidRenderer(color compositor.RGBA) *solidRenderer {
	return &solidRenderer{Base: renderer.NewBase(renderer.Meta{Name: "solid"}, false), color: color}
}

func (r *solidRenderer) FPS() int                               { return 30 }
func (r *solidRenderer) Init(frame *compositor.Frame) bool      { return true }
func (r *solidRenderer) Finish(frame *compositor.Frame)         {}
func (r *solidRenderer) Draw(layer *compositor.Layer, now time.Time) bool {
	for row := 0; row < layer.Rows; row++ {
		for col := 0; col < layer.Cols; col++ {
			layer.Put(row, col, r.color)
		}
	}
	return true
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.FailNow(t, "condition never became true")
}

func TestCompositor_CommitsCompositedFrame(t *testing.T) {
	drv := &fakeDriver{}
	frame := compositor.NewFrame(testDescriptor(), drv)
	c := compositor.New(frame, false)
	c.Start()
	defer c.Close()

	id, err := c.AddRenderer(newSolidRenderer(compositor.RGBA{R: 1, G: 0, B: 0, A: 1}), 1)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	waitFor(t, func() bool { return len(drv.commits) > 0 })
	row := drv.commits[len(drv.commits)-1][0]
	assert.Equal(t, byte(255), row[0])
}

func TestCompositor_RejectsKeyInputRendererWithoutCapability(t *testing.T) {
	drv := &fakeDriver{}
	frame := compositor.NewFrame(testDescriptor(), drv)
	c := compositor.New(frame, false)

	r := &solidRenderer{Base: renderer.NewBase(renderer.Meta{Name: "needs-input"}, true)}
	_, err := c.AddRenderer(r, 1)
	require.Error(t, err)
}

func TestCompositor_RemoveRendererStopsProducingFrames(t *testing.T) {
	drv := &fakeDriver{}
	frame := compositor.NewFrame(testDescriptor(), drv)
	c := compositor.New(frame, false)
	c.Start()
	defer c.Close()

	id, err := c.AddRenderer(newSolidRenderer(compositor.RGBA{R: 1, A: 1}), 1)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(drv.commits) > 0 })

	require.NoError(t, c.RemoveRenderer(id))
}

// TestCompositor_ScenarioTwoLayersComposeByZIndex reproduces spec §8
// scenario 3: a z=1 layer and a z=2 layer are both added, the upper one set
// to the normal blend mode, and the committed frame reflects the higher
// z-index's output on top.
func TestCompositor_ScenarioTwoLayersComposeByZIndex(t *testing.T) {
	drv := &fakeDriver{}
	frame := compositor.NewFrame(testDescriptor(), drv)
	c := compositor.New(frame, false)
	c.Start()
	defer c.Close()

	_, err := c.AddRenderer(newSolidRenderer(compositor.RGBA{R: 1, G: 0, B: 0, A: 1}), 1)
	require.NoError(t, err)
	topID, err := c.AddRenderer(newSolidRenderer(compositor.RGBA{R: 0, G: 1, B: 0, A: 1}), 2)
	require.NoError(t, err)
	require.NotEmpty(t, topID)
	normal := compositor.BlendNormal
	require.NoError(t, c.SetLayerComposition(topID, &normal, nil, nil))

	waitFor(t, func() bool { return len(drv.commits) > 0 })
	row := drv.commits[len(drv.commits)-1][0]
	assert.Equal(t, byte(0), row[0])
	assert.Equal(t, byte(255), row[1])

	layers := c.ActiveLayers()
	require.Len(t, layers, 2)
	assert.Equal(t, 1, layers[0].ZIndex)
	assert.Equal(t, 2, layers[1].ZIndex)
}

// TestCompositor_ScenarioDuplicateZIndexConflict reproduces spec §8 scenario
// 4: adding a renderer at a z-index already occupied by another renderer is
// rejected with Conflict.
func TestCompositor_ScenarioDuplicateZIndexConflict(t *testing.T) {
	drv := &fakeDriver{}
	frame := compositor.NewFrame(testDescriptor(), drv)
	c := compositor.New(frame, false)
	c.Start()
	defer c.Close()

	_, err := c.AddRenderer(newSolidRenderer(compositor.RGBA{R: 1, A: 1}), 1)
	require.NoError(t, err)

	_, err = c.AddRenderer(newSolidRenderer(compositor.RGBA{G: 1, A: 1}), 1)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeConflict, chromaerr.CodeOf(err))
}

// TestCompositor_OfflineAfterConsecutiveCommitFailures reproduces spec §7: a
// device whose driver fails three consecutive commits is reported offline
// once, and no further commits succeed until the suspension is cleared.
func TestCompositor_OfflineAfterConsecutiveCommitFailures(t *testing.T) {
	drv := &fakeDriver{failNext: 3}
	frame := compositor.NewFrame(testDescriptor(), drv)
	c := compositor.New(frame, false)

	var offlineCalls int
	var mu sync.Mutex
	c.SetOfflineFunc(func(err error) {
		mu.Lock()
		offlineCalls++
		mu.Unlock()
	})
	c.Start()
	defer c.Close()

	_, err := c.AddRenderer(newSolidRenderer(compositor.RGBA{R: 1, A: 1}), 1)
	require.NoError(t, err)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return offlineCalls == 1
	})

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	calls := offlineCalls
	mu.Unlock()
	assert.Equal(t, 1, calls, "offline callback must fire exactly once")
	assert.Equal(t, 0, drv.commitCount(), "no commit should succeed while suspended")

	c.ClearCommitSuspension()
	waitFor(t, func() bool { return drv.commitCount() > 0 })
}
