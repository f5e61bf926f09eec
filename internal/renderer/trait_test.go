package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/renderer"
)

func TestSet_BoundedFloatRejectsOutOfRange(t *testing.T) {
	s := renderer.NewSet()
	s.Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 5}, 1.0)

	require.Error(t, s.Set("speed", 10.0))
	assert.Equal(t, 1.0, s.Get("speed"), "rejected assignment must leave the prior value")
}

func TestSet_BoundedFloatAcceptsInRange(t *testing.T) {
	s := renderer.NewSet()
	s.Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 5}, 1.0)

	require.NoError(t, s.Set("speed", 2.5))
	assert.Equal(t, 2.5, s.Get("speed"))
}

func TestSet_SubscriberFiresOnChange(t *testing.T) {
	s := renderer.NewSet()
	s.Define("gradient", renderer.Spec{Kind: renderer.KindEnum, Choices: []string{"a", "b"}}, "a")
	fired := false
	s.Subscribe("gradient", func() { fired = true })

	require.NoError(t, s.Set("gradient", "b"))
	assert.True(t, fired)
}

func TestSet_SubscriberDoesNotFireOnRejectedChange(t *testing.T) {
	s := renderer.NewSet()
	s.Define("gradient", renderer.Spec{Kind: renderer.KindEnum, Choices: []string{"a", "b"}}, "a")
	fired := false
	s.Subscribe("gradient", func() { fired = true })

	require.Error(t, s.Set("gradient", "nope"))
	assert.False(t, fired)
}

func TestSet_ColorListRejectsBelowMinimum(t *testing.T) {
	s := renderer.NewSet()
	s.Define("colors", renderer.Spec{Kind: renderer.KindColorList, MinColors: 2}, []renderer.Color{{R: 1}})

	require.Error(t, s.Set("colors", []renderer.Color{{R: 1}}))
}
