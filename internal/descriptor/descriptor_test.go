package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/descriptor"
)

func TestStore_LookupBuiltins(t *testing.T) {
	s := descriptor.NewStore()
	s.LoadBuiltins()

	d, ok := s.Lookup(0x1532, 0x0203)
	require.True(t, ok)
	assert.Equal(t, descriptor.KindKeyboard, d.Kind)
	assert.True(t, d.HasEffect("static"))
	assert.False(t, d.HasEffect("starlight"))

	_, ok = s.Lookup(0xffff, 0xffff)
	assert.False(t, ok)
}

func TestDescriptor_CoordsOfUnmappedKeyIsEmpty(t *testing.T) {
	d := descriptor.LegacyKeyboard()
	assert.Empty(t, d.CoordsOf("KEY_UNKNOWN"))
	assert.Equal(t, []descriptor.Point{{Row: 3, Col: 5}}, d.CoordsOf("KEY_A"))
}

func TestDescriptor_HasCapability(t *testing.T) {
	d := descriptor.WirelessMouse()
	assert.True(t, d.HasCapability(descriptor.CapWireless))
	assert.False(t, d.HasCapability(descriptor.CapSystemControl))
}

func TestStore_AllReturnsEveryLoaded(t *testing.T) {
	s := descriptor.NewStore()
	s.LoadBuiltins()
	assert.Len(t, s.All(), 4)
}
