package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chromad/chromad/internal/protocol"
)

func TestByID_KnownProfiles(t *testing.T) {
	p, ok := protocol.ByID("wireless_keyboard")
	assert.True(t, ok)
	assert.Equal(t, uint8(0x9F), p.TransactionID)
	assert.True(t, p.UsesExtendedEffectClass)
}

func TestByID_Unknown(t *testing.T) {
	_, ok := protocol.ByID("nonexistent")
	assert.False(t, ok)
}
