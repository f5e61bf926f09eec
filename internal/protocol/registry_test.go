package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/protocol"
)

func TestCommand_LooksUpKnownNames(t *testing.T) {
	cmd, ok := protocol.Command("set_effect")
	require.True(t, ok)
	assert.Equal(t, protocol.ClassLegacyLED, cmd.CommandClass)
}

func TestCheckProfile_RejectsUnsupportedCombination(t *testing.T) {
	cmd, ok := protocol.Command("get_battery")
	require.True(t, ok)

	err := cmd.CheckProfile(protocol.Legacy)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeUnsupported, chromaerr.CodeOf(err))

	assert.NoError(t, cmd.CheckProfile(protocol.WirelessKeyboard))
}

func TestResolveEffectID_StarlightHasNoLegacyMapping(t *testing.T) {
	_, err := protocol.ResolveEffectID("starlight", protocol.Legacy)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeUnsupported, chromaerr.CodeOf(err))

	id, err := protocol.ResolveEffectID("starlight", protocol.Modern)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x19), id)
}

func TestEffectCommand_SelectsClassByProfile(t *testing.T) {
	class, id := protocol.EffectCommand(protocol.Legacy)
	assert.Equal(t, protocol.ClassLegacyLED, class)
	assert.Equal(t, uint8(0x0A), id)

	class, id = protocol.EffectCommand(protocol.Extended)
	assert.Equal(t, protocol.ClassExtendedLED, class)
	assert.Equal(t, uint8(0x02), id)
}
