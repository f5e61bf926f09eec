package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/protocol"
)

// TestPack_StaticEffectScenario reproduces spec §8 scenario 1: a legacy-
// profile SET_EFFECT(static) request.
func TestPack_StaticEffectScenario(t *testing.T) {
	class, id := protocol.EffectCommand(protocol.Legacy)
	effectID, err := protocol.ResolveEffectID("static", protocol.Legacy)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x06), effectID)

	report, err := protocol.Pack(protocol.Request{
		TransactionID: protocol.Legacy.TransactionID,
		CommandClass:  class,
		CommandID:     id,
		DataSize:      1,
		Args:          []byte{effectID},
	})
	require.NoError(t, err)

	assert.Equal(t, byte(0xFF), report[1])
	assert.Equal(t, byte(0x03), report[6])
	assert.Equal(t, byte(0x0A), report[7])
	assert.Equal(t, byte(0x06), report[8])
	assert.Equal(t, byte(0), report[0])
	assert.Equal(t, byte(0), report[89])
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	report, err := protocol.Pack(protocol.Request{
		TransactionID: 0x1F,
		CommandClass:  0x0F,
		CommandID:     0x02,
		DataSize:      3,
		Args:          []byte{0x01, 0x02, 0x03},
	})
	require.NoError(t, err)

	resp := protocol.Unpack(report, false)
	assert.True(t, resp.CRCOk)
	assert.Equal(t, uint8(0x1F), resp.TransactionID)
	assert.Equal(t, uint8(0x0F), resp.CommandClass)
	assert.Equal(t, uint8(0x02), resp.CommandID)
}

func TestUnpack_CorruptCRCDetected(t *testing.T) {
	report, err := protocol.Pack(protocol.Request{TransactionID: 0xFF, CommandClass: 0x03, CommandID: 0x0A})
	require.NoError(t, err)
	report[10] ^= 0xFF // corrupt a byte inside the CRC range without touching the CRC byte itself

	resp := protocol.Unpack(report, false)
	assert.False(t, resp.CRCOk)
}

func TestUnpack_CRCSkipOnOKPolicy(t *testing.T) {
	report, err := protocol.Pack(protocol.Request{TransactionID: 0x9F, CommandClass: 0x07, CommandID: 0x80})
	require.NoError(t, err)
	report[0] = byte(protocol.StatusOK)
	report[10] ^= 0xFF // corrupt CRC range; crc_skip_on_ok should paper over this when status is OK

	resp := protocol.Unpack(report, true)
	assert.True(t, resp.CRCOk)
	assert.Equal(t, protocol.StatusOK, resp.Status)
}

func TestUnpack_UnknownStatusNormalizesToFail(t *testing.T) {
	var report [protocol.ReportSize]byte
	report[0] = 0x7E // not in the closed status set
	resp := protocol.Unpack(report, false)
	assert.Equal(t, protocol.StatusFail, resp.Status)
}

func TestPack_RejectsOversizedArgs(t *testing.T) {
	_, err := protocol.Pack(protocol.Request{Args: make([]byte, 81)})
	assert.Error(t, err)
}
