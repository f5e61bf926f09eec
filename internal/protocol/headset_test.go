package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/protocol"
)

func TestPackHeadsetRequest_ReadRAM(t *testing.T) {
	report, err := protocol.PackHeadsetRequest(protocol.HeadsetRequest{
		Destination: protocol.HeadsetReadRAM,
		Length:      4,
		Address:     0x0102,
	})
	require.NoError(t, err)

	assert.Equal(t, byte(protocol.HeadsetOutputReportID), report[0])
	assert.Equal(t, byte(protocol.HeadsetReadRAM), report[1])
	assert.Equal(t, byte(4), report[2])
	assert.Equal(t, byte(0x01), report[3])
	assert.Equal(t, byte(0x02), report[4])
}

func TestPackHeadsetRequest_WriteRAMCarriesData(t *testing.T) {
	report, err := protocol.PackHeadsetRequest(protocol.HeadsetRequest{
		Destination: protocol.HeadsetWriteRAM,
		Length:      3,
		Data:        []byte{0xAA, 0xBB, 0xCC},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, report[5:8])
}

func TestPackHeadsetRequest_RejectsOversizedData(t *testing.T) {
	_, err := protocol.PackHeadsetRequest(protocol.HeadsetRequest{Data: make([]byte, protocol.HeadsetMaxDataSize+1)})
	assert.Error(t, err)
}

func TestUnpackHeadsetResponse(t *testing.T) {
	var buf [protocol.HeadsetInputSize]byte
	buf[0] = protocol.HeadsetInputReportID
	buf[1] = 0x11
	buf[2] = 0x22

	resp := protocol.UnpackHeadsetResponse(buf)
	require.Len(t, resp.Payload, protocol.HeadsetInputSize-1)
	assert.Equal(t, byte(0x11), resp.Payload[0])
	assert.Equal(t, byte(0x22), resp.Payload[1])
}
