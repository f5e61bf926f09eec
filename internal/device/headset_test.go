package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/device"
	"github.com/chromad/chromad/internal/protocol"
)

// fakeHeadsetTransport implements both device.Transport and
// device.HeadsetTransport, echoing back whatever was last sent so
// ReadMemory/WriteMemory can be exercised without a real hidraw node.
type fakeHeadsetTransport struct {
	fakeTransport
	lastSent [protocol.HeadsetOutputSize]byte
	reply    [protocol.HeadsetInputSize]byte
}

func (f *fakeHeadsetTransport) SendHeadsetFeature(report [protocol.HeadsetOutputSize]byte) error {
	f.lastSent = report
	return nil
}

func (f *fakeHeadsetTransport) ReadHeadsetFeature() ([protocol.HeadsetInputSize]byte, error) {
	return f.reply, nil
}

func newHeadsetTestDevice(t *testing.T, ft *fakeHeadsetTransport) *device.Device {
	t.Helper()
	d, err := device.New("headset-0", descriptor.Kraken7_1(), ft)
	require.NoError(t, err)
	return d
}

func TestReadMemory_RAM(t *testing.T) {
	ft := &fakeHeadsetTransport{}
	ft.reply[0] = protocol.HeadsetInputReportID
	ft.reply[1] = 0xAB
	ft.reply[2] = 0xCD
	d := newHeadsetTestDevice(t, ft)

	data, err := d.ReadMemory(0x10, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, data)
	assert.Equal(t, byte(protocol.HeadsetReadRAM), ft.lastSent[1])
	assert.Equal(t, byte(2), ft.lastSent[2])
	assert.Equal(t, byte(0x00), ft.lastSent[3])
	assert.Equal(t, byte(0x10), ft.lastSent[4])
}

func TestReadMemory_EEPROM(t *testing.T) {
	ft := &fakeHeadsetTransport{}
	d := newHeadsetTestDevice(t, ft)

	_, err := d.ReadMemory(0, 4, true)
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.HeadsetReadEEPROM), ft.lastSent[1])
}

func TestWriteMemory(t *testing.T) {
	ft := &fakeHeadsetTransport{}
	d := newHeadsetTestDevice(t, ft)

	require.NoError(t, d.WriteMemory(0x20, []byte{1, 2, 3}))
	assert.Equal(t, byte(protocol.HeadsetWriteRAM), ft.lastSent[1])
	assert.Equal(t, byte(3), ft.lastSent[2])
	assert.Equal(t, []byte{1, 2, 3}, ft.lastSent[5:8])
}

func TestWriteMemory_RejectsOversizedPayload(t *testing.T) {
	ft := &fakeHeadsetTransport{}
	d := newHeadsetTestDevice(t, ft)

	err := d.WriteMemory(0, make([]byte, protocol.HeadsetMaxDataSize+1))
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeInvalidArgument, chromaerr.CodeOf(err))
}

func TestReadMemory_RequiresHeadsetCapability(t *testing.T) {
	ft := &fakeHeadsetTransport{}
	d, err := device.New("keyboard-0", descriptor.LegacyKeyboard(), ft)
	require.NoError(t, err)

	_, err = d.ReadMemory(0, 1, false)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeUnsupported, chromaerr.CodeOf(err))
}

func TestReadMemory_RequiresTransportSupport(t *testing.T) {
	ft := &fakeTransport{}
	d, err := device.New("headset-0", descriptor.Kraken7_1(), ft)
	require.NoError(t, err)

	_, err = d.ReadMemory(0, 1, false)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeUnsupported, chromaerr.CodeOf(err))
}
