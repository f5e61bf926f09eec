package device_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/device"
	"github.com/chromad/chromad/internal/protocol"
)

// fakeTransport is an in-memory stand-in for *hidio.Device: every
// SendFeature is echoed back by a scripted responder, letting tests drive
// the BUSY/TIMEOUT retry state machine deterministically.
type fakeTransport struct {
	mu        sync.Mutex
	sent      [][protocol.ReportSize]byte
	responder func(sent [protocol.ReportSize]byte, attempt int) [protocol.ReportSize]byte
	attempt   int
}

func (f *fakeTransport) SendFeature(report [protocol.ReportSize]byte) error {
	f.sent = append(f.sent, report)
	return nil
}

func (f *fakeTransport) ReadFeature() ([protocol.ReportSize]byte, error) {
	last := f.sent[len(f.sent)-1]
	resp := f.responder(last, f.attempt)
	f.attempt++
	return resp, nil
}

func (f *fakeTransport) WithDevice(profile protocol.Profile, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn()
}

func okResponse(class, id uint8) func([protocol.ReportSize]byte, int) [protocol.ReportSize]byte {
	return func(sent [protocol.ReportSize]byte, attempt int) [protocol.ReportSize]byte {
		req := protocol.Unpack(sent, false)
		resp, _ := protocol.Pack(protocol.Request{TransactionID: req.TransactionID, CommandClass: class, CommandID: id})
		resp[0] = byte(protocol.StatusOK)
		resp[88] = recomputeCRC(resp)
		return resp
	}
}

// recomputeCRC returns the XOR of bytes 1..86. Status byte 0 is outside that
// range, so setting it leaves the CRC Pack already wrote valid and the
// recomputed value equals it.
func recomputeCRC(report [protocol.ReportSize]byte) byte {
	var crc byte
	for i := 1; i < 87; i++ {
		crc ^= report[i]
	}
	return crc
}

func newTestDevice(t *testing.T, ft *fakeTransport) *device.Device {
	t.Helper()
	d, err := device.New("test-0", descriptor.LegacyKeyboard(), ft)
	require.NoError(t, err)
	return d
}

func TestGetFirmware_Success(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassDeviceInfo, 0x81)}
	d := newTestDevice(t, ft)

	_, err := d.GetFirmware()
	assert.NoError(t, err)
	assert.Len(t, ft.sent, 1)
}

func TestExec_RetriesOnBusyThenSucceeds(t *testing.T) {
	calls := 0
	ft := &fakeTransport{
		responder: func(sent [protocol.ReportSize]byte, attempt int) [protocol.ReportSize]byte {
			calls++
			req := protocol.Unpack(sent, false)
			resp, _ := protocol.Pack(protocol.Request{TransactionID: req.TransactionID, CommandClass: req.CommandClass, CommandID: req.CommandID})
			if calls < 3 {
				resp[0] = byte(protocol.StatusBusy)
			} else {
				resp[0] = byte(protocol.StatusOK)
			}
			resp[88] = recomputeCRC(resp)
			return resp
		},
	}
	d := newTestDevice(t, ft)

	_, err := d.GetSerial()
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExec_ExhaustsRetriesOnPersistentBusy(t *testing.T) {
	ft := &fakeTransport{
		responder: func(sent [protocol.ReportSize]byte, attempt int) [protocol.ReportSize]byte {
			req := protocol.Unpack(sent, false)
			resp, _ := protocol.Pack(protocol.Request{TransactionID: req.TransactionID, CommandClass: req.CommandClass, CommandID: req.CommandID})
			resp[0] = byte(protocol.StatusBusy)
			resp[88] = recomputeCRC(resp)
			return resp
		},
	}
	d := newTestDevice(t, ft)

	_, err := d.GetSerial()
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeTimeout, chromaerr.CodeOf(err))
}

func TestSetBrightness_RejectsUnknownLED(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassLegacyLED, 0x03)}
	d := newTestDevice(t, ft)

	err := d.SetBrightness("nonexistent", 128)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeInvalidArgument, chromaerr.CodeOf(err))
}

func TestSetBrightness_RecordsLastPercentage(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassLegacyLED, 0x03)}
	d := newTestDevice(t, ft)

	require.NoError(t, d.SetBrightness("backlight", 75))
	assert.Equal(t, uint8(75), d.Brightness("backlight"))
}

func TestSetBrightness_RejectsOutOfRangePercentage(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassLegacyLED, 0x03)}
	d := newTestDevice(t, ft)

	err := d.SetBrightness("backlight", 150)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeInvalidArgument, chromaerr.CodeOf(err))
}

func TestSetBrightness_ScenarioWirelessKeyboard75Percent(t *testing.T) {
	var sentArgs []byte
	ft := &fakeTransport{
		responder: func(sent [protocol.ReportSize]byte, attempt int) [protocol.ReportSize]byte {
			req := protocol.Unpack(sent, false)
			sentArgs = req.Payload
			resp, _ := protocol.Pack(protocol.Request{TransactionID: req.TransactionID, CommandClass: req.CommandClass, CommandID: req.CommandID})
			resp[0] = byte(protocol.StatusOK)
			resp[88] = recomputeCRC(resp)
			return resp
		},
	}
	d, err := device.New("wireless-0", descriptor.WirelessMouse(), ft)
	require.NoError(t, err)

	require.NoError(t, d.SetBrightness("logo", 75))
	require.Len(t, ft.sent, 1)
	assert.Equal(t, byte(0x9F), ft.sent[0][1])
	require.GreaterOrEqual(t, len(sentArgs), 3)
	assert.Equal(t, byte(0xBF), sentArgs[2])
}

func TestGetBattery_RejectsNonWirelessDevice(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassWireless, 0x80)}
	d := newTestDevice(t, ft)

	_, err := d.GetBattery()
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeUnsupported, chromaerr.CodeOf(err))
}

func TestGetBattery_WirelessDeviceScalesToPercent(t *testing.T) {
	ft := &fakeTransport{
		responder: func(sent [protocol.ReportSize]byte, attempt int) [protocol.ReportSize]byte {
			req := protocol.Unpack(sent, false)
			resp, _ := protocol.Pack(protocol.Request{TransactionID: req.TransactionID, CommandClass: req.CommandClass, CommandID: req.CommandID, Args: []byte{0xFF, 0xFF}})
			resp[0] = byte(protocol.StatusOK)
			resp[88] = recomputeCRC(resp)
			return resp
		},
	}
	d, err := device.New("wireless-0", descriptor.WirelessMouse(), ft)
	require.NoError(t, err)

	pct, err := d.GetBattery()
	require.NoError(t, err)
	assert.Equal(t, uint8(100), pct)
}

func TestSetFanRPM_RejectsOutOfBandRequest(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassFanEC, 0x03)}
	d, err := device.New("laptop-0", descriptor.SystemControlLaptop(), ft)
	require.NoError(t, err)

	_, err = d.SetFanRPM(context.Background(), 100)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeInvalidArgument, chromaerr.CodeOf(err))

	overridden, err := d.SetFanRPM(context.Background(), 3000)
	require.NoError(t, err)
	assert.False(t, overridden)
}

func TestSetFanRPM_RejectsOnNonLaptop(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassFanEC, 0x03)}
	d := newTestDevice(t, ft)

	_, err := d.SetFanRPM(context.Background(), 3000)
	require.Error(t, err)
	assert.Equal(t, chromaerr.CodeUnsupported, chromaerr.CodeOf(err))
}

// fakeThermalSource returns a fixed reading set, letting tests drive the
// thermal/safety overlay without touching /sys/class/hwmon.
type fakeThermalSource struct {
	readings map[string]float64
}

func (f *fakeThermalSource) ReadTemperatures(ctx context.Context) (map[string]float64, error) {
	return f.readings, nil
}

// TestSetFanRPM_ScenarioThermalOverride reproduces spec §8 scenario 6: a
// manual fan request at CPU=96°C is converted to set_fan_auto, and the same
// request proceeds normally once temperatures fall to 88°C.
func TestSetFanRPM_ScenarioThermalOverride(t *testing.T) {
	ft := &fakeTransport{responder: okResponse(protocol.ClassFanEC, 0x03)}
	d, err := device.New("laptop-0", descriptor.SystemControlLaptop(), ft)
	require.NoError(t, err)

	hot := &fakeThermalSource{readings: map[string]float64{"cpu": 96}}
	d.SetThermalSource(hot)

	overridden, err := d.SetFanRPM(context.Background(), 3500)
	require.NoError(t, err)
	assert.True(t, overridden)

	cool := &fakeThermalSource{readings: map[string]float64{"cpu": 88}}
	d.SetThermalSource(cool)

	overridden, err = d.SetFanRPM(context.Background(), 3500)
	require.NoError(t, err)
	assert.False(t, overridden)
}
