// Package device implements the device driver (C6): the per-peripheral
// object that knows its descriptor and protocol profile, serializes
// commands through the transport, retries BUSY/TIMEOUT responses with a
// linear backoff, and applies the laptop thermal/safety overlay.
package device

import (
	"fmt"
	"math"
	"time"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/protocol"
)

// retryDelays is the linear backoff schedule applied to BUSY/TIMEOUT
// responses before the request is retried, per spec §5.
var retryDelays = []time.Duration{7 * time.Millisecond, 14 * time.Millisecond, 28 * time.Millisecond}

// Transport is the subset of *hidio.Device a Device needs: send/receive one
// feature report under an exclusive, inter-command-delay-aware scope. A
// fake implementation lets the command/retry state machine be tested
// without a real hidraw node.
type Transport interface {
	SendFeature(report [protocol.ReportSize]byte) error
	ReadFeature() ([protocol.ReportSize]byte, error)
	WithDevice(profile protocol.Profile, fn func() error) error
}

// Device is a single connected Chroma peripheral.
type Device struct {
	ID         string
	Descriptor *descriptor.Descriptor
	Profile    protocol.Profile

	transport Transport

	brightness map[string]uint8
	suspended  bool
	offline    bool

	effectName string
	effectArgs []byte

	lastBattery  *uint8
	lastCharging *bool

	thermal         ThermalSource
	thermalOverride bool
	lastPowerMode   *PowerMode
}

// New builds a Device for a freshly resolved descriptor and transport.
func New(id string, d *descriptor.Descriptor, transport Transport) (*Device, error) {
	profile, ok := protocol.ByID(d.ProtocolProfileID)
	if !ok {
		return nil, chromaerr.ProtocolError("unknown protocol profile: " + d.ProtocolProfileID)
	}
	return &Device{
		ID:         id,
		Descriptor: d,
		Profile:    profile,
		transport:  transport,
		brightness: make(map[string]uint8),
	}, nil
}

// exec sends req and retries BUSY/TIMEOUT per the linear backoff schedule,
// returning the first non-retryable response or the final retry's outcome.
func (d *Device) exec(req protocol.Request) (protocol.Response, error) {
	if d.offline {
		return protocol.Response{}, chromaerr.DeviceOffline(d.ID + " is offline")
	}
	req.TransactionID = d.Profile.TransactionID

	var last protocol.Response
	err := d.transport.WithDevice(d.Profile, func() error {
		for attempt := 0; ; attempt++ {
			report, err := protocol.Pack(req)
			if err != nil {
				return err
			}
			if err := d.transport.SendFeature(report); err != nil {
				return err
			}
			readBack, err := d.transport.ReadFeature()
			if err != nil {
				return err
			}
			last = protocol.Unpack(readBack, d.Profile.CRCSkipOnOK)

			switch last.Status {
			case protocol.StatusBusy, protocol.StatusTimeout:
				if attempt < len(retryDelays) {
					time.Sleep(retryDelays[attempt])
					continue
				}
				return chromaerr.Timeout(fmt.Sprintf("%s: exhausted retries with status %d", d.ID, last.Status))
			case protocol.StatusOK:
				if !last.CRCOk {
					return chromaerr.ProtocolError(d.ID + ": response CRC mismatch")
				}
				return nil
			case protocol.StatusUnsupported:
				return chromaerr.Unsupported(d.ID + ": device rejected command as unsupported")
			default:
				return chromaerr.ProtocolError(fmt.Sprintf("%s: device returned status %d", d.ID, last.Status))
			}
		}
	})
	return last, err
}

// command looks up a named command and validates it against the active
// profile before building the wire request.
func (d *Device) command(name string, args []byte) (protocol.Request, error) {
	cmd, ok := protocol.Command(name)
	if !ok {
		return protocol.Request{}, chromaerr.Unsupported("no such command: " + name)
	}
	if err := cmd.CheckProfile(d.Profile); err != nil {
		return protocol.Request{}, err
	}
	if cmd.FixedDataSize >= 0 && len(args) != cmd.FixedDataSize {
		return protocol.Request{}, chromaerr.InvalidArgument(fmt.Sprintf("%s expects %d arg bytes, got %d", name, cmd.FixedDataSize, len(args)))
	}
	return protocol.Request{
		DataSize:     uint8(len(args)),
		CommandClass: cmd.CommandClass,
		CommandID:    cmd.CommandID,
		Args:         args,
	}, nil
}

// GetFirmware reads the device's firmware version string.
func (d *Device) GetFirmware() ([]byte, error) {
	req, err := d.command("get_firmware", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.exec(req)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// GetSerial reads the device's serial number string.
func (d *Device) GetSerial() ([]byte, error) {
	req, err := d.command("get_serial", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.exec(req)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// SetBrightness sets a named LED's brightness as a percentage in [0,100],
// choosing the extended-class command when the active profile requires it.
// The percentage is converted to the hardware byte via pctToByte
// (spec §4.5, §9 "decimal vs hardware byte brightness").
func (d *Device) SetBrightness(led string, pct uint8) error {
	if !d.Descriptor.HasLED(led) {
		return chromaerr.InvalidArgument("device has no LED named " + led)
	}
	if pct > 100 {
		return chromaerr.InvalidArgument("brightness percentage out of range: " + fmt.Sprint(pct))
	}
	hw := pctToByte(pct)
	var req protocol.Request
	var err error
	if d.Profile.UsesExtendedEffectClass {
		req, err = d.command("set_led_brightness_ext", []byte{ledIndex(led), 0x00, hw})
	} else {
		req, err = d.command("set_led_brightness", []byte{ledIndex(led), hw})
	}
	if err != nil {
		return err
	}
	if _, err := d.exec(req); err != nil {
		return err
	}
	d.brightness[led] = pct
	return nil
}

// Brightness returns the last brightness percentage set for led, or 0 if
// unset.
func (d *Device) Brightness(led string) uint8 {
	return d.brightness[led]
}

// SetLED toggles a single LED on or off and, when state is true, optionally
// sets its static color. Distinct from SetBrightness and CommitMatrix: this
// is the legacy single-LED control path.
func (d *Device) SetLED(led string, state bool, r, g, b uint8, hasColor bool) error {
	if !d.Descriptor.HasLED(led) {
		return chromaerr.InvalidArgument("device has no LED named " + led)
	}
	stateByte := byte(0x00)
	if state {
		stateByte = 0x01
	}
	req, err := d.command("set_led_state", []byte{ledIndex(led), stateByte})
	if err != nil {
		return err
	}
	if _, err := d.exec(req); err != nil {
		return err
	}
	if !hasColor {
		return nil
	}
	req, err = d.command("set_led_color", []byte{ledIndex(led), r, g, b})
	if err != nil {
		return err
	}
	_, err = d.exec(req)
	return err
}

// SetSuspended records the device's suspend state, which Suspended reports
// and saved profiles carry. It sends no command to the hardware and does not
// change the LEDs or any active renderer.
func (d *Device) SetSuspended(suspended bool) error {
	d.suspended = suspended
	return nil
}

// Suspended reports the device's current suspend state.
func (d *Device) Suspended() bool { return d.suspended }

// SetOffline marks the device offline (no heartbeat response) or back online
// on reconnect, per spec §4.12. Writes against an offline device fail with
// DeviceOffline; reads return the last known state.
func (d *Device) SetOffline(offline bool) { d.offline = offline }

// Offline reports whether the device is currently considered offline.
func (d *Device) Offline() bool { return d.offline }

// SetEffect activates a built-in hardware effect by name.
func (d *Device) SetEffect(effect string, args []byte) error {
	if !d.Descriptor.HasEffect(effect) {
		return chromaerr.Unsupported("device does not support effect " + effect)
	}
	effectID, err := protocol.ResolveEffectID(effect, d.Profile)
	if err != nil {
		return err
	}
	class, id := protocol.EffectCommand(d.Profile)
	payload := append([]byte{effectID}, args...)
	if _, err = d.exec(protocol.Request{DataSize: uint8(len(payload)), CommandClass: class, CommandID: id, Args: payload}); err != nil {
		return err
	}
	d.effectName = effect
	d.effectArgs = append([]byte(nil), args...)
	return nil
}

// CurrentEffect returns the name and argument block of the last effect
// successfully activated via SetEffect, and whether one has been set at
// all (the DeviceDriver's "current built-in effect ... or none" field from
// spec §3).
func (d *Device) CurrentEffect() (name string, args []byte, ok bool) {
	if d.effectName == "" {
		return "", nil, false
	}
	return d.effectName, d.effectArgs, true
}

// Reset restores the device to its disabled/default state: effect
// disabled and full brightness on every supported LED, per spec §4.5. It
// does not touch renderer layers; Compositor.StopAll removes those and then
// calls Reset.
func (d *Device) Reset() error {
	if err := d.SetEffect("disable", nil); err != nil {
		return err
	}
	for _, led := range d.Descriptor.SupportedLEDs {
		if err := d.SetBrightness(led, 100); err != nil {
			return err
		}
	}
	return nil
}

// CommitMatrix pushes a full frame buffer to the device via set_frame_matrix
// (or its extended counterpart), one row at a time per spec §6.
func (d *Device) CommitMatrix(rows [][]byte) error {
	name := "set_frame_matrix"
	if d.Profile.UsesExtendedEffectClass {
		name = "set_frame_extended"
	}
	for rowIdx, row := range rows {
		args := append([]byte{byte(rowIdx), byte(len(row) / 3)}, row...)
		req, err := d.command(name, args)
		if err != nil {
			return err
		}
		if _, err := d.exec(req); err != nil {
			return err
		}
	}
	return nil
}

// pctToByte converts a [0,100] brightness percentage to the hardware byte
// via round-half-to-even, the single centralized brightness conversion
// spec §9 calls for ("centralize in one helper per conversion").
func pctToByte(pct uint8) byte {
	return byte(math.RoundToEven(float64(pct) * 2.55))
}

// ledIndex maps a symbolic LED name to its wire index. Only "scroll_wheel"
// has its own index (0x01); every other LED name, "logo" included,
// addresses index 0.
func ledIndex(led string) byte {
	switch led {
	case "scroll_wheel":
		return 0x01
	default:
		return 0x00
	}
}
