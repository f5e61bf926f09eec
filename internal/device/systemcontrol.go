package device

import (
	"context"
	"encoding/binary"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/descriptor"
)

// Thermal override thresholds for manual fan requests, per spec §4.6: a
// reading at or above thermalOverrideTemp forces automatic fan control,
// which only releases once every reading has fallen back below
// thermalClearTemp.
const (
	thermalOverrideTemp = 95.0
	thermalClearTemp    = 90.0
)

// PowerMode is the closed set of power profiles a laptop accepts, per
// spec §4.5.
type PowerMode string

const (
	PowerModeBalanced PowerMode = "balanced"
	PowerModeGaming   PowerMode = "gaming"
	PowerModeCreator  PowerMode = "creator"
	PowerModeCustom   PowerMode = "custom"
)

var powerModeWire = map[PowerMode]byte{
	PowerModeBalanced: 0x00,
	PowerModeGaming:   0x01,
	PowerModeCreator:  0x02,
	PowerModeCustom:   0x03,
}

// requireSystemControl guards every laptop-only operation so a non-laptop
// device fails fast with Unsupported instead of issuing a meaningless
// command to the EC.
func (d *Device) requireSystemControl() error {
	if !d.Descriptor.HasCapability(descriptor.CapSystemControl) {
		return chromaerr.Unsupported(d.ID + " has no system control capability")
	}
	return nil
}

// GetFanRPM reads the current fan speed.
func (d *Device) GetFanRPM() (int, error) {
	if err := d.requireSystemControl(); err != nil {
		return 0, err
	}
	req, err := d.command("get_fan_rpm", nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.exec(req)
	if err != nil {
		return 0, err
	}
	if len(resp.Payload) < 2 {
		return 0, chromaerr.ProtocolError("get_fan_rpm: short response payload")
	}
	return int(binary.BigEndian.Uint16(resp.Payload[:2])), nil
}

// SetFanAuto returns fan control to the firmware's automatic curve.
func (d *Device) SetFanAuto() error {
	if err := d.requireSystemControl(); err != nil {
		return err
	}
	req, err := d.command("set_fan_auto", nil)
	if err != nil {
		return err
	}
	_, err = d.exec(req)
	return err
}

// SetFanRPM requests a manual fan speed, bounded by the descriptor's
// FanLimits band as the thermal/safety overlay (spec §4.6): requests
// outside [MinManualRPM, MaxRPM] are rejected rather than silently clamped,
// so a caller always knows what speed was actually applied. If any sensor
// reads at or above thermalOverrideTemp, the request is converted to
// SetFanAuto instead and overridden reports true; the override latches
// until every reading falls below thermalClearTemp, per spec §8 scenario 6.
func (d *Device) SetFanRPM(ctx context.Context, rpm int) (overridden bool, err error) {
	if err := d.requireSystemControl(); err != nil {
		return false, err
	}
	limits := d.Descriptor.FanLimits
	if limits != nil && (rpm < limits.MinManualRPM || rpm > limits.MaxRPM) {
		return false, chromaerr.InvalidArgument("fan rpm out of manual range for this device")
	}

	if d.thermal == nil {
		d.thermal = NewHwmonSource()
	}
	if temps, terr := d.thermal.ReadTemperatures(ctx); terr == nil {
		for _, v := range temps {
			if v >= thermalOverrideTemp {
				d.thermalOverride = true
				break
			}
		}
		if d.thermalOverride {
			clear := true
			for _, v := range temps {
				if v >= thermalClearTemp {
					clear = false
					break
				}
			}
			if clear {
				d.thermalOverride = false
			}
		}
	}
	if d.thermalOverride {
		if err := d.SetFanAuto(); err != nil {
			return false, err
		}
		return true, nil
	}

	args := []byte{byte(rpm >> 24), byte(rpm >> 16), byte(rpm >> 8), byte(rpm)}
	req, err := d.command("set_fan_rpm", args)
	if err != nil {
		return false, err
	}
	_, err = d.exec(req)
	return false, err
}

// SetPowerMode switches the laptop's power profile.
func (d *Device) SetPowerMode(mode PowerMode) error {
	if err := d.requireSystemControl(); err != nil {
		return err
	}
	wire, ok := powerModeWire[mode]
	if !ok {
		return chromaerr.InvalidArgument("unknown power mode: " + string(mode))
	}
	req, err := d.command("set_power_mode", []byte{wire})
	if err != nil {
		return err
	}
	if _, err := d.exec(req); err != nil {
		return err
	}
	d.lastPowerMode = &mode
	return nil
}

// PowerModeCached returns the last power mode successfully applied via
// SetPowerMode, and whether one has ever been set.
func (d *Device) PowerModeCached() (mode PowerMode, ok bool) {
	if d.lastPowerMode == nil {
		return "", false
	}
	return *d.lastPowerMode, true
}

// SetBoost enables or disables the performance boost overlay.
func (d *Device) SetBoost(enabled bool, durationSeconds uint8) error {
	if err := d.requireSystemControl(); err != nil {
		return err
	}
	var flag byte
	if enabled {
		flag = 0x01
	}
	req, err := d.command("set_boost", []byte{flag, durationSeconds})
	if err != nil {
		return err
	}
	_, err = d.exec(req)
	return err
}
