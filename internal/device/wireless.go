package device

import (
	"encoding/binary"
	"time"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/descriptor"
)

// WirelessHeartbeatTimeout is the interval after which a wireless device
// with no successful poll is considered offline, per spec §5.
const WirelessHeartbeatTimeout = 30 * time.Second

// GetBattery reads the battery level as a percentage (0-100), caching the
// result so BatteryCached can serve the "battery" property with a
// stale=true flag when a later read fails (spec §8 scenario 5).
func (d *Device) GetBattery() (uint8, error) {
	if !d.Descriptor.HasCapability(descriptor.CapWireless) {
		return 0, chromaerr.Unsupported(d.ID + " is not a wireless device")
	}
	req, err := d.command("get_battery", nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.exec(req)
	if err != nil {
		return 0, err
	}
	if len(resp.Payload) < 2 {
		return 0, chromaerr.ProtocolError("get_battery: short response payload")
	}
	raw := binary.BigEndian.Uint16(resp.Payload[:2])
	pct := uint8(uint32(raw) * 100 / 0xFFFF)
	d.lastBattery = &pct
	return pct, nil
}

// BatteryCached returns the last successfully observed battery percentage
// without issuing a new hardware read, along with whether a reading has
// ever been observed. stale reports whether the device is currently
// considered offline, meaning the returned value may be out of date.
func (d *Device) BatteryCached() (pct uint8, stale bool, ok bool) {
	if d.lastBattery == nil {
		return 0, false, false
	}
	return *d.lastBattery, d.offline, true
}

// GetCharging reports whether the device is currently charging.
func (d *Device) GetCharging() (bool, error) {
	if !d.Descriptor.HasCapability(descriptor.CapWireless) {
		return false, chromaerr.Unsupported(d.ID + " is not a wireless device")
	}
	req, err := d.command("get_charging", nil)
	if err != nil {
		return false, err
	}
	resp, err := d.exec(req)
	if err != nil {
		return false, err
	}
	charging := len(resp.Payload) > 0 && resp.Payload[0] != 0
	d.lastCharging = &charging
	return charging, nil
}

// ChargingCached returns the last successfully observed charging state
// without issuing a new hardware read.
func (d *Device) ChargingCached() (charging bool, ok bool) {
	if d.lastCharging == nil {
		return false, false
	}
	return *d.lastCharging, true
}

// SetIdleTime configures the wireless auto-sleep timeout in seconds.
func (d *Device) SetIdleTime(seconds uint16) error {
	if !d.Descriptor.HasCapability(descriptor.CapWireless) {
		return chromaerr.Unsupported(d.ID + " is not a wireless device")
	}
	args := []byte{byte(seconds >> 8), byte(seconds)}
	req, err := d.command("set_idle_time", args)
	if err != nil {
		return err
	}
	_, err = d.exec(req)
	return err
}

// GetIdleTime reads the wireless auto-sleep timeout in seconds.
func (d *Device) GetIdleTime() (uint16, error) {
	if !d.Descriptor.HasCapability(descriptor.CapWireless) {
		return 0, chromaerr.Unsupported(d.ID + " is not a wireless device")
	}
	req, err := d.command("get_idle_time", nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.exec(req)
	if err != nil {
		return 0, err
	}
	if len(resp.Payload) < 2 {
		return 0, chromaerr.ProtocolError("get_idle_time: short response payload")
	}
	return binary.BigEndian.Uint16(resp.Payload[:2]), nil
}
