package device

import (
	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/protocol"
)

// HeadsetTransport is an optional Transport capability for the headset
// RAM/EEPROM report stream (spec §6), a separate 37/33-byte report class
// from the 90-byte LED command reports every Transport must support.
// hidio.Device implements it; a transport that doesn't makes ReadMemory and
// WriteMemory fail with Unsupported rather than panic on a type assertion.
type HeadsetTransport interface {
	SendHeadsetFeature(report [protocol.HeadsetOutputSize]byte) error
	ReadHeadsetFeature() ([protocol.HeadsetInputSize]byte, error)
}

// headsetProfile carries only the fixed 25ms inter-command delay the
// headset memory protocol uses; it is unrelated to the device's own
// ProtocolProfile and exists solely to reuse Transport.WithDevice's
// exclusivity and delay enforcement.
var headsetProfile = protocol.Profile{InterCommandDelay: protocol.HeadsetInterCommandDelay}

// requireHeadsetMemory guards every headset memory operation behind both
// the descriptor capability and the transport's optional support for the
// report class.
func (d *Device) requireHeadsetMemory() (HeadsetTransport, error) {
	if d.Descriptor.Kind != descriptor.KindHeadset || !d.Descriptor.HasCapability(descriptor.CapHeadsetMemory) {
		return nil, chromaerr.Unsupported(d.ID + " has no headset memory capability")
	}
	ht, ok := d.transport.(HeadsetTransport)
	if !ok {
		return nil, chromaerr.Unsupported(d.ID + ": transport does not support headset memory reports")
	}
	return ht, nil
}

// execHeadset runs one headset memory report exchange under the transport's
// exclusive lock and the protocol's fixed inter-command delay.
func (d *Device) execHeadset(ht HeadsetTransport, req protocol.HeadsetRequest) (protocol.HeadsetResponse, error) {
	if d.offline {
		return protocol.HeadsetResponse{}, chromaerr.DeviceOffline(d.ID + " is offline")
	}
	var resp protocol.HeadsetResponse
	err := d.transport.WithDevice(headsetProfile, func() error {
		out, err := protocol.PackHeadsetRequest(req)
		if err != nil {
			return err
		}
		if err := ht.SendHeadsetFeature(out); err != nil {
			return err
		}
		in, err := ht.ReadHeadsetFeature()
		if err != nil {
			return err
		}
		resp = protocol.UnpackHeadsetResponse(in)
		return nil
	})
	return resp, err
}

// ReadMemory reads length bytes (at most protocol.HeadsetMaxDataSize) from
// offset in the headset's onboard RAM or EEPROM, per spec §6. The set of
// addresses a given headset variant actually exposes is the caller's
// responsibility; the driver only enforces the wire-level length bound.
func (d *Device) ReadMemory(offset uint16, length uint8, eeprom bool) ([]byte, error) {
	ht, err := d.requireHeadsetMemory()
	if err != nil {
		return nil, err
	}
	if int(length) > protocol.HeadsetMaxDataSize {
		return nil, chromaerr.InvalidArgument("headset read length exceeds 32 bytes")
	}
	dest := protocol.HeadsetReadRAM
	if eeprom {
		dest = protocol.HeadsetReadEEPROM
	}
	resp, err := d.execHeadset(ht, protocol.HeadsetRequest{Destination: dest, Length: length, Address: offset})
	if err != nil {
		return nil, err
	}
	return resp.Payload[:length], nil
}

// WriteMemory writes data to offset in the headset's onboard RAM. The wire
// protocol has no write-EEPROM destination (spec §6 names only read RAM,
// read EEPROM, and write RAM).
func (d *Device) WriteMemory(offset uint16, data []byte) error {
	ht, err := d.requireHeadsetMemory()
	if err != nil {
		return err
	}
	if len(data) > protocol.HeadsetMaxDataSize {
		return chromaerr.InvalidArgument("headset write data exceeds 32 bytes")
	}
	_, err = d.execHeadset(ht, protocol.HeadsetRequest{
		Destination: protocol.HeadsetWriteRAM,
		Length:      uint8(len(data)),
		Address:     offset,
		Data:        data,
	})
	return err
}
