package protocol

import (
	"time"

	"github.com/chromad/chromad/internal/chromaerr"
)

// Headset memory protocol constants (spec §6): a report stream distinct
// from the 90-byte LED command reports, used only by devices of the
// "headset" kind to read and write onboard RAM/EEPROM.
const (
	HeadsetOutputReportID = 0x04
	HeadsetInputReportID  = 0x05
	HeadsetOutputSize     = 37
	HeadsetInputSize      = 33

	headsetHeaderSize = 4 // destination, length, address hi, address lo

	// HeadsetMaxDataSize is the largest read length or write payload a
	// single headset report can carry.
	HeadsetMaxDataSize = HeadsetOutputSize - 1 - headsetHeaderSize

	// HeadsetInterCommandDelay is the fixed delay between headset memory
	// reports, unrelated to any ProtocolProfile's InterCommandDelay.
	HeadsetInterCommandDelay = 25 * time.Millisecond
)

// HeadsetDestination selects the memory region and direction of a headset
// memory report.
type HeadsetDestination byte

const (
	HeadsetReadRAM    HeadsetDestination = 0x00
	HeadsetReadEEPROM HeadsetDestination = 0x20
	HeadsetWriteRAM   HeadsetDestination = 0x40
)

// HeadsetRequest describes one headset memory report before packing.
type HeadsetRequest struct {
	Destination HeadsetDestination
	Length      uint8
	Address     uint16
	Data        []byte // write payload; empty for reads
}

// HeadsetResponse is the decoded form of a headset memory input report.
type HeadsetResponse struct {
	Payload []byte
}

// PackHeadsetRequest fills the 37-byte headset output report.
func PackHeadsetRequest(req HeadsetRequest) ([HeadsetOutputSize]byte, error) {
	var buf [HeadsetOutputSize]byte
	if len(req.Data) > HeadsetMaxDataSize {
		return buf, chromaerr.InvalidArgument("headset write data exceeds 32 bytes")
	}
	buf[0] = HeadsetOutputReportID
	buf[1] = byte(req.Destination)
	buf[2] = req.Length
	buf[3] = byte(req.Address >> 8)
	buf[4] = byte(req.Address)
	copy(buf[1+headsetHeaderSize:], req.Data)
	return buf, nil
}

// UnpackHeadsetResponse decodes the 33-byte headset input report.
func UnpackHeadsetResponse(buf [HeadsetInputSize]byte) HeadsetResponse {
	payload := make([]byte, HeadsetInputSize-1)
	copy(payload, buf[1:])
	return HeadsetResponse{Payload: payload}
}
