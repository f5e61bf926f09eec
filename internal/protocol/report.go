// Package protocol implements the Chroma 90-byte feature report codec (C1),
// protocol generation profiles (C2), and the command/effect registry (C3).
package protocol

import "github.com/chromad/chromad/internal/chromaerr"

// ReportSize is the fixed length of every Chroma feature report.
const ReportSize = 90

const (
	argsOffset = 8
	argsSize   = 80
	crcStart   = 1
	crcEndExcl = 87 // XOR covers bytes [1, 87), i.e. indices 1..86 inclusive
	crcOffset  = 88
)

// Status is the closed set of status codes carried in byte 0 of a response.
type Status uint8

const (
	StatusUnknown     Status = 0x00
	StatusBusy        Status = 0x01
	StatusOK          Status = 0x02
	StatusFail        Status = 0x03
	StatusTimeout     Status = 0x04
	StatusUnsupported Status = 0x05
)

// normalizeStatus maps any byte outside the closed set to StatusFail.
func normalizeStatus(b byte) Status {
	switch Status(b) {
	case StatusUnknown, StatusBusy, StatusOK, StatusFail, StatusTimeout, StatusUnsupported:
		return Status(b)
	default:
		return StatusFail
	}
}

// Request describes the fields used to pack an outgoing feature report.
type Request struct {
	TransactionID    uint8
	RemainingPackets uint16
	DataSize         uint8
	CommandClass     uint8
	CommandID        uint8
	Args             []byte
}

// Response is the decoded form of an incoming feature report.
type Response struct {
	Status       Status
	TransactionID uint8
	DataSize     uint8
	CommandClass uint8
	CommandID    uint8
	Payload      []byte
	CRCOk        bool
}

// Pack fills a 90-byte feature report from req and computes its CRC. Bytes 0
// and 89 are left zero per the wire invariant in spec §3.
func Pack(req Request) ([ReportSize]byte, error) {
	var buf [ReportSize]byte
	if len(req.Args) > argsSize {
		return buf, chromaerr.InvalidArgument("request args exceed 80 bytes")
	}

	buf[1] = req.TransactionID
	buf[2] = byte(req.RemainingPackets >> 8)
	buf[3] = byte(req.RemainingPackets)
	// buf[4] is protocol_type, reserved for the caller's profile layer; left
	// zero here and set by the profile/command dispatch if it differs.
	buf[5] = req.DataSize
	buf[6] = req.CommandClass
	buf[7] = req.CommandID
	copy(buf[argsOffset:argsOffset+argsSize], req.Args)

	buf[crcOffset] = xorRange(buf[:])
	return buf, nil
}

// Unpack decodes a 90-byte feature report into a Response. crcSkipOnOK lets
// the caller apply a profile's crc_skip_on_ok policy (§4.1).
func Unpack(buf [ReportSize]byte, crcSkipOnOK bool) Response {
	status := normalizeStatus(buf[0])
	computed := xorRange(buf[:])
	crcOk := computed == buf[crcOffset]
	if !crcOk && crcSkipOnOK && status == StatusOK {
		crcOk = true
	}

	payload := make([]byte, argsSize)
	copy(payload, buf[argsOffset:argsOffset+argsSize])

	return Response{
		Status:        status,
		TransactionID: buf[1],
		DataSize:      buf[5],
		CommandClass:  buf[6],
		CommandID:     buf[7],
		Payload:       payload,
		CRCOk:         crcOk,
	}
}

// xorRange computes the XOR of buf[crcStart:crcEndExcl], i.e. indices 1..86
// inclusive, per spec §3/§4.1.
func xorRange(buf []byte) byte {
	var crc byte
	for i := crcStart; i < crcEndExcl; i++ {
		crc ^= buf[i]
	}
	return crc
}
