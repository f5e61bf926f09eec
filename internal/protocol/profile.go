package protocol

import "time"

// Profile is a ProtocolProfile as described in spec §3: the per-generation
// constants that select transaction id, effect-class column, inter-command
// delay, and CRC validation policy.
type Profile struct {
	ID                       string
	TransactionID            uint8
	UsesExtendedEffectClass  bool
	InterCommandDelay        time.Duration
	CRCSkipOnOK              bool
}

// The five predefined profiles from spec §3. Values are fixed wire
// constants and must not be altered.
var (
	Legacy = Profile{
		ID:                      "legacy",
		TransactionID:           0xFF,
		UsesExtendedEffectClass: false,
		InterCommandDelay:       0,
		CRCSkipOnOK:             false,
	}
	Extended = Profile{
		ID:                      "extended",
		TransactionID:           0x3F,
		UsesExtendedEffectClass: true,
		InterCommandDelay:       0,
		CRCSkipOnOK:             false,
	}
	Modern = Profile{
		ID:                      "modern",
		TransactionID:           0x1F,
		UsesExtendedEffectClass: true,
		InterCommandDelay:       0,
		CRCSkipOnOK:             false,
	}
	WirelessKeyboard = Profile{
		ID:                      "wireless_keyboard",
		TransactionID:           0x9F,
		UsesExtendedEffectClass: true,
		InterCommandDelay:       2 * time.Millisecond,
		CRCSkipOnOK:             false,
	}
	// Special is the Naga-X-class transaction id. Per spec §9's open
	// question, the set of commands it affects is underdocumented; we treat
	// every command as using 0x08 on this profile, as instructed.
	Special = Profile{
		ID:                      "special",
		TransactionID:           0x08,
		UsesExtendedEffectClass: false,
		InterCommandDelay:       0,
		CRCSkipOnOK:             true,
	}
)

// ByID looks up one of the five predefined profiles by its ID string, as
// referenced from a DeviceDescriptor's ProtocolProfile field.
func ByID(id string) (Profile, bool) {
	switch id {
	case Legacy.ID:
		return Legacy, true
	case Extended.ID:
		return Extended, true
	case Modern.ID:
		return Modern, true
	case WirelessKeyboard.ID:
		return WirelessKeyboard, true
	case Special.ID:
		return Special, true
	default:
		return Profile{}, false
	}
}
