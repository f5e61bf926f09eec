package protocol

import "github.com/chromad/chromad/internal/chromaerr"

// CommandDef is a named, closed-registry command definition (C3): the
// (command_class, command_id) pair it encodes to, whether its argument
// block has a fixed size, and which profiles may issue it.
type CommandDef struct {
	Name            string
	CommandClass    uint8
	CommandID       uint8
	FixedDataSize   int // -1 means variable-size, caller supplies data_size
	AllowedProfiles []string
}

// allProfiles lists every predefined profile ID; used by commands with no
// profile restriction.
var allProfiles = []string{Legacy.ID, Extended.ID, Modern.ID, WirelessKeyboard.ID, Special.ID}

// Command class bytes (spec §6).
const (
	ClassDeviceInfo   uint8 = 0x00
	ClassLegacyLED    uint8 = 0x03
	ClassLegacyFrame  uint8 = 0x0B
	ClassExtendedLED  uint8 = 0x0F
	ClassWireless     uint8 = 0x07
	ClassFanEC        uint8 = 0x0D
)

// Standard command IDs.
const (
	cmdGetFirmware        uint8 = 0x81
	cmdGetSerial          uint8 = 0x82
	cmdSetLEDState        uint8 = 0x00
	cmdSetLEDColor        uint8 = 0x01
	cmdSetLEDEffect       uint8 = 0x02
	cmdSetLEDBrightness   uint8 = 0x03
	cmdGetLEDBrightness   uint8 = 0x83
	cmdSetEffect          uint8 = 0x0A
	cmdSetFrameMatrix     uint8 = 0x0B
	cmdGetBattery         uint8 = 0x80
	cmdGetCharging        uint8 = 0x84
	cmdSetIdleTime        uint8 = 0x03
	cmdGetIdleTime        uint8 = 0x83
	cmdGetFanRPM          uint8 = 0x81
	cmdSetFanAuto         uint8 = 0x02
	cmdSetFanRPM          uint8 = 0x03
	cmdSetPowerMode       uint8 = 0x04
	cmdSetBoost           uint8 = 0x05

	// Extended-class counterparts (§4.5: "or its extended counterpart when
	// the active profile selects the extended class").
	cmdSetEffectExtended        uint8 = 0x02
	cmdSetLEDBrightnessExtended uint8 = 0x04
	cmdSetFrameExtended         uint8 = 0x03
)

var registry = map[string]CommandDef{
	"get_firmware":       {"get_firmware", ClassDeviceInfo, cmdGetFirmware, 0, allProfiles},
	"get_serial":         {"get_serial", ClassDeviceInfo, cmdGetSerial, 0, allProfiles},
	"set_led_state":      {"set_led_state", ClassLegacyLED, cmdSetLEDState, 2, allProfiles},
	"set_led_color":      {"set_led_color", ClassLegacyLED, cmdSetLEDColor, 4, allProfiles},
	"set_led_brightness": {"set_led_brightness", ClassLegacyLED, cmdSetLEDBrightness, 2, []string{Legacy.ID, Special.ID}},
	"set_led_brightness_ext": {"set_led_brightness_ext", ClassExtendedLED, cmdSetLEDBrightnessExtended, 3, []string{Extended.ID, Modern.ID, WirelessKeyboard.ID}},
	"get_led_brightness": {"get_led_brightness", ClassLegacyLED, cmdGetLEDBrightness, 2, allProfiles},
	"set_effect":         {"set_effect", ClassLegacyLED, cmdSetEffect, -1, []string{Legacy.ID, Special.ID}},
	"set_effect_extended": {"set_effect_extended", ClassExtendedLED, cmdSetEffectExtended, -1, []string{Extended.ID, Modern.ID, WirelessKeyboard.ID}},
	"set_frame_matrix":   {"set_frame_matrix", ClassLegacyLED, cmdSetFrameMatrix, -1, []string{Legacy.ID, Special.ID}},
	"set_frame_extended":  {"set_frame_extended", ClassExtendedLED, cmdSetFrameExtended, -1, []string{Extended.ID, Modern.ID, WirelessKeyboard.ID}},
	"get_battery":        {"get_battery", ClassWireless, cmdGetBattery, 0, []string{WirelessKeyboard.ID}},
	"get_charging":       {"get_charging", ClassWireless, cmdGetCharging, 0, []string{WirelessKeyboard.ID}},
	"set_idle_time":      {"set_idle_time", ClassWireless, cmdSetIdleTime, 2, []string{WirelessKeyboard.ID}},
	"get_idle_time":      {"get_idle_time", ClassWireless, cmdGetIdleTime, 0, []string{WirelessKeyboard.ID}},
	"get_fan_rpm":        {"get_fan_rpm", ClassFanEC, cmdGetFanRPM, 0, []string{Modern.ID, Special.ID}},
	"set_fan_auto":       {"set_fan_auto", ClassFanEC, cmdSetFanAuto, 0, []string{Modern.ID, Special.ID}},
	"set_fan_rpm":        {"set_fan_rpm", ClassFanEC, cmdSetFanRPM, 4, []string{Modern.ID, Special.ID}},
	"set_power_mode":     {"set_power_mode", ClassFanEC, cmdSetPowerMode, 1, []string{Modern.ID, Special.ID}},
	"set_boost":          {"set_boost", ClassFanEC, cmdSetBoost, 2, []string{Modern.ID, Special.ID}},
}

// Command looks up a CommandDef by name. The second return is false on a
// miss (the caller should treat this as a programmer error, not an
// Unsupported — the registry is closed and compiled against).
func Command(name string) (CommandDef, bool) {
	c, ok := registry[name]
	return c, ok
}

// CheckProfile fails a command with Unsupported before any transport I/O if
// the active profile is not in its AllowedProfiles, per spec §4.2.
func (c CommandDef) CheckProfile(profile Profile) error {
	for _, p := range c.AllowedProfiles {
		if p == profile.ID {
			return nil
		}
	}
	return chromaerr.Unsupported("command " + c.Name + " is not available on profile " + profile.ID)
}

// EffectDef is a double-keyed effect table entry (C3): an effect name maps
// to an optional legacy id (under class 0x03) and an optional extended id
// (under class 0x0F). A zero value with HasLegacy/HasExtended false means
// that column is absent.
type EffectDef struct {
	Name        string
	LegacyID    uint8
	HasLegacy   bool
	ExtendedID  uint8
	HasExtended bool
}

// effectTable is the authoritative mapping for the universally supported
// effects named in spec §4.2. These ids reproduce the values asserted by
// the worked example in spec §8 scenario 1 (static=0x06 under the legacy
// class) and are otherwise the best-effort reconstruction called for by
// spec §9's open question on effect id provenance.
var effectTable = map[string]EffectDef{
	"disable":      {Name: "disable", LegacyID: 0x00, HasLegacy: true, ExtendedID: 0x00, HasExtended: true},
	"static":       {Name: "static", LegacyID: 0x06, HasLegacy: true, ExtendedID: 0x06, HasExtended: true},
	"wave":         {Name: "wave", LegacyID: 0x01, HasLegacy: true, ExtendedID: 0x01, HasExtended: true},
	"reactive":     {Name: "reactive", LegacyID: 0x02, HasLegacy: true, ExtendedID: 0x02, HasExtended: true},
	"breathe":      {Name: "breathe", LegacyID: 0x03, HasLegacy: true, ExtendedID: 0x03, HasExtended: true},
	"spectrum":     {Name: "spectrum", LegacyID: 0x04, HasLegacy: true, ExtendedID: 0x04, HasExtended: true},
	"custom_frame": {Name: "custom_frame", LegacyID: 0x05, HasLegacy: true, ExtendedID: 0x05, HasExtended: true},
	// starlight has no legacy encoding; only newer, extended-class devices
	// support it. Two-color argument layout is flagged best-effort per
	// spec §9's open question.
	"starlight": {Name: "starlight", HasLegacy: false, ExtendedID: 0x19, HasExtended: true},
}

// Effect looks up an effect's dual-keyed id mapping by name.
func Effect(name string) (EffectDef, bool) {
	e, ok := effectTable[name]
	return e, ok
}

// ResolveEffectID selects the id column for the active profile, per spec
// §4.2: the profile's uses_extended_effect_class selects legacy vs
// extended; if that column is absent the effect is Unsupported.
func ResolveEffectID(name string, profile Profile) (uint8, error) {
	e, ok := Effect(name)
	if !ok {
		return 0, chromaerr.Unsupported("no such effect: " + name)
	}
	if profile.UsesExtendedEffectClass {
		if !e.HasExtended {
			return 0, chromaerr.Unsupported("effect " + name + " has no extended-class mapping")
		}
		return e.ExtendedID, nil
	}
	if !e.HasLegacy {
		return 0, chromaerr.Unsupported("effect " + name + " has no legacy-class mapping")
	}
	return e.LegacyID, nil
}

// EffectCommand returns the (class, id) of the SET_EFFECT command to use for
// the active profile, per spec §6.
func EffectCommand(profile Profile) (class, id uint8) {
	if profile.UsesExtendedEffectClass {
		return ClassExtendedLED, cmdSetEffectExtended
	}
	return ClassLegacyLED, cmdSetEffect
}
