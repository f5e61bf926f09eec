// Package descriptor implements the hardware descriptor store (C4): an
// immutable, typed catalog of device configurations keyed by (vendor,
// product) id, loaded once at startup from an opaque YAML source.
package descriptor

// Kind is the closed set of device kinds from spec §3.
type Kind string

const (
	KindKeyboard Kind = "keyboard"
	KindMouse    Kind = "mouse"
	KindMousepad Kind = "mousepad"
	KindHeadset  Kind = "headset"
	KindKeypad   Kind = "keypad"
	KindLaptop   Kind = "laptop"
)

// CapabilityFlag is the closed set of quirk/capability flags from spec §3.
type CapabilityFlag string

const (
	CapWireless              CapabilityFlag = "wireless"
	CapHyperpolling           CapabilityFlag = "hyperpolling"
	CapNoLED                  CapabilityFlag = "no_led"
	CapSingleLED              CapabilityFlag = "single_led"
	CapExtendedFX             CapabilityFlag = "extended_fx"
	CapLogoLEDBrightness      CapabilityFlag = "logo_led_brightness"
	CapScrollWheelBrightness  CapabilityFlag = "scroll_wheel_brightness"
	CapCustomFrameAlt         CapabilityFlag = "custom_frame_alt"
	CapSoftwareEffectsOnly    CapabilityFlag = "software_effects_only"
	CapCRCSkipOnOK            CapabilityFlag = "crc_skip_on_ok"
	CapKeyInput               CapabilityFlag = "key_input"
	CapSystemControl          CapabilityFlag = "system_control"
	CapHeadsetMemory          CapabilityFlag = "headset_memory"
)

// Point is a (row, col) cell coordinate on a device's LED matrix.
type Point struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// Dimensions is a device's LED matrix shape, absent for non-matrix devices.
type Dimensions struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// FanLimits describes the per-model manual fan RPM band enforced by the
// thermal/safety overlay (spec §4.6).
type FanLimits struct {
	MinManualRPM int `yaml:"min_manual_rpm"`
	MaxRPM       int `yaml:"max_rpm"`
}

// Descriptor is the immutable DeviceDescriptor record from spec §3.
type Descriptor struct {
	Name              string                   `yaml:"name"`
	Kind              Kind                     `yaml:"kind"`
	VendorID          uint16                   `yaml:"vendor_id"`
	ProductID         uint16                   `yaml:"product_id"`
	Dimensions        *Dimensions              `yaml:"dimensions"`
	SupportedLEDs     []string                 `yaml:"supported_leds"`
	SupportedEffects  []string                 `yaml:"supported_effects"`
	Capabilities      []CapabilityFlag         `yaml:"capabilities"`
	KeyMap            map[string][]Point       `yaml:"key_map"`
	ProtocolProfileID string                   `yaml:"protocol_profile"`
	FanLimits         *FanLimits               `yaml:"fan_limits"`

	supportedLEDSet    map[string]struct{}
	supportedEffectSet map[string]struct{}
	capabilitySet      map[CapabilityFlag]struct{}
}

// finalize builds the lookup sets used by HasLED/HasEffect/HasCapability.
// Called once after decode so repeated lookups are O(1).
func (d *Descriptor) finalize() {
	d.supportedLEDSet = make(map[string]struct{}, len(d.SupportedLEDs))
	for _, l := range d.SupportedLEDs {
		d.supportedLEDSet[l] = struct{}{}
	}
	d.supportedEffectSet = make(map[string]struct{}, len(d.SupportedEffects))
	for _, e := range d.SupportedEffects {
		d.supportedEffectSet[e] = struct{}{}
	}
	d.capabilitySet = make(map[CapabilityFlag]struct{}, len(d.Capabilities))
	for _, c := range d.Capabilities {
		d.capabilitySet[c] = struct{}{}
	}
}

// HasLED reports whether led is in the descriptor's supported LED set.
func (d *Descriptor) HasLED(led string) bool {
	_, ok := d.supportedLEDSet[led]
	return ok
}

// HasEffect reports whether effect is in the descriptor's supported effect set.
func (d *Descriptor) HasEffect(effect string) bool {
	_, ok := d.supportedEffectSet[effect]
	return ok
}

// HasCapability reports whether flag is set on the descriptor.
func (d *Descriptor) HasCapability(flag CapabilityFlag) bool {
	_, ok := d.capabilitySet[flag]
	return ok
}

// CoordsOf returns the matrix cells a symbolic keycode maps to, or an empty
// slice if the keycode is unmapped (spec §4.11).
func (d *Descriptor) CoordsOf(keycode string) []Point {
	return d.KeyMap[keycode]
}

// Key identifies a descriptor by (vendor, product) id, the store's lookup key.
type Key struct {
	VendorID  uint16
	ProductID uint16
}
