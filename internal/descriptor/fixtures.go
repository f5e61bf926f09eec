package descriptor

// Built-in descriptors covering the three device archetypes exercised by
// the end-to-end scenarios in spec §8: a legacy-profile matrix keyboard, a
// wireless mouse, and a system-control laptop. Shipping these embedded
// means the store and device manager are exercisable without requiring an
// external YAML source on disk.

// LegacyKeyboard is a 6x22 matrix keyboard on the Legacy protocol profile,
// matching spec §8 scenario 1.
func LegacyKeyboard() *Descriptor {
	d := &Descriptor{
		Name:              "BlackWidow Classic",
		Kind:              KindKeyboard,
		VendorID:          0x1532,
		ProductID:         0x0203,
		Dimensions:        &Dimensions{Rows: 6, Cols: 22},
		SupportedLEDs:     []string{"backlight", "logo"},
		SupportedEffects:  []string{"disable", "static", "wave", "reactive", "breathe", "spectrum", "custom_frame"},
		Capabilities:      []CapabilityFlag{CapKeyInput},
		ProtocolProfileID: "legacy",
		KeyMap: map[string][]Point{
			"KEY_A": {{Row: 3, Col: 5}},
			"KEY_S": {{Row: 3, Col: 6}},
		},
	}
	d.finalize()
	return d
}

// WirelessMouse is a wireless mouse on the WirelessKeyboard protocol
// profile (the profile name covers any wireless Chroma peripheral, not
// just keyboards), matching spec §8 scenarios 2 and 5.
func WirelessMouse() *Descriptor {
	d := &Descriptor{
		Name:              "DeathAdder Wireless",
		Kind:              KindMouse,
		VendorID:          0x1532,
		ProductID:         0x0084,
		SupportedLEDs:     []string{"logo", "scroll_wheel"},
		SupportedEffects:  []string{"disable", "static", "breathe", "spectrum"},
		Capabilities:      []CapabilityFlag{CapWireless, CapScrollWheelBrightness},
		ProtocolProfileID: "wireless_keyboard",
	}
	d.finalize()
	return d
}

// SystemControlLaptop is a laptop with manual fan/power control, matching
// spec §8 scenario 6.
func SystemControlLaptop() *Descriptor {
	d := &Descriptor{
		Name:              "Blade 15",
		Kind:              KindLaptop,
		VendorID:          0x1532,
		ProductID:         0x0521,
		Dimensions:        &Dimensions{Rows: 6, Cols: 22},
		SupportedLEDs:     []string{"backlight"},
		SupportedEffects:  []string{"disable", "static", "wave", "reactive", "breathe", "spectrum", "custom_frame", "starlight"},
		Capabilities:      []CapabilityFlag{CapSystemControl, CapKeyInput, CapExtendedFX},
		ProtocolProfileID: "modern",
		FanLimits:         &FanLimits{MinManualRPM: 2000, MaxRPM: 5000},
	}
	d.finalize()
	return d
}

// Kraken7_1 is a headset exposing the onboard RAM/EEPROM memory protocol
// from spec §6, in addition to its LED effects.
func Kraken7_1() *Descriptor {
	d := &Descriptor{
		Name:              "Kraken 7.1",
		Kind:              KindHeadset,
		VendorID:          0x1532,
		ProductID:         0x0504,
		SupportedLEDs:     []string{"logo"},
		SupportedEffects:  []string{"disable", "static", "breathe", "spectrum"},
		Capabilities:      []CapabilityFlag{CapHeadsetMemory},
		ProtocolProfileID: "legacy",
	}
	d.finalize()
	return d
}

// Builtins returns the embedded fixture descriptors.
func Builtins() []*Descriptor {
	return []*Descriptor{LegacyKeyboard(), WirelessMouse(), SystemControlLaptop(), Kraken7_1()}
}

// LoadBuiltins registers the embedded fixtures into s.
func (s *Store) LoadBuiltins() {
	for _, d := range Builtins() {
		s.Add(d)
	}
}
