//go:build linux

package input

// linuxKeyNames maps a subset of the numeric key codes from
// <linux/input-event-codes.h> to their symbolic KEY_* names. It covers the
// alphanumeric and modifier keys that device descriptor key maps actually
// reference (see internal/descriptor/fixtures.go's "KEY_A"/"KEY_S"
// entries); it is not a full transcription of the kernel header.
var linuxKeyNames = map[uint16]string{
	1:  "KEY_ESC",
	2:  "KEY_1",
	3:  "KEY_2",
	4:  "KEY_3",
	5:  "KEY_4",
	6:  "KEY_5",
	7:  "KEY_6",
	8:  "KEY_7",
	9:  "KEY_8",
	10: "KEY_9",
	11: "KEY_0",
	12: "KEY_MINUS",
	13: "KEY_EQUAL",
	14: "KEY_BACKSPACE",
	15: "KEY_TAB",
	16: "KEY_Q",
	17: "KEY_W",
	18: "KEY_E",
	19: "KEY_R",
	20: "KEY_T",
	21: "KEY_Y",
	22: "KEY_U",
	23: "KEY_I",
	24: "KEY_O",
	25: "KEY_P",
	26: "KEY_LEFTBRACE",
	27: "KEY_RIGHTBRACE",
	28: "KEY_ENTER",
	29: "KEY_LEFTCTRL",
	30: "KEY_A",
	31: "KEY_S",
	32: "KEY_D",
	33: "KEY_F",
	34: "KEY_G",
	35: "KEY_H",
	36: "KEY_J",
	37: "KEY_K",
	38: "KEY_L",
	39: "KEY_SEMICOLON",
	40: "KEY_APOSTROPHE",
	41: "KEY_GRAVE",
	42: "KEY_LEFTSHIFT",
	43: "KEY_BACKSLASH",
	44: "KEY_Z",
	45: "KEY_X",
	46: "KEY_C",
	47: "KEY_V",
	48: "KEY_B",
	49: "KEY_N",
	50: "KEY_M",
	51: "KEY_COMMA",
	52: "KEY_DOT",
	53: "KEY_SLASH",
	54: "KEY_RIGHTSHIFT",
	55: "KEY_KPASTERISK",
	56: "KEY_LEFTALT",
	57: "KEY_SPACE",
	58: "KEY_CAPSLOCK",
	59: "KEY_F1",
	60: "KEY_F2",
	61: "KEY_F3",
	62: "KEY_F4",
	63: "KEY_F5",
	64: "KEY_F6",
	65: "KEY_F7",
	66: "KEY_F8",
	67: "KEY_F9",
	68: "KEY_F10",
	87: "KEY_F11",
	88: "KEY_F12",
	97: "KEY_RIGHTCTRL",
	100: "KEY_RIGHTALT",
	102: "KEY_HOME",
	103: "KEY_UP",
	104: "KEY_PAGEUP",
	105: "KEY_LEFT",
	106: "KEY_RIGHT",
	107: "KEY_END",
	108: "KEY_DOWN",
	109: "KEY_PAGEDOWN",
	110: "KEY_INSERT",
	111: "KEY_DELETE",
	125: "KEY_LEFTMETA",
	126: "KEY_RIGHTMETA",
}

// DefaultKeycodeMap returns the built-in numeric-to-symbolic keycode
// translation used when no device-specific override is configured.
func DefaultKeycodeMap() KeycodeMap {
	return func(code uint16) (string, bool) {
		name, ok := linuxKeyNames[code]
		return name, ok
	}
}
