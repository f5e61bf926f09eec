package hidio

import "testing"

// TestIoctlNumbers pins the _IOC-encoded HIDIOCSFEATURE/HIDIOCGFEATURE
// request numbers for a 90-byte report against the well-known Linux
// <linux/hid.h> constants (HIDIOCSFEATURE(len) = _IOWR('H', 0x06, len),
// HIDIOCGFEATURE(len) = _IOWR('H', 0x07, len)).
func TestIoctlNumbers(t *testing.T) {
	const size = 90

	got := hidiocSFeature(size)
	want := uintptr((3 << 30) | (size << 16) | ('H' << 8) | 0x06)
	if got != want {
		t.Fatalf("hidiocSFeature(%d) = %#x, want %#x", size, got, want)
	}

	got = hidiocGFeature(size)
	want = uintptr((3 << 30) | (size << 16) | ('H' << 8) | 0x07)
	if got != want {
		t.Fatalf("hidiocGFeature(%d) = %#x, want %#x", size, got, want)
	}
}
