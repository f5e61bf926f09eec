//go:build linux

package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveEvdevPath finds the /dev/input/eventN node that belongs to the
// same composite USB device as the hidraw node at hidrawPath. Razer
// keyboards expose their key matrix as a standard USB HID boot-keyboard
// interface sitting alongside the vendor-specific hidraw interface used for
// the Chroma control protocol; both are child interfaces of one physical
// USB device, so the evdev node is found by walking up from the hidraw
// interface to the shared USB device directory and back down into whatever
// sibling interface registered an input/inputM/eventN node.
func ResolveEvdevPath(hidrawPath string) (string, error) {
	hidrawName := filepath.Base(hidrawPath)
	devLink := filepath.Join("/sys/class/hidraw", hidrawName, "device")
	hidDevDir, err := filepath.EvalSymlinks(devLink)
	if err != nil {
		return "", fmt.Errorf("resolve hidraw device symlink: %w", err)
	}

	// hidDevDir looks like .../1-1:1.3/0003:1532:0203.0011; its parent is
	// the USB interface directory (1-1:1.3), and that interface's parent
	// is the composite USB device directory (1-1) shared by every sibling
	// interface, including the one backing the keyboard's input node.
	usbIface := filepath.Dir(hidDevDir)
	usbDevice := filepath.Dir(usbIface)

	var found string
	err = filepath.Walk(usbDevice, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if found != "" {
			return filepath.SkipDir
		}
		if info.IsDir() && strings.HasPrefix(info.Name(), "event") {
			found = filepath.Join("/dev/input", info.Name())
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk usb device tree %s: %w", usbDevice, err)
	}
	if found == "" {
		return "", fmt.Errorf("no evdev node found under %s", usbDevice)
	}
	return found, nil
}
