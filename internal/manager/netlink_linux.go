//go:build linux

package manager

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// NetlinkObserver listens on a NETLINK_KOBJECT_UEVENT socket for hidraw/usb
// hotplug events, filtered to a single vendor id. No pack example
// demonstrates this socket family directly; the wire format below follows
// the documented kernel uevent ABI (NUL-separated KEY=VALUE lines prefixed
// by an "ACTION@DEVPATH" header).
type NetlinkObserver struct {
	fd       int
	vendorID uint16
	events   chan UEvent
	done     chan struct{}
}

// NewNetlinkObserver opens and binds the uevent netlink socket.
func NewNetlinkObserver(vendorID uint16) (*NetlinkObserver, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}
	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	o := &NetlinkObserver{fd: fd, vendorID: vendorID, events: make(chan UEvent, 16), done: make(chan struct{})}
	go o.loop()
	return o, nil
}

func (o *NetlinkObserver) loop() {
	buf := make([]byte, 8192)
	for {
		n, _, err := unix.Recvfrom(o.fd, buf, 0)
		if err != nil {
			select {
			case <-o.done:
				return
			default:
				continue
			}
		}
		if ev, ok := parseUEvent(buf[:n], o.vendorID); ok {
			select {
			case o.events <- ev:
			default:
			}
		}
	}
}

// parseUEvent decodes one kobject-uevent message, filtering to hidraw/usb
// subsystem add/remove events for the target vendor.
func parseUEvent(msg []byte, vendorID uint16) (UEvent, bool) {
	fields := bytes.Split(msg, []byte{0})
	if len(fields) == 0 {
		return UEvent{}, false
	}

	header := string(fields[0])
	parts := strings.SplitN(header, "@", 2)
	if len(parts) != 2 {
		return UEvent{}, false
	}
	ev := UEvent{Action: parts[0]}

	var hidID string
	for _, f := range fields[1:] {
		kv := strings.SplitN(string(f), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "SUBSYSTEM":
			ev.Subsystem = kv[1]
		case "DEVNAME":
			ev.HidrawPath = "/dev/" + kv[1]
		case "HID_ID":
			hidID = kv[1]
		}
	}
	if ev.Subsystem != "hidraw" {
		return UEvent{}, false
	}
	if hidID != "" {
		ev.VendorID, ev.ProductID = parseHidID(hidID)
	}
	if ev.VendorID != vendorID {
		return UEvent{}, false
	}
	return ev, true
}

// parseHidID parses a HID_ID uevent value of the form "bus:vendor:product"
// in hex, e.g. "0003:00001532:00000203".
func parseHidID(hidID string) (vendor, product uint16) {
	parts := strings.Split(hidID, ":")
	if len(parts) != 3 {
		return 0, 0
	}
	v, _ := strconv.ParseUint(parts[1], 16, 32)
	p, _ := strconv.ParseUint(parts[2], 16, 32)
	return uint16(v), uint16(p)
}

// Events returns the channel of filtered hotplug events.
func (o *NetlinkObserver) Events() <-chan UEvent { return o.events }

// Close releases the netlink socket.
func (o *NetlinkObserver) Close() error {
	close(o.done)
	return unix.Close(o.fd)
}
