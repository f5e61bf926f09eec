// Package hidio implements the Linux hidraw transport (C5): it opens a
// /dev/hidrawN node and exchanges 90-byte feature reports with it via the
// HIDIOCSFEATURE/HIDIOCGFEATURE ioctls, enforcing one in-flight request per
// device and the active protocol's inter-command delay.
package hidio

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/protocol"
)

// ReadTimeout is the maximum time a read_feature call may block before the
// request is surfaced as a timeout, per spec §5.
const ReadTimeout = time.Second

// These constants mirror the Linux <linux/hid.h> _IOC-encoded ioctl numbers for
// variable-length feature report transfers: HIDIOCSFEATURE(len) and
// HIDIOCGFEATURE(len) both encode the report length into the ioctl request
// number itself.
const (
	iocWrite = 1
	iocRead  = 2
	iocNone  = 0

	hidrawIOCMagic = 'H'
	iocNRBits      = 8
	iocTypeBits    = 8
	iocSizeBits    = 14
	iocDirBits     = 2

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func hidiocSFeature(size int) uintptr {
	return ioc(iocWrite|iocRead, hidrawIOCMagic, 0x06, uintptr(size))
}

func hidiocGFeature(size int) uintptr {
	return ioc(iocWrite|iocRead, hidrawIOCMagic, 0x07, uintptr(size))
}

// Device is an exclusive, mutex-serialized handle to one hidraw node.
type Device struct {
	path string
	fd   int

	mu       sync.Mutex
	lastSend time.Time
	logger   WireLogger
}

// Open opens the hidraw node at path (e.g. "/dev/hidraw3").
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, chromaerr.DeviceOffline(fmt.Sprintf("open %s: %v", path, err))
	}
	return &Device{path: path, fd: fd, logger: NewWireLogger(nil)}, nil
}

// SetWireLogger installs a wire-level trace logger; nil disables tracing.
func (d *Device) SetWireLogger(l WireLogger) {
	if l == nil {
		l = NewWireLogger(nil)
	}
	d.logger = l
}

// Close releases the underlying file descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// SendFeature issues HIDIOCSFEATURE with the 90-byte report.
func (d *Device) SendFeature(report [protocol.ReportSize]byte) error {
	buf := report
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), hidiocSFeature(protocol.ReportSize), uintptr(unsafe.Pointer(&buf[0])))
	d.logger.Log(true, buf[:])
	if errno != 0 {
		return chromaerr.ProtocolError(fmt.Sprintf("HIDIOCSFEATURE on %s: %v", d.path, errno))
	}
	return nil
}

// ReadFeature issues HIDIOCGFEATURE and returns the decoded 90-byte report.
// It races the ioctl against ReadTimeout so a wedged device surfaces a
// Timeout error instead of hanging the caller forever.
func (d *Device) ReadFeature() ([protocol.ReportSize]byte, error) {
	type result struct {
		buf   [protocol.ReportSize]byte
		errno unix.Errno
	}
	done := make(chan result, 1)
	go func() {
		var buf [protocol.ReportSize]byte
		buf[0] = 0 // report id
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), hidiocGFeature(protocol.ReportSize), uintptr(unsafe.Pointer(&buf[0])))
		done <- result{buf: buf, errno: errno}
	}()

	select {
	case r := <-done:
		d.logger.Log(false, r.buf[:])
		if r.errno != 0 {
			return r.buf, chromaerr.ProtocolError(fmt.Sprintf("HIDIOCGFEATURE on %s: %v", d.path, r.errno))
		}
		return r.buf, nil
	case <-time.After(ReadTimeout):
		return [protocol.ReportSize]byte{}, chromaerr.Timeout(fmt.Sprintf("read_feature on %s exceeded %s", d.path, ReadTimeout))
	}
}

// SendHeadsetFeature issues HIDIOCSFEATURE with the headset memory
// protocol's 37-byte output report (spec §6), a separate report stream from
// the 90-byte LED command reports.
func (d *Device) SendHeadsetFeature(report [protocol.HeadsetOutputSize]byte) error {
	buf := report
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), hidiocSFeature(protocol.HeadsetOutputSize), uintptr(unsafe.Pointer(&buf[0])))
	d.logger.Log(true, buf[:])
	if errno != 0 {
		return chromaerr.ProtocolError(fmt.Sprintf("HIDIOCSFEATURE (headset) on %s: %v", d.path, errno))
	}
	return nil
}

// ReadHeadsetFeature issues HIDIOCGFEATURE for the headset memory protocol's
// 33-byte input report, racing it against ReadTimeout like ReadFeature.
func (d *Device) ReadHeadsetFeature() ([protocol.HeadsetInputSize]byte, error) {
	type result struct {
		buf   [protocol.HeadsetInputSize]byte
		errno unix.Errno
	}
	done := make(chan result, 1)
	go func() {
		var buf [protocol.HeadsetInputSize]byte
		buf[0] = protocol.HeadsetInputReportID
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), hidiocGFeature(protocol.HeadsetInputSize), uintptr(unsafe.Pointer(&buf[0])))
		done <- result{buf: buf, errno: errno}
	}()

	select {
	case r := <-done:
		d.logger.Log(false, r.buf[:])
		if r.errno != 0 {
			return r.buf, chromaerr.ProtocolError(fmt.Sprintf("HIDIOCGFEATURE (headset) on %s: %v", d.path, r.errno))
		}
		return r.buf, nil
	case <-time.After(ReadTimeout):
		return [protocol.HeadsetInputSize]byte{}, chromaerr.Timeout(fmt.Sprintf("read_headset_feature on %s exceeded %s", d.path, ReadTimeout))
	}
}

// WithDevice runs fn under the device's exclusive lock, enforcing the
// profile's inter-command delay against the previous call's completion
// before fn is invoked. This matches the single-mutex-per-resource
// discipline used for command serialization elsewhere in the stack.
func (d *Device) WithDevice(profile protocol.Profile, fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if profile.InterCommandDelay > 0 {
		if wait := profile.InterCommandDelay - time.Since(d.lastSend); wait > 0 {
			time.Sleep(wait)
		}
	}
	err := fn()
	d.lastSend = time.Now()
	return err
}
