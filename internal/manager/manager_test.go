package manager_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/device"
	"github.com/chromad/chromad/internal/manager"
	"github.com/chromad/chromad/internal/protocol"
	"github.com/chromad/chromad/pkg/chromatypes"
)

type fakeTransport struct{}

func (fakeTransport) SendFeature(report [protocol.ReportSize]byte) error { return nil }

func (fakeTransport) ReadFeature() ([protocol.ReportSize]byte, error) {
	req := protocol.Unpack([protocol.ReportSize]byte{}, false)
	resp, _ := protocol.Pack(protocol.Request{TransactionID: req.TransactionID})
	resp[0] = byte(protocol.StatusOK)
	var crc byte
	for i := 1; i < 87; i++ {
		crc ^= resp[i]
	}
	resp[88] = crc
	return resp, nil
}

func (fakeTransport) WithDevice(profile protocol.Profile, fn func() error) error { return fn() }

func waitForLen(t *testing.T, get func() int, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if get() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.FailNow(t, "condition never satisfied")
}

func TestManager_AddThenRemovePublishesEvents(t *testing.T) {
	store := descriptor.NewStore()
	store.Add(descriptor.LegacyKeyboard())

	var published []chromatypes.Event
	observer := manager.NewFakeObserver()
	m := manager.New(store, observer, func(path string) (device.Transport, error) {
		return fakeTransport{}, nil
	}, func(ev chromatypes.Event) {
		published = append(published, ev)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	legacy := descriptor.LegacyKeyboard()
	observer.Push(manager.UEvent{Action: "add", Subsystem: "hidraw", HidrawPath: "/dev/hidraw0", VendorID: legacy.VendorID, ProductID: legacy.ProductID})

	waitForLen(t, func() int { return len(m.Devices()) }, 1)
	assert.Len(t, published, 1)
	assert.Equal(t, "device_added", published[0].Kind)

	observer.Push(manager.UEvent{Action: "remove", Subsystem: "hidraw", HidrawPath: "/dev/hidraw0"})
	waitForLen(t, func() int { return len(m.Devices()) }, 0)
	assert.Len(t, published, 2)
	assert.Equal(t, "device_removed", published[1].Kind)
}

func TestManager_UnknownDescriptorIsIgnored(t *testing.T) {
	store := descriptor.NewStore()

	observer := manager.NewFakeObserver()
	m := manager.New(store, observer, func(path string) (device.Transport, error) {
		return fakeTransport{}, nil
	}, func(chromatypes.Event) {}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	observer.Push(manager.UEvent{Action: "add", Subsystem: "hidraw", HidrawPath: "/dev/hidraw9", VendorID: 0xFFFF, ProductID: 0xFFFF})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, m.Devices())
}
