package handler_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/device"
	"github.com/chromad/chromad/internal/manager"
	"github.com/chromad/chromad/internal/protocol"
	"github.com/chromad/chromad/internal/server/api"
	"github.com/chromad/chromad/internal/server/api/handler"
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

// fakeHeadsetTransport additionally implements device.HeadsetTransport,
// echoing a fixed payload back for every read.
type fakeHeadsetTransport struct {
	fakeTransport
}

func (fakeHeadsetTransport) SendHeadsetFeature(report [protocol.HeadsetOutputSize]byte) error {
	return nil
}

func (fakeHeadsetTransport) ReadHeadsetFeature() ([protocol.HeadsetInputSize]byte, error) {
	var buf [protocol.HeadsetInputSize]byte
	buf[0] = protocol.HeadsetInputReportID
	buf[1] = 0x42
	return buf, nil
}

func setupHeadset(t *testing.T) (*api.Router, string) {
	t.Helper()
	store := descriptor.NewStore()
	headset := descriptor.Kraken7_1()
	store.Add(headset)

	observer := manager.NewFakeObserver()
	m := manager.New(store, observer, func(path string) (device.Transport, error) {
		return fakeHeadsetTransport{}, nil
	}, func(chromatypes.Event) {}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()

	observer.Push(manager.UEvent{Action: "add", Subsystem: "hidraw", HidrawPath: "/dev/hidraw1", VendorID: headset.VendorID, ProductID: headset.ProductID})
	waitForLen(t, func() int { return len(m.Devices()) }, 1)

	router := api.NewRouter()
	handler.Register(router, handler.Deps{Manager: m, Version: "test"})
	return router, "/dev/hidraw1"
}

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

func setup(t *testing.T) (*api.Router, *manager.Manager, string) {
	t.Helper()
	store := descriptor.NewStore()
	legacy := descriptor.LegacyKeyboard()
	store.Add(legacy)

	observer := manager.NewFakeObserver()
	m := manager.New(store, observer, func(path string) (device.Transport, error) {
		return fakeTransport{}, nil
	}, func(chromatypes.Event) {}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()

	observer.Push(manager.UEvent{Action: "add", Subsystem: "hidraw", HidrawPath: "/dev/hidraw0", VendorID: legacy.VendorID, ProductID: legacy.ProductID})
	waitForLen(t, func() int { return len(m.Devices()) }, 1)

	router := api.NewRouter()
	handler.Register(router, handler.Deps{Manager: m, Version: "test"})
	return router, m, "/dev/hidraw0"
}

func call(t *testing.T, router *api.Router, path, payload string) string {
	t.Helper()
	h, params := router.Match(path)
	require.NotNil(t, h, "no handler registered for %s", path)
	req := &api.Request{Ctx: context.Background(), Params: params, Payload: payload}
	res := &api.Response{}
	err := h(req, res, nil)
	require.NoError(t, err)
	return res.JSON
}

func TestPing(t *testing.T) {
	router, _, _ := setup(t)
	out := call(t, router, "ping", "")
	var resp chromatypes.PingResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "chromad", resp.Server)
	assert.Equal(t, "test", resp.Version)
}

func TestListDevices(t *testing.T) {
	router, _, id := setup(t)
	out := call(t, router, "list_devices", "")
	var resp chromatypes.DevicesListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, id, resp.Devices[0].ID)
	assert.True(t, resp.Devices[0].Online)
}

func TestDeviceProperties(t *testing.T) {
	router, _, id := setup(t)
	out := call(t, router, "device/"+id, "")
	var props chromatypes.DeviceProperties
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.True(t, props.Online)
	assert.Contains(t, props.Renderers, "static")
}

func TestSetBrightnessThenReadBack(t *testing.T) {
	router, _, id := setup(t)
	payload, _ := json.Marshal(chromatypes.SetBrightnessRequest{LED: "backlight", Level: 75})
	call(t, router, "device/"+id+"/set_brightness", string(payload))

	out := call(t, router, "device/"+id, "")
	var props chromatypes.DeviceProperties
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.Equal(t, uint8(75), props.Brightness)
}

func TestAddRendererThenRemove(t *testing.T) {
	router, _, id := setup(t)
	addPayload, _ := json.Marshal(chromatypes.AddRendererRequest{Renderer: "static", ZOrder: 1})
	out := call(t, router, "device/"+id+"/add_renderer", string(addPayload))
	var added chromatypes.AddRendererResponse
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	assert.NotEmpty(t, added.LayerID)

	removePayload, _ := json.Marshal(chromatypes.RemoveRendererRequest{LayerID: added.LayerID})
	call(t, router, "device/"+id+"/remove_renderer", string(removePayload))
}

func TestAddUnknownRendererFails(t *testing.T) {
	router, _, id := setup(t)
	h, params := router.Match("device/" + id + "/add_renderer")
	require.NotNil(t, h)
	payload, _ := json.Marshal(chromatypes.AddRendererRequest{Renderer: "does-not-exist"})
	req := &api.Request{Ctx: context.Background(), Params: params, Payload: string(payload)}
	err := h(req, &api.Response{}, nil)
	assert.Error(t, err)
}

func TestListAvailableRenderers(t *testing.T) {
	router, _, id := setup(t)
	out := call(t, router, "device/"+id+"/list_available_renderers", "")
	var resp chromatypes.RendererListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Renderers, "static")
	assert.Contains(t, resp.Renderers, "ripple")
}

func TestGetCurrentFrame(t *testing.T) {
	router, _, id := setup(t)
	out := call(t, router, "device/"+id+"/get_current_frame", "")
	var resp chromatypes.FrameResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 6, resp.Rows)
	assert.Len(t, resp.Pixel, resp.Rows)
}

func TestReadMemory(t *testing.T) {
	router, id := setupHeadset(t)
	payload, _ := json.Marshal(chromatypes.ReadMemoryRequest{Offset: 0, Length: 1})
	out := call(t, router, "device/"+id+"/read_memory", string(payload))
	var resp chromatypes.ReadMemoryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []byte{0x42}, resp.Data)
}

func TestWriteMemory(t *testing.T) {
	router, id := setupHeadset(t)
	payload, _ := json.Marshal(chromatypes.WriteMemoryRequest{Offset: 0, Data: []byte{1, 2, 3}})
	_ = call(t, router, "device/"+id+"/write_memory", string(payload))
}

func TestReadMemoryRejectedForNonHeadset(t *testing.T) {
	router, _, id := setup(t)
	payload, _ := json.Marshal(chromatypes.ReadMemoryRequest{Offset: 0, Length: 1})
	h, params := router.Match("device/" + id + "/read_memory")
	require.NotNil(t, h)
	req := &api.Request{Ctx: context.Background(), Params: params, Payload: string(payload)}
	err := h(req, &api.Response{}, nil)
	assert.Error(t, err)
}

func TestUnknownDeviceRejected(t *testing.T) {
	router, _, _ := setup(t)
	h, params := router.Match("device/does-not-exist/set_brightness")
	require.NotNil(t, h)
	payload, _ := json.Marshal(chromatypes.SetBrightnessRequest{LED: "backlight", Level: 1})
	req := &api.Request{Ctx: context.Background(), Params: params, Payload: string(payload)}
	err := h(req, &api.Response{}, nil)
	assert.Error(t, err)
}
