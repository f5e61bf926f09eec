package chromaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromad/chromad/pkg/chromatypes"
)

// Client provides a high-level interface to chromad's remote object
// interface, handling request formatting, response parsing, and error
// unwrapping.
type Client struct{ transport *Transport }

// New constructs a client with no authentication, addr being a host:port.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client over a caller-supplied Transport,
// primarily for tests driven by NewMockTransport.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping reports the server's identity and version.
func (c *Client) Ping() (*chromatypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

func (c *Client) PingCtx(ctx context.Context) (*chromatypes.PingResponse, error) {
	raw, err := c.transport.DoCtx(ctx, "ping", nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.PingResponse](raw)
}

// ListDevices returns every device currently attached to the daemon.
func (c *Client) ListDevices() (*chromatypes.DevicesListResponse, error) {
	return c.ListDevicesCtx(context.Background())
}

func (c *Client) ListDevicesCtx(ctx context.Context) (*chromatypes.DevicesListResponse, error) {
	raw, err := c.transport.DoCtx(ctx, "list_devices", nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.DevicesListResponse](raw)
}

// DeviceProperties returns a snapshot of one device's current state.
func (c *Client) DeviceProperties(id string) (*chromatypes.DeviceProperties, error) {
	return c.DevicePropertiesCtx(context.Background(), id)
}

func (c *Client) DevicePropertiesCtx(ctx context.Context, id string) (*chromatypes.DeviceProperties, error) {
	raw, err := c.transport.DoCtx(ctx, "device/{id}", nil, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.DeviceProperties](raw)
}

// SetBrightness sets a named LED's brightness as a [0,100] percentage.
func (c *Client) SetBrightness(id, led string, level uint8) error {
	return c.do(context.Background(), "device/{id}/set_brightness", id, chromatypes.SetBrightnessRequest{LED: led, Level: level})
}

// SetSuspend toggles a device's suspend state.
func (c *Client) SetSuspend(id string, suspended bool) error {
	return c.do(context.Background(), "device/{id}/set_suspend", id, chromatypes.SetSuspendRequest{Suspended: suspended})
}

// Reset disables any active effect, restores full brightness, and removes
// all renderer layers.
func (c *Client) Reset(id string) error {
	return c.do(context.Background(), "device/{id}/reset", id, nil)
}

// SetLED toggles a single LED and optionally its static color.
func (c *Client) SetLED(id string, req chromatypes.SetLEDRequest) error {
	return c.do(context.Background(), "device/{id}/set_led", id, req)
}

// SetEffect activates a built-in hardware effect by name.
func (c *Client) SetEffect(id string, req chromatypes.SetEffectRequest) error {
	return c.do(context.Background(), "device/{id}/set_effect", id, req)
}

// ListAvailableRenderers lists every built-in software renderer name. The
// list is the same for every device; it is not filtered by the device's
// capabilities.
func (c *Client) ListAvailableRenderers(id string) (*chromatypes.RendererListResponse, error) {
	raw, err := c.transport.Do("device/{id}/list_available_renderers", nil, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.RendererListResponse](raw)
}

// AddRenderer attaches a renderer layer to the device's compositor.
func (c *Client) AddRenderer(id string, req chromatypes.AddRendererRequest) (*chromatypes.AddRendererResponse, error) {
	raw, err := c.transport.Do("device/{id}/add_renderer", req, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.AddRendererResponse](raw)
}

// SetLayerTraits updates a renderer layer's tunable traits.
func (c *Client) SetLayerTraits(id string, req chromatypes.SetLayerTraitsRequest) error {
	return c.do(context.Background(), "device/{id}/set_layer_traits", id, req)
}

// RemoveRenderer detaches a renderer layer.
func (c *Client) RemoveRenderer(id string, req chromatypes.RemoveRendererRequest) error {
	return c.do(context.Background(), "device/{id}/remove_renderer", id, req)
}

// PauseAnimation pauses or resumes the device's compositor.
func (c *Client) PauseAnimation(id string, paused bool) error {
	return c.do(context.Background(), "device/{id}/pause_animation", id, chromatypes.PauseAnimationRequest{Paused: paused})
}

// StopAnimation removes every renderer layer and resets the device.
func (c *Client) StopAnimation(id string) error {
	return c.do(context.Background(), "device/{id}/stop_animation", id, nil)
}

// GetCurrentFrame reads the device's last composited frame.
func (c *Client) GetCurrentFrame(id string) (*chromatypes.FrameResponse, error) {
	raw, err := c.transport.Do("device/{id}/get_current_frame", nil, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.FrameResponse](raw)
}

// SetFanAuto returns a laptop's fan control to the firmware's curve.
func (c *Client) SetFanAuto(id string) error {
	return c.do(context.Background(), "device/{id}/set_fan_auto", id, nil)
}

// SetFanRPM requests a manual fan speed; Overridden reports whether the
// thermal/safety overlay forced automatic control instead.
func (c *Client) SetFanRPM(id string, rpm int) (*chromatypes.SetFanRPMResponse, error) {
	raw, err := c.transport.Do("device/{id}/set_fan_rpm", chromatypes.SetFanRPMRequest{RPM: rpm}, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.SetFanRPMResponse](raw)
}

// SetPowerMode switches a laptop's power profile.
func (c *Client) SetPowerMode(id, mode string) error {
	return c.do(context.Background(), "device/{id}/set_power_mode", id, chromatypes.SetPowerModeRequest{Mode: mode})
}

// GetFanRPM reads a laptop's current fan speed.
func (c *Client) GetFanRPM(id string) (*chromatypes.FanRPMResponse, error) {
	raw, err := c.transport.Do("device/{id}/get_fan_rpm", nil, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.FanRPMResponse](raw)
}

// GetTemperatures reads every sensor reading available for a laptop.
func (c *Client) GetTemperatures(id string) (*chromatypes.TemperaturesResponse, error) {
	raw, err := c.transport.Do("device/{id}/get_temperatures", nil, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.TemperaturesResponse](raw)
}

// ReadMemory reads from a headset's onboard RAM or EEPROM.
func (c *Client) ReadMemory(id string, offset uint16, length uint8, eeprom bool) (*chromatypes.ReadMemoryResponse, error) {
	raw, err := c.transport.Do("device/{id}/read_memory", chromatypes.ReadMemoryRequest{Offset: offset, Length: length, EEPROM: eeprom}, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return parse[chromatypes.ReadMemoryResponse](raw)
}

// WriteMemory writes to a headset's onboard RAM.
func (c *Client) WriteMemory(id string, offset uint16, data []byte) error {
	return c.do(context.Background(), "device/{id}/write_memory", id, chromatypes.WriteMemoryRequest{Offset: offset, Data: data})
}

// do is the common path for routes whose success response is an empty body.
func (c *Client) do(ctx context.Context, path, id string, payload any) error {
	raw, err := c.transport.DoCtx(ctx, path, payload, map[string]string{"id": id})
	if err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	var problem chromatypes.ApiError
	if err := json.Unmarshal([]byte(raw), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return &problem
	}
	return nil
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem chromatypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
