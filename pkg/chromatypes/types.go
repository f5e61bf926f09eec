// Package chromatypes holds the wire-level DTOs exchanged between chromad
// and its clients: the RFC 7807-style error envelope and the JSON payloads
// for every route in the remote object interface.
package chromatypes

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// PingResponse answers the "ping" route.
type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	// LivePreviewFPS is the advisory frame rate a preview consumer should
	// poll get_current_frame/watch at; it does not bind the compositor.
	LivePreviewFPS int `json:"livePreviewFps,omitempty"`
	DevMode        bool `json:"devMode,omitempty"`
}

// DeviceSummary is one entry of the "list_devices" response.
type DeviceSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	VendorID  string `json:"vendorId"`
	ProductID string `json:"productId"`
	Online    bool   `json:"online"`
}

// DevicesListResponse answers the "list_devices" route.
type DevicesListResponse struct {
	Devices []DeviceSummary `json:"devices"`
}

// DeviceProperties answers the "device/{id}" route: a snapshot of a single
// device's current state, covering every readable property spec §6 lists
// for a device object.
type DeviceProperties struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Kind             string             `json:"kind"`
	VendorID         string             `json:"vendorId"`
	ProductID        string             `json:"productId"`
	Serial           string             `json:"serial,omitempty"`
	Firmware         string             `json:"firmware,omitempty"`
	Rows             int                `json:"rows,omitempty"`
	Cols             int                `json:"cols,omitempty"`
	SupportedLEDs    []string           `json:"supportedLeds"`
	SupportedEffects []string           `json:"availableEffects"`
	Capabilities     []string           `json:"capabilities"`
	Online           bool               `json:"online"`
	Brightness       uint8              `json:"brightness"`
	Suspended        bool               `json:"suspended"`
	CurrentEffect    *EffectState       `json:"currentEffect,omitempty"`
	Renderers        []string           `json:"supportedRenderers"`
	ActiveLayers     []ActiveLayer      `json:"activeLayers,omitempty"`
	Battery          *uint8             `json:"battery,omitempty"`
	Charging         *bool              `json:"charging,omitempty"`
	Stale            bool               `json:"stale,omitempty"`
	FanRPM           *int               `json:"fanRpm,omitempty"`
	PowerMode        *string            `json:"powerMode,omitempty"`
	Temperatures     map[string]float64 `json:"temperatures,omitempty"`
}

// EffectState is a device's currently active built-in effect and the
// argument bytes it was last set with.
type EffectState struct {
	Name string `json:"name"`
	Args []byte `json:"args,omitempty"`
}

// ActiveLayer is one entry of DeviceProperties.ActiveLayers.
type ActiveLayer struct {
	LayerID  string `json:"layerId"`
	ZIndex   int    `json:"zIndex"`
	Renderer string `json:"renderer"`
}

// SetBrightnessRequest is the payload for "device/{id}/set_brightness".
// Level is a percentage in [0,100]; the driver converts it to the hardware
// brightness byte.
type SetBrightnessRequest struct {
	LED   string `json:"led"`
	Level uint8  `json:"level"`
}

// SetSuspendRequest is the payload for "device/{id}/set_suspend".
type SetSuspendRequest struct {
	Suspended bool `json:"suspended"`
}

// SetLEDRequest is the payload for "device/{id}/set_led".
type SetLEDRequest struct {
	LED   string `json:"led"`
	State bool   `json:"state"`
	Color *RGB   `json:"color,omitempty"`
}

// RGB is a wire-level 24-bit color triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// SetEffectRequest is the payload for "device/{id}/set_effect".
type SetEffectRequest struct {
	Effect string            `json:"effect"`
	Colors []RGB             `json:"colors,omitempty"`
	Speed  *uint8             `json:"speed,omitempty"`
	Extra  map[string]any     `json:"extra,omitempty"`
}

// RendererListResponse answers "device/{id}/list_available_renderers".
type RendererListResponse struct {
	Renderers []string `json:"renderers"`
}

// AddRendererRequest is the payload for "device/{id}/add_renderer".
// BlendMode, Opacity, and Background configure the layer's composition
// parameters (spec §3/§4.8), independent of the renderer's own traits.
type AddRendererRequest struct {
	Renderer   string         `json:"renderer"`
	ZOrder     int            `json:"zOrder"`
	FPS        int            `json:"fps"`
	Traits     map[string]any `json:"traits,omitempty"`
	BlendMode  string         `json:"blendMode,omitempty"`
	Opacity    *float64       `json:"opacity,omitempty"`
	Background *RGB           `json:"background,omitempty"`
}

// AddRendererResponse answers "device/{id}/add_renderer".
type AddRendererResponse struct {
	LayerID string `json:"layerId"`
}

// SetLayerTraitsRequest is the payload for "device/{id}/set_layer_traits".
// BlendMode, Opacity, and Background update the layer's composition
// parameters (spec §3/§4.8); Traits updates the renderer's own tunables.
// Either group may be omitted.
type SetLayerTraitsRequest struct {
	LayerID    string         `json:"layerId"`
	Traits     map[string]any `json:"traits"`
	BlendMode  string         `json:"blendMode,omitempty"`
	Opacity    *float64       `json:"opacity,omitempty"`
	Background *RGB           `json:"background,omitempty"`
}

// RemoveRendererRequest is the payload for "device/{id}/remove_renderer".
type RemoveRendererRequest struct {
	LayerID string `json:"layerId"`
}

// PauseAnimationRequest is the payload for "device/{id}/pause_animation".
type PauseAnimationRequest struct {
	Paused bool `json:"paused"`
}

// FrameResponse answers "device/{id}/get_current_frame".
type FrameResponse struct {
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	Pixel [][]RGB `json:"pixels"`
}

// SetFanAutoRequest is the payload for "device/{id}/set_fan_auto".
type SetFanAutoRequest struct {
	Auto bool `json:"auto"`
}

// SetFanRPMRequest is the payload for "device/{id}/set_fan_rpm".
type SetFanRPMRequest struct {
	RPM int `json:"rpm"`
}

// SetPowerModeRequest is the payload for "device/{id}/set_power_mode".
type SetPowerModeRequest struct {
	Mode string `json:"mode"`
}

// FanRPMResponse answers "device/{id}/get_fan_rpm".
type FanRPMResponse struct {
	RPM int `json:"rpm"`
}

// SetFanRPMResponse answers "device/{id}/set_fan_rpm". Overridden is true
// when the thermal/safety overlay converted the manual request into
// set_fan_auto because a sensor was at or above its override threshold.
type SetFanRPMResponse struct {
	Overridden bool   `json:"overridden"`
	Reason     string `json:"reason,omitempty"`
}

// ReadMemoryRequest is the payload for "device/{id}/read_memory", a
// headset-only route over the RAM/EEPROM report stream.
type ReadMemoryRequest struct {
	Offset uint16 `json:"offset"`
	Length uint8  `json:"length"`
	EEPROM bool   `json:"eeprom,omitempty"`
}

// ReadMemoryResponse answers "device/{id}/read_memory". Data is base64
// encoded by the JSON layer since it's a raw byte payload.
type ReadMemoryResponse struct {
	Data []byte `json:"data"`
}

// WriteMemoryRequest is the payload for "device/{id}/write_memory". Data is
// base64 encoded by the JSON layer since it's a raw byte payload.
type WriteMemoryRequest struct {
	Offset uint16 `json:"offset"`
	Data   []byte `json:"data"`
}

// TemperaturesResponse answers "device/{id}/get_temperatures".
type TemperaturesResponse struct {
	Temperatures map[string]float64 `json:"temperatures"`
}

// SaveProfileRequest is the payload for "device/{id}/save_profile". An
// empty Name saves the device's active profile; a non-empty Name saves a
// named snapshot alongside it.
type SaveProfileRequest struct {
	Name string `json:"name,omitempty"`
}

// LoadProfileRequest is the payload for "device/{id}/load_profile".
type LoadProfileRequest struct {
	Name string `json:"name,omitempty"`
}

// Event is a push-style property-change notification sent on a watch stream.
type Event struct {
	DeviceID string         `json:"deviceId"`
	Kind     string         `json:"kind"`
	Data     map[string]any `json:"data,omitempty"`
}

// ParseHexOrNumber accepts either a JSON number or a hex string like
// "0x1532" and converts it to N, returning an error when the value lies
// outside N's range.
func ParseHexOrNumber[N constraints.Integer](v any) (N, error) {
	var zero N
	switch val := v.(type) {
	case float64:
		var minVal, maxVal float64
		switch any(zero).(type) {
		case int8:
			minVal, maxVal = math.MinInt8, math.MaxInt8
		case int16:
			minVal, maxVal = math.MinInt16, math.MaxInt16
		case int32:
			minVal, maxVal = math.MinInt32, math.MaxInt32
		case int64, int:
			minVal, maxVal = math.MinInt64, math.MaxInt64
		case uint8:
			minVal, maxVal = 0, math.MaxUint8
		case uint16:
			minVal, maxVal = 0, math.MaxUint16
		case uint32:
			minVal, maxVal = 0, math.MaxUint32
		case uint64, uint:
			minVal, maxVal = 0, math.MaxUint64
		default:
			return zero, fmt.Errorf("unsupported integer type %T", zero)
		}
		if val < minVal || val > maxVal {
			return zero, fmt.Errorf("value %v out of range for type %T", val, zero)
		}
		return N(val), nil
	case string:
		s := strings.TrimSpace(val)
		base := 10
		if strings.HasPrefix(strings.ToLower(s), "0x") {
			s = s[2:]
			base = 16
		} else if strings.ContainsAny(s, "abcdefABCDEF") {
			base = 16
		}
		var bitSize int
		switch any(zero).(type) {
		case int8, uint8:
			bitSize = 8
		case int16, uint16:
			bitSize = 16
		case int32, uint32:
			bitSize = 32
		default:
			bitSize = 64
		}
		switch any(zero).(type) {
		case int, int8, int16, int32, int64:
			parsed, err := strconv.ParseInt(s, base, bitSize)
			if err != nil {
				return zero, fmt.Errorf("invalid hex/numeric string %q: %w", val, err)
			}
			return N(parsed), nil
		default:
			parsed, err := strconv.ParseUint(s, base, bitSize)
			if err != nil {
				return zero, fmt.Errorf("invalid hex/numeric string %q: %w", val, err)
			}
			return N(parsed), nil
		}
	default:
		return zero, fmt.Errorf("expected number or hex string, got %T", v)
	}
}
