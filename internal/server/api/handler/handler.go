// Package handler wires the remote object interface's routes (spec §6) to
// the device manager, translating JSON request/response payloads through
// pkg/chromatypes and device/compositor operations.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/device"
	"github.com/chromad/chromad/internal/manager"
	"github.com/chromad/chromad/internal/profile"
	"github.com/chromad/chromad/internal/renderer"
	"github.com/chromad/chromad/internal/renderer/builtin"
	"github.com/chromad/chromad/internal/server/api"
	"github.com/chromad/chromad/internal/server/api/auth"
	"github.com/chromad/chromad/pkg/chromatypes"
)

// Deps bundles everything the registered handlers need.
type Deps struct {
	Manager *manager.Manager
	Version string
	// ProfileDir is the directory save_profile/load_profile persist and
	// read per-device preference records from. Empty disables both routes.
	ProfileDir string
	// LivePreviewFPS and DevMode are surfaced on ping so clients can learn
	// the server's advisory preview rate and whether dev mode is set.
	LivePreviewFPS int
	DevMode        bool
}

// Register wires every route named in spec §6 onto router.
func Register(router *api.Router, deps Deps) {
	router.Register("ping", deps.ping)
	router.Register("list_devices", deps.listDevices)
	router.Register("device/{id}", deps.deviceProperties)
	router.Register("device/{id}/set_brightness", deps.setBrightness)
	router.Register("device/{id}/set_suspend", deps.setSuspend)
	router.Register("device/{id}/reset", deps.reset)
	router.Register("device/{id}/set_led", deps.setLED)
	router.Register("device/{id}/set_effect", deps.setEffect)
	router.Register("device/{id}/list_available_renderers", deps.listRenderers)
	router.Register("device/{id}/add_renderer", deps.addRenderer)
	router.Register("device/{id}/set_layer_traits", deps.setLayerTraits)
	router.Register("device/{id}/remove_renderer", deps.removeRenderer)
	router.Register("device/{id}/pause_animation", deps.pauseAnimation)
	router.Register("device/{id}/stop_animation", deps.stopAnimation)
	router.Register("device/{id}/get_current_frame", deps.getCurrentFrame)
	router.Register("device/{id}/set_fan_auto", deps.setFanAuto)
	router.Register("device/{id}/set_fan_rpm", deps.setFanRPM)
	router.Register("device/{id}/set_power_mode", deps.setPowerMode)
	router.Register("device/{id}/get_fan_rpm", deps.getFanRPM)
	router.Register("device/{id}/get_temperatures", deps.getTemperatures)
	router.Register("device/{id}/read_memory", deps.readMemory)
	router.Register("device/{id}/write_memory", deps.writeMemory)
	router.Register("device/{id}/save_profile", deps.saveProfile)
	router.Register("device/{id}/load_profile", deps.loadProfile)
	router.RegisterStream("watch/{id}", deps.watch)
}

func decode[T any](payload string) (T, error) {
	var v T
	if payload == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return v, chromaerr.InvalidArgument("malformed request payload: " + err.Error())
	}
	return v, nil
}

func encode(res *api.Response, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return chromaerr.ProtocolError("failed to encode response: " + err.Error())
	}
	res.JSON = string(data)
	return nil
}

func (d Deps) lookupDevice(id string) (*device.Device, error) {
	drv, _, ok := d.Manager.Device(id)
	if !ok {
		return nil, chromaerr.InvalidArgument("unknown device: " + id)
	}
	return drv, nil
}

func (d Deps) lookupCompositor(id string) (*compositor.Compositor, error) {
	_, comp, ok := d.Manager.Device(id)
	if !ok {
		return nil, chromaerr.InvalidArgument("unknown device: " + id)
	}
	return comp, nil
}

func (d Deps) ping(req *api.Request, res *api.Response, logger *slog.Logger) error {
	return encode(res, chromatypes.PingResponse{
		Server:         "chromad",
		Version:        d.Version,
		LivePreviewFPS: d.LivePreviewFPS,
		DevMode:        d.DevMode,
	})
}

func (d Deps) listDevices(req *api.Request, res *api.Response, logger *slog.Logger) error {
	summaries := make([]chromatypes.DeviceSummary, 0)
	for _, id := range d.Manager.Devices() {
		drv, _, ok := d.Manager.Device(id)
		if !ok {
			continue
		}
		desc, _ := d.Manager.Descriptor(id)
		summaries = append(summaries, chromatypes.DeviceSummary{
			ID:        id,
			Name:      desc.Name,
			Kind:      string(desc.Kind),
			VendorID:  fmt.Sprintf("0x%04X", desc.VendorID),
			ProductID: fmt.Sprintf("0x%04X", desc.ProductID),
			Online:    !drv.Offline(),
		})
	}
	return encode(res, chromatypes.DevicesListResponse{Devices: summaries})
}

func (d Deps) deviceProperties(req *api.Request, res *api.Response, logger *slog.Logger) error {
	id := req.Params["id"]
	drv, err := d.lookupDevice(id)
	if err != nil {
		return err
	}
	desc, _ := d.Manager.Descriptor(id)

	capStrings := make([]string, len(desc.Capabilities))
	for i, c := range desc.Capabilities {
		capStrings[i] = string(c)
	}

	props := chromatypes.DeviceProperties{
		ID:               id,
		Name:             desc.Name,
		Kind:             string(desc.Kind),
		VendorID:         fmt.Sprintf("0x%04X", desc.VendorID),
		ProductID:        fmt.Sprintf("0x%04X", desc.ProductID),
		SupportedLEDs:    desc.SupportedLEDs,
		SupportedEffects: desc.SupportedEffects,
		Capabilities:     capStrings,
		Online:           !drv.Offline(),
		Suspended:        drv.Suspended(),
		Renderers:        builtin.Names(),
	}
	if desc.Dimensions != nil {
		props.Rows, props.Cols = desc.Dimensions.Rows, desc.Dimensions.Cols
	}
	if fw, err := drv.GetFirmware(); err == nil {
		props.Firmware = fmt.Sprintf("%d.%d", fw[0], fw[1])
	}
	if serial, err := drv.GetSerial(); err == nil {
		props.Serial = string(trimTrailingZeros(serial))
	}
	if name, args, ok := drv.CurrentEffect(); ok {
		props.CurrentEffect = &chromatypes.EffectState{Name: name, Args: args}
	}
	if len(desc.SupportedLEDs) > 0 {
		props.Brightness = drv.Brightness(desc.SupportedLEDs[0])
	}
	for _, layer := range compositorLayers(d.Manager, id) {
		props.ActiveLayers = append(props.ActiveLayers, chromatypes.ActiveLayer{
			LayerID: layer.LayerID, ZIndex: layer.ZIndex, Renderer: layer.Renderer,
		})
	}
	if desc.HasCapability(descriptor.CapWireless) {
		if pct, stale, ok := drv.BatteryCached(); ok {
			props.Battery, props.Stale = &pct, stale
		}
		if charging, ok := drv.ChargingCached(); ok {
			props.Charging = &charging
		}
	}
	if desc.HasCapability(descriptor.CapSystemControl) {
		if mode, ok := drv.PowerModeCached(); ok {
			s := string(mode)
			props.PowerMode = &s
		}
		if rpm, err := drv.GetFanRPM(); err == nil {
			props.FanRPM = &rpm
		}
		if temps, err := drv.GetTemperatures(req.Ctx); err == nil {
			props.Temperatures = temps
		}
	}
	return encode(res, props)
}

// trimTrailingZeros strips the zero padding GetSerial's fixed-size payload
// carries past the NUL terminator, per spec §4.5's "up to 22 bytes, trimmed
// at first zero".
func trimTrailingZeros(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func compositorLayers(m *manager.Manager, id string) []compositor.LayerSummary {
	_, comp, ok := m.Device(id)
	if !ok {
		return nil
	}
	return comp.ActiveLayers()
}

func (d Deps) setBrightness(req *api.Request, res *api.Response, logger *slog.Logger) error {
	id := req.Params["id"]
	drv, err := d.lookupDevice(id)
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetBrightnessRequest](req.Payload)
	if err != nil {
		return err
	}
	if err := drv.SetBrightness(body.LED, body.Level); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) setSuspend(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetSuspendRequest](req.Payload)
	if err != nil {
		return err
	}
	if err := drv.SetSuspended(body.Suspended); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) reset(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	comp, err := d.lookupCompositor(req.Params["id"])
	if err != nil {
		return err
	}
	if err := comp.StopAll(drv.Reset); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) setLED(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetLEDRequest](req.Payload)
	if err != nil {
		return err
	}
	var r, g, b uint8
	if body.Color != nil {
		r, g, b = body.Color.R, body.Color.G, body.Color.B
	}
	if err := drv.SetLED(body.LED, body.State, r, g, b, body.Color != nil); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) setEffect(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetEffectRequest](req.Payload)
	if err != nil {
		return err
	}
	args := make([]byte, 0, len(body.Colors)*3)
	for _, c := range body.Colors {
		args = append(args, c.R, c.G, c.B)
	}
	if body.Speed != nil {
		args = append(args, *body.Speed)
	}
	if err := drv.SetEffect(body.Effect, args); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) listRenderers(req *api.Request, res *api.Response, logger *slog.Logger) error {
	return encode(res, chromatypes.RendererListResponse{Renderers: builtin.Names()})
}

func (d Deps) addRenderer(req *api.Request, res *api.Response, logger *slog.Logger) error {
	id := req.Params["id"]
	comp, err := d.lookupCompositor(id)
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.AddRendererRequest](req.Payload)
	if err != nil {
		return err
	}

	var source renderer.InputSource
	if intake, ok := d.Manager.Intake(id); ok {
		source = intake
	}
	r, ok := builtin.New(body.Renderer, source)
	if !ok {
		return chromaerr.InvalidArgument("unknown renderer: " + body.Renderer)
	}
	for name, value := range body.Traits {
		if err := r.Traits().Set(name, value); err != nil {
			return chromaerr.InvalidArgument(err.Error())
		}
	}

	layerID, err := comp.AddRenderer(r, body.ZOrder)
	if err != nil {
		return err
	}
	blend, opacity, background := layerCompositionParams(body.BlendMode, body.Opacity, body.Background)
	if blend != nil || opacity != nil || background != nil {
		if err := comp.SetLayerComposition(layerID, blend, opacity, background); err != nil {
			return err
		}
	}
	return encode(res, chromatypes.AddRendererResponse{LayerID: layerID})
}

func (d Deps) setLayerTraits(req *api.Request, res *api.Response, logger *slog.Logger) error {
	comp, err := d.lookupCompositor(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetLayerTraitsRequest](req.Payload)
	if err != nil {
		return err
	}
	if len(body.Traits) > 0 {
		if err := comp.SetLayerTraits(body.LayerID, body.Traits); err != nil {
			return err
		}
	}
	blend, opacity, background := layerCompositionParams(body.BlendMode, body.Opacity, body.Background)
	if blend != nil || opacity != nil || background != nil {
		if err := comp.SetLayerComposition(body.LayerID, blend, opacity, background); err != nil {
			return err
		}
	}
	return encode(res, struct{}{})
}

// layerCompositionParams converts the wire-level blend mode/opacity/
// background fields shared by add_renderer and set_layer_traits into the
// compositor's own types, leaving a field nil when the request omitted it.
func layerCompositionParams(blendMode string, opacity *float64, background *chromatypes.RGB) (*compositor.BlendMode, *float64, *compositor.RGBA) {
	var blend *compositor.BlendMode
	if blendMode != "" {
		b := compositor.BlendMode(blendMode)
		blend = &b
	}
	var bg *compositor.RGBA
	if background != nil {
		bg = &compositor.RGBA{
			R: float64(background.R) / 255,
			G: float64(background.G) / 255,
			B: float64(background.B) / 255,
			A: 1,
		}
	}
	return blend, opacity, bg
}

func (d Deps) removeRenderer(req *api.Request, res *api.Response, logger *slog.Logger) error {
	comp, err := d.lookupCompositor(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.RemoveRendererRequest](req.Payload)
	if err != nil {
		return err
	}
	if err := comp.RemoveRenderer(body.LayerID); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) pauseAnimation(req *api.Request, res *api.Response, logger *slog.Logger) error {
	comp, err := d.lookupCompositor(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.PauseAnimationRequest](req.Payload)
	if err != nil {
		return err
	}
	if body.Paused {
		comp.Pause()
	} else {
		comp.Resume()
	}
	return encode(res, struct{}{})
}

func (d Deps) stopAnimation(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	comp, err := d.lookupCompositor(req.Params["id"])
	if err != nil {
		return err
	}
	if err := comp.StopAll(drv.Reset); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) getCurrentFrame(req *api.Request, res *api.Response, logger *slog.Logger) error {
	id := req.Params["id"]
	if _, err := d.lookupDevice(id); err != nil {
		return err
	}
	frame, ok := d.Manager.Frame(id)
	if !ok {
		return chromaerr.InvalidArgument("unknown device: " + id)
	}
	snapshot := frame.Snapshot()
	pixels := make([][]chromatypes.RGB, len(snapshot))
	for r, row := range snapshot {
		out := make([]chromatypes.RGB, len(row))
		for c, px := range row {
			out[c] = chromatypes.RGB{R: compositor.ToByte(px.R * px.A), G: compositor.ToByte(px.G * px.A), B: compositor.ToByte(px.B * px.A)}
		}
		pixels[r] = out
	}
	return encode(res, chromatypes.FrameResponse{Rows: frame.Rows, Cols: frame.Cols, Pixel: pixels})
}

func (d Deps) setFanAuto(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	if err := drv.SetFanAuto(); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) setFanRPM(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetFanRPMRequest](req.Payload)
	if err != nil {
		return err
	}
	overridden, err := drv.SetFanRPM(req.Ctx, body.RPM)
	if err != nil {
		return err
	}
	resp := chromatypes.SetFanRPMResponse{Overridden: overridden}
	if overridden {
		resp.Reason = "thermal override active"
	}
	return encode(res, resp)
}

func (d Deps) setPowerMode(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SetPowerModeRequest](req.Payload)
	if err != nil {
		return err
	}
	if err := drv.SetPowerMode(device.PowerMode(body.Mode)); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

func (d Deps) getFanRPM(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	rpm, err := drv.GetFanRPM()
	if err != nil {
		return err
	}
	return encode(res, chromatypes.FanRPMResponse{RPM: rpm})
}

func (d Deps) getTemperatures(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	temps, err := drv.GetTemperatures(req.Ctx)
	if err != nil {
		return err
	}
	return encode(res, chromatypes.TemperaturesResponse{Temperatures: temps})
}

// readMemory reads from a headset's onboard RAM or EEPROM (spec §6).
func (d Deps) readMemory(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.ReadMemoryRequest](req.Payload)
	if err != nil {
		return err
	}
	data, err := drv.ReadMemory(body.Offset, body.Length, body.EEPROM)
	if err != nil {
		return err
	}
	return encode(res, chromatypes.ReadMemoryResponse{Data: data})
}

// writeMemory writes to a headset's onboard RAM (spec §6).
func (d Deps) writeMemory(req *api.Request, res *api.Response, logger *slog.Logger) error {
	drv, err := d.lookupDevice(req.Params["id"])
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.WriteMemoryRequest](req.Payload)
	if err != nil {
		return err
	}
	if err := drv.WriteMemory(body.Offset, body.Data); err != nil {
		return err
	}
	return encode(res, struct{}{})
}

// saveProfile snapshots a device's current brightness, suspend state,
// effect, power mode, and renderer layers to config_dir/profiles, per spec
// §6's persisted per-device preference records.
func (d Deps) saveProfile(req *api.Request, res *api.Response, logger *slog.Logger) error {
	if d.ProfileDir == "" {
		return chromaerr.Unsupported("profile persistence is not configured")
	}
	id := req.Params["id"]
	drv, err := d.lookupDevice(id)
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.SaveProfileRequest](req.Payload)
	if err != nil {
		return err
	}
	desc, _ := d.Manager.Descriptor(id)
	serial, err := drv.GetSerial()
	if err != nil {
		return err
	}

	r := profile.Record{
		Serial:     string(trimTrailingZeros(serial)),
		Name:       body.Name,
		Brightness: make(map[string]uint8, len(desc.SupportedLEDs)),
		Suspended:  drv.Suspended(),
	}
	for _, led := range desc.SupportedLEDs {
		r.Brightness[led] = drv.Brightness(led)
	}
	if name, args, ok := drv.CurrentEffect(); ok {
		r.Effect, r.EffectArgs = name, args
	}
	if mode, ok := drv.PowerModeCached(); ok {
		r.PowerMode = string(mode)
	}
	for _, layer := range compositorLayers(d.Manager, id) {
		r.Layers = append(r.Layers, profile.LayerRecord{
			Renderer:  layer.Renderer,
			ZIndex:    layer.ZIndex,
			BlendMode: string(layer.BlendMode),
			Opacity:   layer.Opacity,
			Background: [3]uint8{
				uint8(layer.Background.R * 255),
				uint8(layer.Background.G * 255),
				uint8(layer.Background.B * 255),
			},
		})
	}

	if err := profile.Save(d.ProfileDir, r); err != nil {
		return chromaerr.ProtocolError(err.Error())
	}
	return encode(res, struct{}{})
}

// loadProfile applies a previously saved profile to a device: brightness,
// suspend state, effect, power mode, and renderer layers.
func (d Deps) loadProfile(req *api.Request, res *api.Response, logger *slog.Logger) error {
	if d.ProfileDir == "" {
		return chromaerr.Unsupported("profile persistence is not configured")
	}
	id := req.Params["id"]
	drv, err := d.lookupDevice(id)
	if err != nil {
		return err
	}
	comp, err := d.lookupCompositor(id)
	if err != nil {
		return err
	}
	body, err := decode[chromatypes.LoadProfileRequest](req.Payload)
	if err != nil {
		return err
	}
	serial, err := drv.GetSerial()
	if err != nil {
		return err
	}

	r, err := profile.Load(d.ProfileDir, string(trimTrailingZeros(serial)), body.Name)
	if err != nil {
		return chromaerr.InvalidArgument(err.Error())
	}

	for led, pct := range r.Brightness {
		if err := drv.SetBrightness(led, pct); err != nil {
			return err
		}
	}
	if err := drv.SetSuspended(r.Suspended); err != nil {
		return err
	}
	if r.Effect != "" {
		if err := drv.SetEffect(r.Effect, r.EffectArgs); err != nil {
			return err
		}
	}
	if r.PowerMode != "" {
		if err := drv.SetPowerMode(device.PowerMode(r.PowerMode)); err != nil {
			return err
		}
	}
	for _, layer := range r.Layers {
		var source renderer.InputSource
		if intake, ok := d.Manager.Intake(id); ok {
			source = intake
		}
		rend, ok := builtin.New(layer.Renderer, source)
		if !ok {
			continue
		}
		for name, value := range layer.Traits {
			_ = rend.Traits().Set(name, value)
		}
		layerID, err := comp.AddRenderer(rend, layer.ZIndex)
		if err != nil {
			return err
		}
		blend, opacity, background := layerCompositionParams(layer.BlendMode, nonZeroOpacity(layer.Opacity), &chromatypes.RGB{
			R: layer.Background[0], G: layer.Background[1], B: layer.Background[2],
		})
		if blend != nil || opacity != nil || background != nil {
			if err := comp.SetLayerComposition(layerID, blend, opacity, background); err != nil {
				return err
			}
		}
	}
	return encode(res, struct{}{})
}

// nonZeroOpacity returns a pointer to v when it's a meaningful saved
// opacity, or nil for the YAML zero-value case (an unset field decodes to
// 0, which layerCompositionParams would otherwise apply as "fully
// transparent").
func nonZeroOpacity(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

// watch streams "event <json>\n" lines as device property changes occur,
// replacing the teacher's bidirectional device stream with a push-only
// notification feed, per spec §6.
func (d Deps) watch(conn net.Conn, params map[string]string, logger *slog.Logger) error {
	id := params["id"]
	if _, err := d.lookupDevice(id); err != nil {
		fmt.Fprintf(conn, "event %s\n", errorEventJSON(err))
		return err
	}

	// An authenticated session scopes itself to the one device it streams
	// for, and tears itself down the moment that device disappears rather
	// than lingering as an authenticated socket with nothing left to own.
	secConn, scoped := conn.(*auth.Conn)
	if scoped {
		secConn.BindDevice(id)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	wasOffline := false
	for range ticker.C {
		drv, _, ok := d.Manager.Device(id)
		if !ok {
			if scoped {
				return secConn.Invalidate()
			}
			return nil
		}
		offline := drv.Offline()
		ev := chromatypes.Event{DeviceID: id, Kind: "heartbeat", Data: map[string]any{"online": !offline}}
		data, _ := json.Marshal(ev)
		if _, err := fmt.Fprintf(conn, "event %s\n", data); err != nil {
			return err
		}
		if offline && wasOffline && scoped {
			return secConn.Invalidate()
		}
		wasOffline = offline
	}
	return nil
}

func errorEventJSON(err error) string {
	data, _ := json.Marshal(chromatypes.Event{Kind: "error", Data: map[string]any{"message": err.Error()}})
	return string(data)
}
