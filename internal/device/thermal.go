package device

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chromad/chromad/internal/chromaerr"
)

// ThermalSource reads a laptop's sensor temperatures, keyed by sensor label.
// Injected so tests can substitute a fake without touching /sys.
type ThermalSource interface {
	ReadTemperatures(ctx context.Context) (map[string]float64, error)
}

// hwmonSource reads Linux's /sys/class/hwmon tree, the default Linux
// collaborator per spec's thermal/safety overlay.
type hwmonSource struct {
	root string
}

// NewHwmonSource builds the default Linux ThermalSource rooted at
// /sys/class/hwmon.
func NewHwmonSource() ThermalSource {
	return &hwmonSource{root: "/sys/class/hwmon"}
}

func (h *hwmonSource) ReadTemperatures(ctx context.Context) (map[string]float64, error) {
	entries, err := os.ReadDir(h.root)
	if err != nil {
		return nil, chromaerr.ProtocolError("hwmon: " + err.Error())
	}

	out := make(map[string]float64)
	for _, entry := range entries {
		dir := filepath.Join(h.root, entry.Name())
		name := readHwmonFile(dir, "name")
		if name == "" {
			name = entry.Name()
		}
		for i := 1; ; i++ {
			raw := readHwmonFile(dir, fmt.Sprintf("temp%d_input", i))
			if raw == "" {
				break
			}
			milli, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			label := readHwmonFile(dir, fmt.Sprintf("temp%d_label", i))
			if label == "" {
				label = fmt.Sprintf("%s_temp%d", name, i)
			}
			out[label] = float64(milli) / 1000
		}
	}
	return out, nil
}

func readHwmonFile(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(bytes.TrimRight(data, "\n")))
}

// SetThermalSource overrides the device's ThermalSource, primarily for tests.
func (d *Device) SetThermalSource(source ThermalSource) {
	d.thermal = source
}

// GetTemperatures reads every sensor reading available for a laptop device.
func (d *Device) GetTemperatures(ctx context.Context) (map[string]float64, error) {
	if err := d.requireSystemControl(); err != nil {
		return nil, err
	}
	if d.thermal == nil {
		d.thermal = NewHwmonSource()
	}
	return d.thermal.ReadTemperatures(ctx)
}
