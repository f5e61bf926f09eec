// Package profile persists per-device preference records across restarts:
// brightness levels, the active built-in effect, and renderer layer
// configuration, keyed by the device's hardware serial number. Records are
// YAML files under config_dir/profiles, mirroring the teacher's config
// stack's codec and the naming convention of named profile snapshots versus
// a single active profile per device.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LayerRecord captures one renderer layer's persisted configuration.
type LayerRecord struct {
	Renderer   string         `yaml:"renderer"`
	ZIndex     int            `yaml:"zIndex"`
	FPS        int            `yaml:"fps,omitempty"`
	Traits     map[string]any `yaml:"traits,omitempty"`
	BlendMode  string         `yaml:"blendMode,omitempty"`
	Opacity    float64        `yaml:"opacity,omitempty"`
	Background [3]uint8       `yaml:"background,omitempty"`
}

// Record is one device's persisted preference snapshot.
type Record struct {
	Serial     string            `yaml:"serial"`
	Name       string            `yaml:"name"`
	Brightness map[string]uint8  `yaml:"brightness,omitempty"`
	Suspended  bool              `yaml:"suspended"`
	Effect     string            `yaml:"effect,omitempty"`
	EffectArgs []byte            `yaml:"effectArgs,omitempty"`
	PowerMode  string            `yaml:"powerMode,omitempty"`
	Layers     []LayerRecord     `yaml:"layers,omitempty"`
}

// activeName is the reserved profile name for a device's currently-applied
// configuration, stored at "<serial>.yaml" rather than "<serial>-active.yaml".
const activeName = ""

// path builds the on-disk path for serial's profile named name. An empty
// name addresses the active profile.
func path(dir, serial, name string) string {
	if name == activeName {
		return filepath.Join(dir, serial+".yaml")
	}
	return filepath.Join(dir, serial+"-"+name+".yaml")
}

// Save writes r to config_dir/profiles, creating the directory if needed.
func Save(dir string, r Record) error {
	if r.Serial == "" {
		return fmt.Errorf("profile: serial is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("profile: create dir: %w", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("profile: encode: %w", err)
	}
	if err := os.WriteFile(path(dir, r.Serial, r.Name), data, 0o644); err != nil {
		return fmt.Errorf("profile: write: %w", err)
	}
	return nil
}

// Load reads the profile named name for serial. An empty name loads the
// active profile.
func Load(dir, serial, name string) (Record, error) {
	data, err := os.ReadFile(path(dir, serial, name))
	if err != nil {
		return Record{}, fmt.Errorf("profile: read: %w", err)
	}
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("profile: decode: %w", err)
	}
	return r, nil
}

// List returns the names of every named (non-active) snapshot saved for
// serial, sorted by filename.
func List(dir, serial string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile: list: %w", err)
	}
	prefix := serial + "-"
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := entry.Name()
		ext := filepath.Ext(base)
		if ext != ".yaml" {
			continue
		}
		stem := base[:len(base)-len(ext)]
		if len(stem) > len(prefix) && stem[:len(prefix)] == prefix {
			names = append(names, stem[len(prefix):])
		}
	}
	return names, nil
}
