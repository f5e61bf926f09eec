package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is the in-memory, immutable-after-load catalog of device
// descriptors (C4). It is loaded once at startup and queried on every
// hotplug event; it never mutates runtime state.
type Store struct {
	mu          sync.RWMutex
	byKey       map[Key]*Descriptor
}

// NewStore returns an empty Store. Call Load or Add before first use.
func NewStore() *Store {
	return &Store{byKey: make(map[Key]*Descriptor)}
}

// Load reads every *.yaml/*.yml file in dir, decodes each as a Descriptor,
// and adds it to the store. Files that fail to parse are skipped with the
// error collected and returned after the full directory has been scanned,
// so one malformed fixture doesn't block the rest.
func (s *Store) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read descriptor dir: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		var d Descriptor
		if err := yaml.Unmarshal(data, &d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		s.Add(&d)
	}
	if len(errs) > 0 {
		return fmt.Errorf("descriptor store: %d file(s) failed to load: %v", len(errs), errs)
	}
	return nil
}

// Add registers a descriptor, finalizing its lookup sets. Intended for
// startup loading and for tests that want fixtures without files on disk.
func (s *Store) Add(d *Descriptor) {
	d.finalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[Key{VendorID: d.VendorID, ProductID: d.ProductID}] = d
}

// Lookup resolves a connected device's (vendor, product) id against the
// store. A miss means the device manager must fail gracefully without
// creating a driver (spec §4.3).
func (s *Store) Lookup(vendorID, productID uint16) (*Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byKey[Key{VendorID: vendorID, ProductID: productID}]
	return d, ok
}

// All returns every loaded descriptor, for listing/diagnostic purposes.
func (s *Store) All() []*Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Descriptor, 0, len(s.byKey))
	for _, d := range s.byKey {
		out = append(out, d)
	}
	return out
}
