package policy

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	models "scriptorium/internal/domain/models/docsystem"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds snapshot thresholds per document kind
type Registry struct {
	fallback models.SnapshotThresholds
	kinds    map[models.DocumentKind]models.SnapshotThresholds
	mu       sync.RWMutex
}

// NewRegistry creates a registry from the embedded thresholds file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/thresholds.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded thresholds: %w", err)
	}
	return NewRegistryFromYAML(data)
}

// NewRegistryFromFile creates a registry from a thresholds file on disk
func NewRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewRegistryFromYAML(data)
}

// NewRegistryFromYAML parses a thresholds document
func NewRegistryFromYAML(data []byte) (*Registry, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thresholds: %w", err)
	}

	if err := validate("default", file.Default); err != nil {
		return nil, err
	}
	for kind, t := range file.Kinds {
		if err := validate(string(kind), t); err != nil {
			return nil, err
		}
	}

	r := &Registry{
		fallback: file.Default,
		kinds:    make(map[models.DocumentKind]models.SnapshotThresholds, len(file.Kinds)),
	}
	for kind, t := range file.Kinds {
		r.kinds[kind] = t
	}
	return r, nil
}

// Thresholds returns the thresholds for kind, or the default entry for unknown kinds
func (r *Registry) Thresholds(kind models.DocumentKind) models.SnapshotThresholds {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.kinds[kind]; ok {
		return t
	}
	return r.fallback
}

// Set overrides the thresholds for one kind
func (r *Registry) Set(kind models.DocumentKind, t models.SnapshotThresholds) error {
	if err := validate(string(kind), t); err != nil {
		return err
	}

	r.mu.Lock()
	r.kinds[kind] = t
	r.mu.Unlock()
	return nil
}

// Kinds returns every explicitly configured kind
func (r *Registry) Kinds() []models.DocumentKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]models.DocumentKind, 0, len(r.kinds))
	for kind := range r.kinds {
		kinds = append(kinds, kind)
	}
	return kinds
}

func validate(name string, t models.SnapshotThresholds) error {
	if t.Words <= 0 || t.Chars <= 0 {
		return fmt.Errorf("thresholds for %q must be positive (words=%d, chars=%d)", name, t.Words, t.Chars)
	}
	return nil
}
