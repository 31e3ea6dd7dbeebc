package policy

import models "scriptorium/internal/domain/models/docsystem"

// File is the YAML layout of a thresholds file
type File struct {
	Default models.SnapshotThresholds                         `yaml:"default"`
	Kinds   map[models.DocumentKind]models.SnapshotThresholds `yaml:"kinds"`
}
