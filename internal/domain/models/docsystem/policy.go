package docsystem

// SnapshotThresholds bounds how large an autosave may be before it becomes a snapshot.
// A change must exceed a threshold (strictly greater) to trigger a snapshot.
type SnapshotThresholds struct {
	Words int `yaml:"words" json:"words"`
	Chars int `yaml:"chars" json:"chars"`
}
