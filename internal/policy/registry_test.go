package policy

import (
	"os"
	"path/filepath"
	"testing"

	models "scriptorium/internal/domain/models/docsystem"
)

func TestNewRegistry_EmbeddedDefaults(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		kind models.DocumentKind
		want models.SnapshotThresholds
	}{
		{kind: models.DocumentKindDraft, want: models.SnapshotThresholds{Words: 10, Chars: 100}},
		{kind: models.DocumentKindSubmission, want: models.SnapshotThresholds{Words: 50, Chars: 200}},
		{kind: "lab-report", want: models.SnapshotThresholds{Words: 10, Chars: 100}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := r.Thresholds(tt.kind); got != tt.want {
				t.Errorf("Thresholds(%s) = %+v, want %+v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNewRegistryFromYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: "default: {words: 5, chars: 50}\nkinds:\n  essay: {words: 20, chars: 150}\n",
		},
		{
			name:    "zero default",
			yaml:    "default: {words: 0, chars: 50}\n",
			wantErr: true,
		},
		{
			name:    "negative kind threshold",
			yaml:    "default: {words: 5, chars: 50}\nkinds:\n  essay: {words: 20, chars: -1}\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			yaml:    "default: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistryFromYAML([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRegistryFromYAML() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_SetAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte("default: {words: 7, chars: 70}\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r, err := NewRegistryFromFile(path)
	if err != nil {
		t.Fatalf("NewRegistryFromFile() error = %v", err)
	}
	if got := r.Thresholds(models.DocumentKindDraft); got.Words != 7 {
		t.Errorf("draft falls back to default, got %+v", got)
	}

	if err := r.Set(models.DocumentKindDraft, models.SnapshotThresholds{Words: 3, Chars: 30}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := r.Thresholds(models.DocumentKindDraft); got.Words != 3 || got.Chars != 30 {
		t.Errorf("Thresholds after Set = %+v", got)
	}
	if err := r.Set(models.DocumentKindDraft, models.SnapshotThresholds{}); err == nil {
		t.Error("Set() with zero thresholds should fail")
	}
	if len(r.Kinds()) != 1 {
		t.Errorf("Kinds() = %v, want one entry", r.Kinds())
	}
}
