package docsystem

import (
	"testing"

	models "scriptorium/internal/domain/models/docsystem"
)

type fixedThresholds models.SnapshotThresholds

func (f fixedThresholds) Thresholds(models.DocumentKind) models.SnapshotThresholds {
	return models.SnapshotThresholds(f)
}

func TestShouldSnapshot(t *testing.T) {
	thresholds := models.SnapshotThresholds{Words: 10, Chars: 100}

	tests := []struct {
		name    string
		changes models.ChangeSummary
		hint    models.SaveType
		want    bool
	}{
		{name: "manual with no change", changes: models.ChangeSummary{}, hint: models.SaveTypeManual, want: true},
		{name: "auto with no change", changes: models.ChangeSummary{}, hint: models.SaveTypeAuto, want: false},
		{name: "auto adds 11 words", changes: models.ChangeSummary{AddedWords: 11, AddedChars: 60}, hint: models.SaveTypeAuto, want: true},
		{name: "auto adds 5 words", changes: models.ChangeSummary{AddedWords: 5, AddedChars: 30}, hint: models.SaveTypeAuto, want: false},
		{name: "auto adds exactly threshold words", changes: models.ChangeSummary{AddedWords: 10, AddedChars: 50}, hint: models.SaveTypeAuto, want: false},
		{name: "auto deletes 11 words", changes: models.ChangeSummary{DeletedWords: 11, DeletedChars: 60}, hint: models.SaveTypeAuto, want: true},
		{name: "auto adds 101 chars in few words", changes: models.ChangeSummary{AddedWords: 2, AddedChars: 101}, hint: models.SaveTypeAuto, want: true},
		{name: "auto deletes 500 chars in few words", changes: models.ChangeSummary{DeletedWords: 3, DeletedChars: 500}, hint: models.SaveTypeAuto, want: false},
		{name: "unknown hint behaves as auto", changes: models.ChangeSummary{AddedWords: 1}, hint: "", want: false},
	}

	policy := NewVersioningPolicy(fixedThresholds(thresholds))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.ShouldSnapshot(tt.changes, tt.hint, thresholds); got != tt.want {
				t.Errorf("ShouldSnapshot(%+v, %q) = %v, want %v", tt.changes, tt.hint, got, tt.want)
			}
		})
	}
}

func TestThresholdsFor(t *testing.T) {
	want := models.SnapshotThresholds{Words: 3, Chars: 33}
	policy := NewVersioningPolicy(fixedThresholds(want))
	if got := policy.ThresholdsFor(models.DocumentKindDraft); got != want {
		t.Errorf("ThresholdsFor = %+v, want %+v", got, want)
	}
}
