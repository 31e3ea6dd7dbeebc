package docsystem

import (
	"testing"
	"unicode/utf8"

	models "scriptorium/internal/domain/models/docsystem"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "only whitespace", text: " \t\n  ", want: 0},
		{name: "single word", text: "hello", want: 1},
		{name: "runs of whitespace", text: "  the   quick\tbrown\n\nfox ", want: 4},
		{name: "unicode spaces", text: "a b c", want: 3},
		{name: "punctuation stays attached", text: "well, then - ok.", want: 4},
	}

	analyzer := NewContentAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzer.CountWords(tt.text); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		oldText string
		newText string
		want    models.ChangeSummary
	}{
		{
			name:    "both empty",
			oldText: "",
			newText: "",
			want:    models.ChangeSummary{},
		},
		{
			name:    "first words into empty document",
			oldText: "",
			newText: "The quick brown fox",
			want:    models.ChangeSummary{AddedWords: 4, AddedChars: 19},
		},
		{
			name:    "append six words",
			oldText: "The quick brown fox",
			newText: "The quick brown fox jumps over the lazy dog today",
			want:    models.ChangeSummary{AddedWords: 6, AddedChars: 30},
		},
		{
			name:    "delete everything",
			oldText: "one two three",
			newText: "",
			want:    models.ChangeSummary{DeletedWords: 3, DeletedChars: 13},
		},
		{
			name:    "replacement with equal word count undercounts",
			oldText: "red car",
			newText: "blue bus",
			want:    models.ChangeSummary{AddedChars: 1},
		},
		{
			name:    "multibyte characters count as one",
			oldText: "cafe",
			newText: "café",
			want:    models.ChangeSummary{},
		},
	}

	analyzer := NewContentAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzer.Classify(tt.oldText, tt.newText); got != tt.want {
				t.Errorf("Classify(%q, %q) = %+v, want %+v", tt.oldText, tt.newText, got, tt.want)
			}
		})
	}
}

func TestClassify_IdenticalTextIsZero(t *testing.T) {
	analyzer := NewContentAnalyzer()
	for _, text := range []string{"", "x", "The quick brown fox", "  spaced   out  ", "日本語 テキスト"} {
		if got := analyzer.Classify(text, text); !got.IsZero() {
			t.Errorf("Classify(%q, same) = %+v, want zero", text, got)
		}
	}
}

func TestClassify_DeltaInvariants(t *testing.T) {
	texts := []string{"", "a", "ab", "a b", "hello world", "hello  world  again", "ünïcödé", "x y z w"}
	analyzer := NewContentAnalyzer()

	for _, a := range texts {
		for _, b := range texts {
			got := analyzer.Classify(a, b)
			if got.AddedChars < 0 || got.DeletedChars < 0 || got.AddedWords < 0 || got.DeletedWords < 0 {
				t.Fatalf("Classify(%q, %q) has negative delta: %+v", a, b, got)
			}

			sameLen := utf8.RuneCountInString(a) == utf8.RuneCountInString(b)
			holds := 0
			for _, cond := range []bool{got.AddedChars > 0, got.DeletedChars > 0, sameLen} {
				if cond {
					holds++
				}
			}
			if holds != 1 {
				t.Errorf("Classify(%q, %q) = %+v: expected exactly one of added>0, deleted>0, equal length", a, b, got)
			}
		}
	}
}
