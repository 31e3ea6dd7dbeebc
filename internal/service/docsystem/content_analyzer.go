package docsystem

import (
	"strings"
	"unicode"
	"unicode/utf8"

	models "scriptorium/internal/domain/models/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

type contentAnalyzerService struct{}

// NewContentAnalyzer creates the change classifier
func NewContentAnalyzer() docsysSvc.ChangeClassifier {
	return &contentAnalyzerService{}
}

// CountWords counts runs of non-whitespace characters
func (s *contentAnalyzerService) CountWords(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// Classify compares word and character counts of two texts.
// This is a length heuristic, O(n) per save: a save that replaces words
// without changing the count reports no change.
func (s *contentAnalyzerService) Classify(oldText, newText string) models.ChangeSummary {
	wordDelta := s.CountWords(newText) - s.CountWords(oldText)
	charDelta := utf8.RuneCountInString(newText) - utf8.RuneCountInString(oldText)

	return models.ChangeSummary{
		AddedWords:   max(0, wordDelta),
		DeletedWords: max(0, -wordDelta),
		AddedChars:   max(0, charDelta),
		DeletedChars: max(0, -charDelta),
	}
}
