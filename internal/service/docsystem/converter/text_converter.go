package converter

import (
	"context"
	"strings"
	"unicode/utf8"

	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

const byteOrderMark = "\ufeff"

// textConverter accepts plain text and markdown as-is apart from
// line ending and byte order mark cleanup
type textConverter struct {
	name string
	exts []string
}

// NewTextConverter handles .txt files
func NewTextConverter() docsysSvc.ContentConverter {
	return &textConverter{name: "plaintext", exts: []string{".txt", ".text"}}
}

// NewMarkdownConverter handles .md files
func NewMarkdownConverter() docsysSvc.ContentConverter {
	return &textConverter{name: "markdown", exts: []string{".md", ".markdown"}}
}

func (c *textConverter) Convert(ctx context.Context, input []byte) (string, error) {
	if !utf8.Valid(input) {
		return "", errInvalidUTF8
	}
	return normalizeText(string(input)), nil
}

func (c *textConverter) SupportedExtensions() []string { return c.exts }

func (c *textConverter) Name() string { return c.name }

func normalizeText(s string) string {
	s = strings.TrimPrefix(s, byteOrderMark)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
