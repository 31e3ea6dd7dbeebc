package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"

	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/service/docsystem/converter/sanitizer"
)

var errInvalidUTF8 = errors.New("file is not valid UTF-8 text")

// htmlConverter sanitizes HTML and then renders it as markdown, so word
// counts see prose rather than markup
type htmlConverter struct {
	sanitizer *sanitizer.HTMLSanitizer
	converter *md.Converter
}

// NewHTMLConverter handles .html files
func NewHTMLConverter() docsysSvc.ContentConverter {
	return &htmlConverter{
		sanitizer: sanitizer.NewHTMLSanitizer(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(ctx context.Context, input []byte) (string, error) {
	if !utf8.Valid(input) {
		return "", errInvalidUTF8
	}

	clean := c.sanitizer.Sanitize(normalizeText(string(input)))

	markdown, err := c.converter.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

func (c *htmlConverter) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

func (c *htmlConverter) Name() string {
	return "html"
}
