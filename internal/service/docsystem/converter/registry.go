package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

// ErrUnsupportedType is returned when no converter handles a file extension
var ErrUnsupportedType = errors.New("unsupported file type")

// Registry routes uploaded files to a converter by extension.
// Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]docsysSvc.ContentConverter
}

// NewRegistry returns a registry with the plain text, markdown and HTML converters
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[string]docsysSvc.ContentConverter)}
	r.Register(NewTextConverter())
	r.Register(NewMarkdownConverter())
	r.Register(NewHTMLConverter())
	return r
}

// Register associates a converter with each of its extensions, replacing earlier ones
func (r *Registry) Register(c docsysSvc.ContentConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range c.SupportedExtensions() {
		r.converters[normalizeExt(ext)] = c
	}
}

// Lookup returns the converter for filename, or nil
func (r *Registry) Lookup(filename string) docsysSvc.ContentConverter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.converters[normalizeExt(filepath.Ext(filename))]
}

// Convert picks a converter from filename's extension and runs it
func (r *Registry) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	c := r.Lookup(filename)
	if c == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(filename))
	}

	text, err := c.Convert(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%s converter: %w", c.Name(), err)
	}
	return text, nil
}

// SupportedExtensions returns registered extensions, sorted
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
