package engine

import (
	"context"
	"fmt"
	"strings"
)

// Engine converts a document at a filesystem path into a structured
// Rendered. Implementations are safe for sequential reuse across
// requests but not for concurrent invocation; the conversion invoker
// owns the serialization point.
type Engine interface {
	Convert(ctx context.Context, path string) (*Rendered, error)
	Close() error
}

// Options are the engine construction parameters. They are resolved
// from configuration once at load time and never vary per request.
type Options struct {
	Languages     []string
	RenderDPI     int
	TextThreshold int
	PageSeparator string
}

func (o *Options) withDefaults() Options {
	opts := *o
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	if opts.RenderDPI <= 0 {
		opts.RenderDPI = 300
	}
	if opts.TextThreshold <= 0 {
		opts.TextThreshold = 16
	}
	if opts.PageSeparator == "" {
		opts.PageSeparator = "\n\n"
	}
	return opts
}

// Page 单页转换输出
type Page struct {
	Index int
	Text  string
	OCR   bool
}

// Rendered is the engine's structured output for one document.
type Rendered struct {
	Pages     []Page
	Separator string
}

// OCRPageCount returns how many pages went through the OCR fallback.
func (r *Rendered) OCRPageCount() int {
	n := 0
	for _, p := range r.Pages {
		if p.OCR {
			n++
		}
	}
	return n
}

// ExtractText flattens a structured result into plain text, joining
// pages with the rendered separator.
func ExtractText(r *Rendered) string {
	sep := r.Separator
	if sep == "" {
		sep = "\n\n"
	}
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		parts = append(parts, strings.TrimRight(p.Text, " \t\r\n"))
	}
	return strings.TrimSpace(strings.Join(parts, sep))
}

// InitError marks a failed engine construction. The loader caches it so
// an expensive failed load is never retried automatically.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine initialization failed: %v", e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
