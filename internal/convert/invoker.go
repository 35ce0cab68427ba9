package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/andeptrai/ocr-studio/internal/engine"
	"github.com/andeptrai/ocr-studio/internal/models"
	"github.com/andeptrai/ocr-studio/pkg/logger"
	"github.com/andeptrai/ocr-studio/pkg/metrics"
	"github.com/andeptrai/ocr-studio/pkg/tempfile"
)

// ConversionError is the single error shape that crosses the invoker
// boundary for per-document failures. The engine handle stays valid; no
// internal detail beyond Message reaches the result store.
type ConversionError struct {
	Message string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// UserMessage is what the presentation layer shows.
func (e *ConversionError) UserMessage() string {
	return e.Message
}

// Invoker runs one synchronous conversion at a time against the shared
// engine handle. The mutex is the explicit serialization point: the
// underlying recognizer is not safe for concurrent invocation.
type Invoker struct {
	log     logger.Logger
	loader  *engine.Loader
	timeout time.Duration

	mu sync.Mutex
}

// NewInvoker creates an invoker. A timeout of zero disables the
// per-conversion deadline.
func NewInvoker(log logger.Logger, loader *engine.Loader, timeout time.Duration) *Invoker {
	return &Invoker{
		log:     log,
		loader:  loader,
		timeout: timeout,
	}
}

// Invoke converts the document: scoped temp file, engine call timed
// around the call only, structured output flattened to plain text.
// Engine init failures pass through as *engine.InitError; everything
// else comes back as *ConversionError.
func (iv *Invoker) Invoke(ctx context.Context, doc *models.Document) (*models.ConversionResult, error) {
	eng, err := iv.loader.Load()
	if err != nil {
		return nil, err
	}

	iv.mu.Lock()
	defer iv.mu.Unlock()

	suffix := filepath.Ext(doc.Name)
	if suffix == "" {
		suffix = ".pdf"
	}

	var result *models.ConversionResult
	err = tempfile.WithTempFile(iv.log, doc.Data, suffix, func(path string) error {
		cctx := ctx
		if iv.timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, iv.timeout)
			defer cancel()
		}

		start := time.Now()
		rendered, err := eng.Convert(cctx, path)
		elapsed := time.Since(start)
		if err != nil {
			metrics.ObserveConversion("failure", elapsed, 0)
			return err
		}

		result = &models.ConversionResult{
			DocumentID: doc.ID,
			Text:       engine.ExtractText(rendered),
			Elapsed:    elapsed,
			Pages:      len(rendered.Pages),
			OCRPages:   rendered.OCRPageCount(),
			ProducedAt: time.Now(),
		}
		metrics.ObserveConversion("success", elapsed, result.OCRPages)
		return nil
	})
	if err != nil {
		iv.log.Error("Conversion failed",
			logger.String("documentId", doc.ID),
			logger.String("filename", doc.Name),
			logger.Error(err),
		)
		return nil, &ConversionError{Message: "failed to convert document", Err: err}
	}

	iv.log.Info("Conversion completed",
		logger.String("documentId", doc.ID),
		logger.Duration("elapsed", result.Elapsed),
		logger.Int("pages", result.Pages),
		logger.Int("ocrPages", result.OCRPages),
	)
	return result, nil
}
