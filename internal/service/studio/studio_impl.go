package studio

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/andeptrai/ocr-studio/config"
	"github.com/andeptrai/ocr-studio/internal/convert"
	"github.com/andeptrai/ocr-studio/internal/engine"
	"github.com/andeptrai/ocr-studio/internal/models"
	"github.com/andeptrai/ocr-studio/internal/session"
	"github.com/andeptrai/ocr-studio/pkg/logger"
	"github.com/andeptrai/ocr-studio/pkg/metrics"
)

type Service struct {
	loader  *engine.Loader
	invoker *convert.Invoker
	store   *session.Store
	logger  logger.Logger
	config  *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize  int64
	AllowedTypes []string
}

func NewService(
	loader *engine.Loader,
	invoker *convert.Invoker,
	store *session.Store,
	log logger.Logger,
	cfg *ServiceConfig,
) StudioService {
	if cfg == nil {
		cfg = &ServiceConfig{
			MaxFileSize:  50 * 1024 * 1024, // 50MB
			AllowedTypes: []string{".pdf"},
		}
	}

	return &Service{
		loader:  loader,
		invoker: invoker,
		store:   store,
		logger:  log,
		config:  cfg,
	}
}

// GetService wires the studio service from process configuration.
func GetService(log logger.Logger) (StudioService, *engine.Loader, error) {
	cfg := config.Get()

	loader := engine.NewPipelineLoader(log, engine.Options{
		Languages:     cfg.Engine.Languages,
		RenderDPI:     cfg.Engine.RenderDPI,
		TextThreshold: cfg.Engine.TextThreshold,
		PageSeparator: cfg.Engine.PageSeparator,
	})
	invoker := convert.NewInvoker(log, loader, cfg.Engine.ConvertTimeout)
	store := session.NewStore(log)

	svc := NewService(loader, invoker, store, log, &ServiceConfig{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		AllowedTypes: []string{".pdf"},
	})
	return svc, loader, nil
}

// Upload receives a document and makes it the session's current one.
// Any prior result is cleared before the new document is visible.
// Content is not rejected here on sniffing alone: a broken file with a
// .pdf name surfaces as a conversion failure, matching the engine being
// the authority on what it can read.
func (s *Service) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.Document, error) {
	if err := s.validateUpload(header); err != nil {
		s.logger.Error("Upload validation failed",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.config.MaxFileSize {
		return nil, fmt.Errorf("file size exceeds maximum limit of %d bytes", s.config.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("uploaded file is empty")
	}

	mime := mimetype.Detect(data)
	if !mime.Is("application/pdf") {
		s.logger.Warn("Upload content does not sniff as PDF",
			logger.String("filename", header.Filename),
			logger.String("detected", mime.String()),
		)
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		Name:       header.Filename,
		Data:       data,
		Size:       int64(len(data)),
		MimeType:   mime.String(),
		UploadedAt: time.Now(),
	}
	s.store.SetDocument(doc)
	metrics.IncUpload()

	return doc, nil
}

// Convert runs one synchronous conversion of the current document.
func (s *Service) Convert(ctx context.Context) (*models.ConversionResult, error) {
	doc, err := s.store.BeginConversion()
	if err != nil {
		return nil, err
	}

	result, err := s.invoker.Invoke(ctx, doc)
	if err != nil {
		s.store.FailConversion()
		return nil, err
	}

	if err := s.store.CompleteConversion(result); err != nil {
		// The document changed while converting; the result is stale.
		return nil, &convert.ConversionError{Message: "document was replaced during conversion", Err: err}
	}
	return result, nil
}

func (s *Service) Document() *models.Document {
	return s.store.Document()
}

func (s *Service) Result() (*models.ConversionResult, bool) {
	return s.store.Result()
}

func (s *Service) Phase() models.SessionPhase {
	return s.store.Phase()
}

// Export renders the current result for download. The .md and .txt
// forms carry identical bytes.
func (s *Service) Export(format string) (*ExportFile, error) {
	result, ok := s.store.Result()
	if !ok {
		return nil, session.ErrNoDocument
	}
	doc := s.store.Document()
	if doc == nil {
		return nil, session.ErrNoDocument
	}

	var contentType string
	switch strings.ToLower(format) {
	case "md":
		contentType = "text/markdown"
	case "txt":
		contentType = "text/plain"
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("%s_ocr.%s", doc.BaseName(), strings.ToLower(format)),
		ContentType: contentType,
		Data:        []byte(result.Text),
	}, nil
}

// Stats derives the displayed numbers from the stored result.
func (s *Service) Stats() (*Stats, error) {
	result, ok := s.store.Result()
	if !ok {
		return nil, session.ErrNoDocument
	}
	return &Stats{
		ElapsedSeconds: result.ElapsedSeconds(),
		CharCount:      result.CharCount(),
		WordCount:      result.WordCount(),
		Pages:          result.Pages,
		OCRPages:       result.OCRPages,
	}, nil
}

func (s *Service) EngineReady() bool {
	return s.loader.Ready()
}

func (s *Service) validateUpload(header *multipart.FileHeader) error {
	if header.Size > s.config.MaxFileSize {
		return fmt.Errorf("file size exceeds maximum limit of %d bytes", s.config.MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	for _, t := range s.config.AllowedTypes {
		if t == ext {
			return nil
		}
	}
	return fmt.Errorf("file type %s is not allowed", ext)
}
