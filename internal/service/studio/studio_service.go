package studio

import (
	"context"
	"mime/multipart"

	"github.com/andeptrai/ocr-studio/internal/models"
)

// ExportFile is a downloadable rendition of the current result.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Stats 转换统计
type Stats struct {
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	CharCount      int     `json:"charCount"`
	WordCount      int     `json:"wordCount"`
	Pages          int     `json:"pages"`
	OCRPages       int     `json:"ocrPages"`
}

type StudioService interface {
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.Document, error)
	Convert(ctx context.Context) (*models.ConversionResult, error)
	Document() *models.Document
	Result() (*models.ConversionResult, bool)
	Phase() models.SessionPhase
	Export(format string) (*ExportFile, error)
	Stats() (*Stats, error)
	EngineReady() bool
}
