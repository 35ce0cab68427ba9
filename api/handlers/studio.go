package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andeptrai/ocr-studio/internal/convert"
	"github.com/andeptrai/ocr-studio/internal/engine"
	"github.com/andeptrai/ocr-studio/internal/service/studio"
	"github.com/andeptrai/ocr-studio/internal/session"
	"github.com/andeptrai/ocr-studio/pkg/logger"
)

type StudioHandler struct {
	service studio.StudioService
	logger  logger.Logger
}

// UploadResponse 上传响应结构
type UploadResponse struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	FileSize   int64  `json:"fileSize"`
	MimeType   string `json:"mimeType"`
	Phase      string `json:"phase"`
	UploadedAt string `json:"uploadedAt"`
}

// ConvertResponse 转换响应结构
type ConvertResponse struct {
	DocumentID     string  `json:"documentId"`
	Text           string  `json:"text"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Pages          int     `json:"pages"`
	OCRPages       int     `json:"ocrPages"`
	CharCount      int     `json:"charCount"`
	WordCount      int     `json:"wordCount"`
	Phase          string  `json:"phase"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func NewStudioHandler(service studio.StudioService, logger logger.Logger) *StudioHandler {
	return &StudioHandler{
		service: service,
		logger:  logger,
	}
}

// Index serves the single page.
func (h *StudioHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"EngineReady": h.service.EngineReady(),
		"Phase":       string(h.service.Phase()),
	})
}

// UploadDocument receives one PDF and makes it the session document.
func (h *StudioHandler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(c.Request.Context(), file, header)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Failed to accept file", err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Name,
		FileSize:   doc.Size,
		MimeType:   doc.MimeType,
		Phase:      string(h.service.Phase()),
		UploadedAt: doc.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// ConvertDocument runs the conversion synchronously and returns the
// text. The explicit user action of the page maps here.
func (h *StudioHandler) ConvertDocument(c *gin.Context) {
	result, err := h.service.Convert(c.Request.Context())
	if err != nil {
		var initErr *engine.InitError
		var convErr *convert.ConversionError
		switch {
		case errors.Is(err, session.ErrNoDocument):
			h.handleError(c, http.StatusBadRequest, "No document uploaded", err)
		case errors.Is(err, session.ErrBusy):
			h.handleError(c, http.StatusConflict, "A conversion is already running", err)
		case errors.As(err, &initErr):
			h.handleError(c, http.StatusServiceUnavailable, "Conversion engine is not available", err)
		case errors.As(err, &convErr):
			h.handleUserError(c, http.StatusUnprocessableEntity, convErr.UserMessage(), err)
		default:
			h.handleError(c, http.StatusInternalServerError, "Failed to convert document", err)
		}
		return
	}

	c.JSON(http.StatusOK, ConvertResponse{
		DocumentID:     result.DocumentID,
		Text:           result.Text,
		ElapsedSeconds: result.ElapsedSeconds(),
		Pages:          result.Pages,
		OCRPages:       result.OCRPages,
		CharCount:      result.CharCount(),
		WordCount:      result.WordCount(),
		Phase:          string(h.service.Phase()),
	})
}

// GetResult returns the stored result, so re-rendering the page does
// not re-run the conversion.
func (h *StudioHandler) GetResult(c *gin.Context) {
	result, ok := h.service.Result()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No conversion result available"})
		return
	}

	c.JSON(http.StatusOK, ConvertResponse{
		DocumentID:     result.DocumentID,
		Text:           result.Text,
		ElapsedSeconds: result.ElapsedSeconds(),
		Pages:          result.Pages,
		OCRPages:       result.OCRPages,
		CharCount:      result.CharCount(),
		WordCount:      result.WordCount(),
		Phase:          string(h.service.Phase()),
	})
}

// GetOriginal serves the uploaded PDF bytes for the viewer pane.
func (h *StudioHandler) GetOriginal(c *gin.Context) {
	doc := h.service.Document()
	if doc == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No document uploaded"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Name))
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}

// ExportResult downloads the result as .md or .txt with identical
// content in both forms.
func (h *StudioHandler) ExportResult(c *gin.Context) {
	format := c.DefaultQuery("format", "md")

	export, err := h.service.Export(format)
	if err != nil {
		if errors.Is(err, session.ErrNoDocument) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "No conversion result available"})
			return
		}
		h.handleError(c, http.StatusBadRequest, "Failed to export result", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// GetStats returns the numbers the page's statistics row shows.
func (h *StudioHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No conversion result available"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health reports liveness and engine readiness.
func (h *StudioHandler) Health(c *gin.Context) {
	status := "ok"
	if !h.service.EngineReady() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"engineReady": h.service.EngineReady(),
		"phase":       string(h.service.Phase()),
	})
}

// handleError logs the full error and returns its detail.
func (h *StudioHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}

// handleUserError logs the full error but only surfaces the
// user-facing message.
func (h *StudioHandler) handleUserError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)
	c.JSON(status, ErrorResponse{Message: message})
}
