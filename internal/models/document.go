package models

import (
	"strings"
	"time"
)

// SessionPhase 会话阶段
type SessionPhase string

const (
	PhaseNoDocument       SessionPhase = "no_document"
	PhaseDocumentUploaded SessionPhase = "document_uploaded"
	PhaseConverting       SessionPhase = "converting"
	PhaseConverted        SessionPhase = "converted"
)

// Document is the currently uploaded file, owned by the session.
// The byte buffer is immutable once received and is replaced wholesale
// by the next upload.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Data       []byte    `json:"-"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// BaseName returns the upload name without its extension, used to
// derive export filenames.
func (d *Document) BaseName() string {
	name := d.Name
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// ConversionResult 转换结果
type ConversionResult struct {
	DocumentID string        `json:"documentId"`
	Text       string        `json:"text"`
	Elapsed    time.Duration `json:"-"`
	Pages      int           `json:"pages"`
	OCRPages   int           `json:"ocrPages"`
	ProducedAt time.Time     `json:"producedAt"`
}

// ElapsedSeconds reports conversion wall-clock time the way the page
// displays it.
func (r *ConversionResult) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// CharCount returns the number of characters in the converted text.
func (r *ConversionResult) CharCount() int {
	return len([]rune(r.Text))
}

// WordCount returns the whitespace-token count of the converted text.
func (r *ConversionResult) WordCount() int {
	return len(strings.Fields(r.Text))
}
