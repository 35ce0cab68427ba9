package studio

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeptrai/ocr-studio/internal/convert"
	"github.com/andeptrai/ocr-studio/internal/engine"
	"github.com/andeptrai/ocr-studio/internal/models"
	"github.com/andeptrai/ocr-studio/internal/session"
	"github.com/andeptrai/ocr-studio/pkg/logger"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF")

type scriptedEngine struct {
	results []func() (*engine.Rendered, error)
	calls   int
}

func (e *scriptedEngine) Convert(ctx context.Context, path string) (*engine.Rendered, error) {
	fn := e.results[e.calls%len(e.results)]
	e.calls++
	return fn()
}

func (e *scriptedEngine) Close() error { return nil }

func renderedWith(text string) func() (*engine.Rendered, error) {
	return func() (*engine.Rendered, error) {
		return &engine.Rendered{Pages: []engine.Page{{Text: text}}}, nil
	}
}

func failingWith(msg string) func() (*engine.Rendered, error) {
	return func() (*engine.Rendered, error) {
		return nil, errors.New(msg)
	}
}

func newTestService(t *testing.T, eng engine.Engine) StudioService {
	t.Helper()
	log := logger.NewTestLogger()
	loader := engine.NewLoader(log, func() (engine.Engine, error) {
		return eng, nil
	})
	invoker := convert.NewInvoker(log, loader, 0)
	store := session.NewStore(log)

	return NewService(loader, invoker, store, log, &ServiceConfig{
		MaxFileSize:  1 << 20,
		AllowedTypes: []string{".pdf"},
	})
}

func makeUpload(t *testing.T, filename string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	headers := form.File["file"]
	require.Len(t, headers, 1)
	f, err := headers[0].Open()
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, headers[0]
}

func TestUploadAcceptsPDF(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})

	file, header := makeUpload(t, "report.pdf", pdfBytes)
	doc, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, int64(len(pdfBytes)), doc.Size)
	assert.Equal(t, models.PhaseDocumentUploaded, svc.Phase())
}

func TestUploadRejectsWrongExtension(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})

	file, header := makeUpload(t, "notes.docx", []byte("hello"))
	_, err := svc.Upload(context.Background(), file, header)
	assert.ErrorContains(t, err, "not allowed")
	assert.Equal(t, models.PhaseNoDocument, svc.Phase())
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})

	file, header := makeUpload(t, "empty.pdf", nil)
	_, err := svc.Upload(context.Background(), file, header)
	assert.ErrorContains(t, err, "empty")
}

func TestUploadAcceptsCorruptBytesWithPDFName(t *testing.T) {
	// Content sniffing must not reject here: the engine is the
	// authority, and the failure surfaces at conversion time.
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){failingWith("not a pdf")}})

	file, header := makeUpload(t, "fake.pdf", []byte("this is just text"))
	_, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)

	_, err = svc.Convert(context.Background())
	var convErr *convert.ConversionError
	require.ErrorAs(t, err, &convErr)

	assert.Equal(t, models.PhaseDocumentUploaded, svc.Phase())
	_, ok := svc.Result()
	assert.False(t, ok, "no result may be stored after a failed conversion")
}

func TestConvertWithoutDocument(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})

	_, err := svc.Convert(context.Background())
	assert.ErrorIs(t, err, session.ErrNoDocument)
}

func TestConvertStoresResult(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{
		results: []func() (*engine.Rendered, error){renderedWith("Chapter one\n\nknown content here")},
	})

	file, header := makeUpload(t, "book.pdf", pdfBytes)
	_, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)

	result, err := svc.Convert(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Text, "known content")
	assert.GreaterOrEqual(t, result.ElapsedSeconds(), 0.0)
	assert.Equal(t, models.PhaseConverted, svc.Phase())

	stored, ok := svc.Result()
	require.True(t, ok)
	assert.Equal(t, result.Text, stored.Text)
}

func TestFailureOnAThenSuccessOnB(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{
		results: []func() (*engine.Rendered, error){
			failingWith("resource exhausted"),
			renderedWith("document B text"),
		},
	})

	fileA, headerA := makeUpload(t, "a.pdf", pdfBytes)
	_, err := svc.Upload(context.Background(), fileA, headerA)
	require.NoError(t, err)

	_, err = svc.Convert(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.PhaseDocumentUploaded, svc.Phase())

	fileB, headerB := makeUpload(t, "b.pdf", pdfBytes)
	docB, err := svc.Upload(context.Background(), fileB, headerB)
	require.NoError(t, err)

	result, err := svc.Convert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "document B text", result.Text)
	assert.Equal(t, docB.ID, result.DocumentID)
}

func TestExportFormatsAreByteIdentical(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{
		results: []func() (*engine.Rendered, error){renderedWith("# Title\n\nSome **markdown** text")},
	})

	file, header := makeUpload(t, "paper.pdf", pdfBytes)
	_, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)
	_, err = svc.Convert(context.Background())
	require.NoError(t, err)

	md, err := svc.Export("md")
	require.NoError(t, err)
	txt, err := svc.Export("txt")
	require.NoError(t, err)

	assert.Equal(t, md.Data, txt.Data, "both export forms carry identical content")
	assert.Equal(t, "paper_ocr.md", md.Filename)
	assert.Equal(t, "paper_ocr.txt", txt.Filename)
	assert.Equal(t, "text/markdown", md.ContentType)
	assert.Equal(t, "text/plain", txt.ContentType)
}

func TestExportUnknownFormat(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})

	file, header := makeUpload(t, "a.pdf", pdfBytes)
	_, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)
	_, err = svc.Convert(context.Background())
	require.NoError(t, err)

	_, err = svc.Export("docx")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestExportWithoutResult(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})

	_, err := svc.Export("md")
	assert.ErrorIs(t, err, session.ErrNoDocument)
}

func TestStatsMatchStoredText(t *testing.T) {
	text := "one two  three\nfour\tfive"
	svc := newTestService(t, &scriptedEngine{
		results: []func() (*engine.Rendered, error){renderedWith(text)},
	})

	file, header := makeUpload(t, "a.pdf", pdfBytes)
	_, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)
	_, err = svc.Convert(context.Background())
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)

	stored, _ := svc.Result()
	assert.Equal(t, len(strings.Fields(stored.Text)), stats.WordCount)
	assert.Equal(t, 5, stats.WordCount)
	assert.Equal(t, len([]rune(stored.Text)), stats.CharCount)
	assert.GreaterOrEqual(t, stats.ElapsedSeconds, 0.0)
}

func TestEngineReadyReflectsLoader(t *testing.T) {
	svc := newTestService(t, &scriptedEngine{results: []func() (*engine.Rendered, error){renderedWith("x")}})
	assert.False(t, svc.EngineReady(), "engine loads on first conversion")

	file, header := makeUpload(t, "a.pdf", pdfBytes)
	_, err := svc.Upload(context.Background(), file, header)
	require.NoError(t, err)
	_, err = svc.Convert(context.Background())
	require.NoError(t, err)

	assert.True(t, svc.EngineReady())
}
