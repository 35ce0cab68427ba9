package session

import (
	"errors"
	"sync"

	"github.com/andeptrai/ocr-studio/internal/models"
	"github.com/andeptrai/ocr-studio/pkg/logger"
)

var (
	// ErrNoDocument signals an action that needs an uploaded document.
	ErrNoDocument = errors.New("no document uploaded")
	// ErrBusy signals a conversion already running in this session.
	ErrBusy = errors.New("conversion already in progress")
	// ErrStaleResult signals a result produced from a document that is
	// no longer the current upload.
	ErrStaleResult = errors.New("result belongs to a replaced document")
)

// Store holds one session's document and its most recent conversion
// result. Exactly one result is retained; a new successful conversion
// replaces it atomically from the reader's perspective, and a new
// upload clears it before anything else so stale text is never shown
// against a fresh document.
type Store struct {
	log logger.Logger

	mu     sync.RWMutex
	phase  models.SessionPhase
	doc    *models.Document
	result *models.ConversionResult
}

func NewStore(log logger.Logger) *Store {
	return &Store{
		log:   log,
		phase: models.PhaseNoDocument,
	}
}

// Phase returns the current session phase.
func (s *Store) Phase() models.SessionPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetDocument replaces the session document. Any prior result is
// cleared first; a conversion still running against the old document
// will be rejected at completion time by the document ID check.
func (s *Store) SetDocument(doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = nil
	s.doc = doc
	s.phase = models.PhaseDocumentUploaded

	s.log.Info("Document uploaded",
		logger.String("documentId", doc.ID),
		logger.String("filename", doc.Name),
		logger.Int64("size", doc.Size),
	)
}

// Document returns the current upload, or nil.
func (s *Store) Document() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// BeginConversion transitions the session into Converting and hands
// back the document the conversion must run against.
func (s *Store) BeginConversion() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return nil, ErrNoDocument
	}
	if s.phase == models.PhaseConverting {
		return nil, ErrBusy
	}
	s.phase = models.PhaseConverting
	return s.doc, nil
}

// CompleteConversion stores a successful result. A result produced from
// a document that has since been replaced is discarded.
func (s *Store) CompleteConversion(result *models.ConversionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil || s.doc.ID != result.DocumentID {
		s.log.Warn("Discarding stale conversion result",
			logger.String("documentId", result.DocumentID),
		)
		return ErrStaleResult
	}
	s.result = result
	s.phase = models.PhaseConverted
	return nil
}

// FailConversion returns the session to DocumentUploaded without
// storing anything.
func (s *Store) FailConversion() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc != nil {
		s.phase = models.PhaseDocumentUploaded
	} else {
		s.phase = models.PhaseNoDocument
	}
}

// Result returns the stored result for the current document.
func (s *Store) Result() (*models.ConversionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil {
		return nil, false
	}
	return s.result, true
}

// Clear drops the stored result, keeping the document.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = nil
	if s.doc != nil {
		s.phase = models.PhaseDocumentUploaded
	} else {
		s.phase = models.PhaseNoDocument
	}
}
