package workspace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Upload is a file handed to UploadDocument. Size and extension checks
// happen before this point (see package upload).
type Upload struct {
	Name string
	Data []byte
}

// UploadDocument records a new document, runs text extraction and returns
// the document in its terminal state. The status moves
// pending -> processing -> completed, or pending -> processing -> error when
// extraction fails; in that case the error-state document is returned
// together with the extraction error.
func (s *Store) UploadDocument(ctx context.Context, up Upload) (models.Document, error) {
	var doc models.Document
	_ = s.mutate("upload_document", func(t *txn) error {
		doc = models.Document{
			ID:               s.newID(),
			Name:             up.Name,
			Type:             models.DocumentTypeFor(up.Name),
			Size:             int64(len(up.Data)),
			CreatedAt:        s.now(),
			ProcessingStatus: models.StatusPending,
		}
		s.documents = append(s.documents, doc)
		t.documents = true
		t.emit(DocumentCreated, doc.ID)
		return nil
	})

	doc = s.transition(doc, func(d *models.Document) {
		d.ProcessingStatus = models.StatusProcessing
	})

	// The raw bytes only travel to the extractor; the store never holds them.
	in := doc
	in.Data = up.Data
	text, err := s.extractor.ExtractText(ctx, in)
	if err != nil {
		s.logger.Error("workspace: document processing failed",
			slog.String("document_id", doc.ID),
			slog.String("name", doc.Name),
			slog.String("error", err.Error()))
		doc = s.transition(doc, func(d *models.Document) {
			d.ProcessingStatus = models.StatusError
			d.Error = err.Error()
		})
		s.metrics.DocumentProcessed(string(models.StatusError))
		return doc, fmt.Errorf("document %s: %w", doc.ID, err)
	}

	doc = s.transition(doc, func(d *models.Document) {
		d.Content = text
		d.ProcessingStatus = models.StatusCompleted
	})
	s.metrics.DocumentProcessed(string(models.StatusCompleted))
	return doc, nil
}

// transition applies fn to the stored document and returns the result. A
// document that vanished meanwhile (external reload) is re-added so the
// outcome of the upload is not lost.
func (s *Store) transition(doc models.Document, fn func(d *models.Document)) models.Document {
	var out models.Document
	_ = s.mutate("document_transition", func(t *txn) error {
		i := s.documentIndex(doc.ID)
		if i < 0 {
			s.logger.Warn("workspace: document vanished during processing", slog.String("document_id", doc.ID))
			doc.Data = nil
			s.documents = append(s.documents, doc)
			i = len(s.documents) - 1
		}
		fn(&s.documents[i])
		t.documents = true
		t.emit(DocumentUpdated, doc.ID)
		out = s.documents[i]
		return nil
	})
	return out
}

// Document returns the document with id.
func (s *Store) Document(id string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.documentIndex(id)
	if i < 0 {
		return models.Document{}, fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
	}
	return s.documents[i], nil
}

// Documents returns a copy of every document in upload order.
func (s *Store) Documents() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Document(nil), s.documents...)
}

// CreateNoteFromDocument creates a note in the notebook whose title and
// content mirror the document and whose SourceDocumentID links back to it.
// Documents that are not completed yield apperr.ErrInvalidState.
func (s *Store) CreateNoteFromDocument(documentID, notebookID string) (models.Note, error) {
	var out models.Note
	err := s.mutate("create_note_from_document", func(t *txn) error {
		i := s.documentIndex(documentID)
		if i < 0 {
			return fmt.Errorf("document %s: %w", documentID, apperr.ErrNotFound)
		}
		doc := s.documents[i]
		if doc.ProcessingStatus != models.StatusCompleted {
			return fmt.Errorf("cannot create note from a document that has not been processed (status %s): %w",
				doc.ProcessingStatus, apperr.ErrInvalidState)
		}
		n, err := s.createNoteLocked(t, notebookID, doc.Name, doc.Content, doc.ID)
		out = n
		return err
	})
	return out, err
}
