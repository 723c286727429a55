// Package ingest is the seam where uploaded documents are turned into text.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/folio/internal/models"
)

// Extractor turns an uploaded document into plain text.
// Implementations may block and may fail.
type Extractor interface {
	ExtractText(ctx context.Context, doc models.Document) (string, error)
}

// ErrExtraction wraps every failure reported by Stub.
var ErrExtraction = errors.New("failed to extract text from document")

// Stub simulates an extraction service: it waits Latency and returns
// placeholder text derived from the document name and type.
type Stub struct {
	Latency time.Duration
	// Fail, when set, is returned (wrapped) instead of text.
	Fail error
}

// NewStub returns a Stub with the given latency.
func NewStub(latency time.Duration) *Stub {
	return &Stub{Latency: latency}
}

// ExtractText implements Extractor.
func (s *Stub) ExtractText(ctx context.Context, doc models.Document) (string, error) {
	if s.Latency > 0 {
		t := time.NewTimer(s.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrExtraction, ctx.Err())
		case <-t.C:
		}
	}
	if s.Fail != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, s.Fail)
	}
	return PlaceholderText(doc), nil
}

// PlaceholderText is the deterministic text the stub extracts from doc.
func PlaceholderText(doc models.Document) string {
	return fmt.Sprintf("Content extracted from %s. This is simulated content as we're not actually "+
		"processing the file in this demo. In a production environment, this would contain the "+
		"actual text extracted from your %s file.", doc.Name, strings.ToUpper(string(doc.Type)))
}
