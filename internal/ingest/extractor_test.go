package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/models"
)

func TestStubExtractsDeterministicText(t *testing.T) {
	s := NewStub(0)
	doc := models.Document{Name: "slides.pptx", Type: models.DocumentPPT}

	first, err := s.ExtractText(context.Background(), doc)
	require.NoError(t, err)
	second, err := s.ExtractText(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "slides.pptx")
	assert.Contains(t, first, "PPT file")
}

func TestStubFailure(t *testing.T) {
	boom := errors.New("service unavailable")
	s := &Stub{Fail: boom}

	_, err := s.ExtractText(context.Background(), models.Document{Name: "a.pdf", Type: models.DocumentPDF})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, boom)
}

func TestStubHonoursCancellation(t *testing.T) {
	s := NewStub(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ExtractText(ctx, models.Document{Name: "a.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStubWaitsLatency(t *testing.T) {
	s := NewStub(30 * time.Millisecond)
	start := time.Now()
	_, err := s.ExtractText(context.Background(), models.Document{Name: "a.pdf", Type: models.DocumentPDF})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
