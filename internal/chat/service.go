// Package chat keeps the assistant transcript and routes prompts to the
// responder.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/assistant"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/persist"
	"github.com/starford/folio/internal/workspace"
)

// Greeting opens every transcript.
const Greeting = "Hello! I can help you analyze your documents and notes. What would you like to know?"

// Updated is the change kind reported after the transcript changes.
const Updated = "chat.updated"

// DocumentLookup resolves the document used as context for a prompt.
type DocumentLookup interface {
	Document(id string) (models.Document, error)
}

// Service owns the chat transcript.
type Service struct {
	persist   *persist.Adapter
	responder assistant.Responder
	docs      DocumentLookup
	notifier  workspace.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	messages []models.ChatMessage
}

// Config bundles the Service collaborators. Notifier and Metrics are optional.
type Config struct {
	Persist   *persist.Adapter
	Responder assistant.Responder
	Documents DocumentLookup
	Notifier  workspace.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// New loads the persisted transcript, seeding it with Greeting when empty.
func New(cfg Config) *Service {
	s := &Service{
		persist:   cfg.Persist,
		responder: cfg.Responder,
		docs:      cfg.Documents,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.messages = s.persist.LoadChat()
	if len(s.messages) == 0 {
		s.messages = []models.ChatMessage{s.greeting()}
	}
	return s
}

func (s *Service) greeting() models.ChatMessage {
	return s.message(models.RoleAssistant, Greeting)
}

func (s *Service) message(role, content string) models.ChatMessage {
	return models.ChatMessage{ID: uuid.NewString(), Role: role, Content: content, Timestamp: s.now()}
}

// History returns a copy of the transcript.
func (s *Service) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

// Ask appends the prompt, waits for the responder and appends its reply.
// A non-empty documentID supplies that document's content as context.
// Responder failures are logged and answered with assistant.ErrorReply.
// A cancelled context is answered the same way and its error returned.
func (s *Service) Ask(ctx context.Context, prompt, documentID string) (models.ChatMessage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return models.ChatMessage{}, fmt.Errorf("prompt is required: %w", apperr.ErrValidation)
	}

	var docContext string
	if documentID != "" {
		doc, err := s.docs.Document(documentID)
		if err != nil {
			return models.ChatMessage{}, err
		}
		docContext = doc.Content
	}

	s.append(s.message(models.RoleUser, prompt))
	s.metrics.ChatQuery()

	reply, err := s.responder.Reply(ctx, prompt, docContext)
	if err != nil {
		// Every user turn gets an answer, even an abandoned one.
		answer := s.message(models.RoleAssistant, assistant.ErrorReply)
		s.append(answer)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return answer, err
		}
		s.logger.Error("chat: responder failed", slog.String("error", err.Error()))
		return answer, nil
	}

	answer := s.message(models.RoleAssistant, reply)
	s.append(answer)
	return answer, nil
}

// Clear resets the transcript to the greeting.
func (s *Service) Clear() {
	s.mu.Lock()
	s.messages = []models.ChatMessage{s.greeting()}
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

// Reload replaces the transcript with the persisted one.
func (s *Service) Reload() {
	s.mu.Lock()
	s.messages = s.persist.LoadChat()
	if len(s.messages) == 0 {
		s.messages = []models.ChatMessage{s.greeting()}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Service) append(m models.ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Service) saveLocked() {
	if err := s.persist.SaveChat(s.messages); err != nil {
		s.logger.Error("chat: persist failed", slog.String("error", err.Error()))
	}
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.Changed(Updated, "")
	}
}
