// Package assistant is the seam where prompts are answered by a language model.
package assistant

import (
	"context"
	"strings"
	"time"
)

// Responder answers a single-turn prompt. docContext is optional
// extra material (for example a document's extracted text).
type Responder interface {
	Reply(ctx context.Context, prompt, docContext string) (string, error)
}

// placeholderKey is the value shipped in sample .env files.
const placeholderKey = "your-api-key-here"

// MissingKeyReply is returned when no usable API key is configured.
const MissingKeyReply = "Please configure your Gemini API key in the .env file to use AI features."

// ErrorReply stands in for a reply when the responder fails.
const ErrorReply = "Sorry, I encountered an error while processing your request. Please try again later."

// Stub simulates the assistant by keyword matching on the prompt.
type Stub struct {
	APIKey  string
	Latency time.Duration
}

// NewStub returns a Stub with the given key and latency.
func NewStub(apiKey string, latency time.Duration) *Stub {
	return &Stub{APIKey: apiKey, Latency: latency}
}

// Configured reports whether a usable API key is present.
func (s *Stub) Configured() bool {
	return s.APIKey != "" && s.APIKey != placeholderKey
}

// Reply implements Responder.
func (s *Stub) Reply(ctx context.Context, prompt, docContext string) (string, error) {
	if !s.Configured() {
		return MissingKeyReply, nil
	}
	if s.Latency > 0 {
		t := time.NewTimer(s.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return cannedReply(prompt, docContext), nil
}

func cannedReply(prompt, docContext string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "summarize"):
		subject := "your notes"
		if docContext != "" {
			subject = "the uploaded content"
		}
		return "Here's a summary of the document:\n\nThis document appears to be about " + subject +
			". It contains information that might be relevant to your research or project. The main " +
			"points include various concepts and ideas that would be extracted by the Gemini API in a " +
			"real implementation."
	case strings.Contains(p, "extract") || strings.Contains(p, "key points"):
		return "Key points from the document:\n\n" +
			"• Point 1: Important information would be extracted here\n" +
			"• Point 2: Another key concept from the document\n" +
			"• Point 3: Additional relevant information\n" +
			"• Point 4: Final important takeaway"
	case strings.Contains(p, "hello") || strings.Contains(p, "hi"):
		return "Hello! I'm your AI assistant powered by Google Gemini. How can I help you analyze your documents today?"
	default:
		subject := "your notes"
		if docContext != "" {
			subject = "the document"
		}
		return "I've analyzed " + subject + " and can help answer questions about it. What specific information are you looking for?"
	}
}
