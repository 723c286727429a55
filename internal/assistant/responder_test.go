package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubMissingKey(t *testing.T) {
	for _, key := range []string{"", placeholderKey} {
		s := NewStub(key, time.Hour)
		assert.False(t, s.Configured())

		// Must not wait the latency when unconfigured.
		got, err := s.Reply(context.Background(), "summarize", "")
		require.NoError(t, err)
		assert.Equal(t, MissingKeyReply, got)
	}
}

func TestStubKeywordRouting(t *testing.T) {
	s := NewStub("k", 0)
	cases := []struct {
		prompt  string
		context string
		want    string
	}{
		{"Please SUMMARIZE this", "doc text", "the uploaded content"},
		{"summarize", "", "your notes"},
		{"extract the dates", "", "Key points from the document"},
		{"what are the key points?", "", "Key points from the document"},
		{"Hello there", "", "Hello! I'm your AI assistant"},
		{"hi", "", "Hello! I'm your AI assistant"},
		{"what is this about", "", "Hello! I'm your AI assistant"},
		{"tell me more", "", "I've analyzed your notes"},
		{"tell me more", "doc text", "I've analyzed the document"},
	}
	for _, tc := range cases {
		got, err := s.Reply(context.Background(), tc.prompt, tc.context)
		require.NoError(t, err)
		assert.Contains(t, got, tc.want, "prompt %q", tc.prompt)
	}
}

func TestStubHonoursCancellation(t *testing.T) {
	s := NewStub("k", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Reply(ctx, "hello", "")
	assert.ErrorIs(t, err, context.Canceled)
}
