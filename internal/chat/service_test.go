package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/assistant"
	"github.com/starford/folio/internal/chat"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/persist"
	"github.com/starford/folio/internal/testutil"
)

type docs map[string]models.Document

func (d docs) Document(id string) (models.Document, error) {
	doc, ok := d[id]
	if !ok {
		return models.Document{}, apperr.ErrNotFound
	}
	return doc, nil
}

type failing struct{ err error }

func (f failing) Reply(context.Context, string, string) (string, error) { return "", f.err }

// capture records the last document context passed to the responder.
type capture struct{ docContext string }

func (c *capture) Reply(_ context.Context, _, docContext string) (string, error) {
	c.docContext = docContext
	return "ok", nil
}

func newService(t *testing.T, a *persist.Adapter, r assistant.Responder) *chat.Service {
	t.Helper()
	return chat.New(chat.Config{
		Persist:   a,
		Responder: r,
		Documents: docs{"d1": {ID: "d1", Content: "quarterly report"}},
		Logger:    testutil.Logger(),
	})
}

func TestNewSeedsGreeting(t *testing.T) {
	s := newService(t, testutil.TestAdapter(t), assistant.NewStub("key", 0))
	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, models.RoleAssistant, h[0].Role)
	assert.Equal(t, chat.Greeting, h[0].Content)
}

func TestAskAppendsExchange(t *testing.T) {
	a := testutil.TestAdapter(t)
	rec := &testutil.Recorder{}
	s := chat.New(chat.Config{
		Persist:   a,
		Responder: assistant.NewStub("key", 0),
		Notifier:  rec,
		Logger:    testutil.Logger(),
	})

	reply, err := s.Ask(context.Background(), "  hello there ", "")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "Hello!")

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, models.RoleUser, h[1].Role)
	assert.Equal(t, "hello there", h[1].Content)
	assert.Equal(t, reply.ID, h[2].ID)

	assert.Len(t, a.LoadChat(), 3, "transcript is persisted")
	assert.Contains(t, rec.Kinds(), chat.Updated)
}

func TestAskMissingKey(t *testing.T) {
	s := newService(t, testutil.TestAdapter(t), assistant.NewStub("your-api-key-here", 0))
	reply, err := s.Ask(context.Background(), "summarize", "")
	require.NoError(t, err)
	assert.Equal(t, assistant.MissingKeyReply, reply.Content)
}

func TestAskEmptyPrompt(t *testing.T) {
	s := newService(t, testutil.TestAdapter(t), assistant.NewStub("key", 0))
	_, err := s.Ask(context.Background(), "   ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, s.History(), 1)
}

func TestAskWithDocumentContext(t *testing.T) {
	c := &capture{}
	s := newService(t, testutil.TestAdapter(t), c)

	_, err := s.Ask(context.Background(), "summarize", "d1")
	require.NoError(t, err)
	assert.Equal(t, "quarterly report", c.docContext)

	_, err = s.Ask(context.Background(), "summarize", "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAskResponderFailure(t *testing.T) {
	s := newService(t, testutil.TestAdapter(t), failing{err: errors.New("quota exceeded")})
	reply, err := s.Ask(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Equal(t, assistant.ErrorReply, reply.Content)
}

func TestAskCancelledLeavesNoDanglingTurn(t *testing.T) {
	a := testutil.TestAdapter(t)
	s := newService(t, a, failing{err: context.Canceled})
	_, err := s.Ask(context.Background(), "anything", "")
	assert.ErrorIs(t, err, context.Canceled)

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, models.RoleUser, h[1].Role)
	assert.Equal(t, models.RoleAssistant, h[2].Role)
	assert.Equal(t, assistant.ErrorReply, h[2].Content)
	assert.Len(t, a.LoadChat(), 3)
}

func TestClearResetsToGreeting(t *testing.T) {
	a := testutil.TestAdapter(t)
	s := newService(t, a, assistant.NewStub("key", 0))
	_, err := s.Ask(context.Background(), "hi", "")
	require.NoError(t, err)

	s.Clear()
	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, chat.Greeting, h[0].Content)
	assert.Len(t, a.LoadChat(), 1)
}

func TestReloadAndReopen(t *testing.T) {
	a := testutil.TestAdapter(t)
	s := newService(t, a, assistant.NewStub("key", 0))
	_, err := s.Ask(context.Background(), "hi", "")
	require.NoError(t, err)

	reopened := newService(t, a, assistant.NewStub("key", 0))
	assert.Len(t, reopened.History(), 3)

	require.NoError(t, a.SaveChat(nil))
	reopened.Reload()
	h := reopened.History()
	require.Len(t, h, 1)
	assert.Equal(t, chat.Greeting, h[0].Content)
}
