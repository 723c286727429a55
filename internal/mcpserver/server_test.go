package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/assistant"
	"github.com/starford/folio/internal/chat"
	"github.com/starford/folio/internal/ingest"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/upload"
	"github.com/starford/folio/internal/workspace"
)

func testServer(t *testing.T) (*Server, *workspace.Store) {
	t.Helper()
	store, adapter := testutil.TestStore(t, workspace.WithIndex(testutil.TestDB(t)))
	chatSvc := chat.New(chat.Config{
		Persist:   adapter,
		Responder: assistant.NewStub("test-key", 0),
		Documents: store,
		Logger:    testutil.Logger(),
	})
	return New(store, chatSvc, upload.NewPolicy(nil, 0), "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// Handlers are called directly; mcp-go has no in-process call helper.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notebooks":
		result, err = srv.listNotebooks(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "upload_document":
		result, err = srv.uploadDocument(ctx, req)
	case "create_note_from_document":
		result, err = srv.createNoteFromDocument(ctx, req)
	case "ask_assistant":
		result, err = srv.askAssistant(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createdID(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	id, ok := strings.CutPrefix(resultText(r), "created: ")
	if !ok || r.IsError {
		t.Fatalf("unexpected result %q", resultText(r))
	}
	return id
}

func TestCreateAndReadNote(t *testing.T) {
	srv, store := testServer(t)
	nb := store.CreateNotebook("Work")

	id := createdID(t, callTool(t, srv, "create_note", map[string]any{
		"notebook_id": nb.ID,
		"title":       "Test",
		"content":     "Hello",
	}))

	r := callTool(t, srv, "read_note", map[string]any{"id": id})
	var v noteView
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Title != "Test" || v.Content != "Hello" || v.NotebookID != nb.ID || v.Checksum == "" {
		t.Errorf("note = %+v", v)
	}
}

func TestCreateNoteUnknownNotebook(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]any{"notebook_id": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown notebook")
	}
}

func TestUpdateNoteChecksum(t *testing.T) {
	srv, store := testServer(t)
	nb := store.CreateNotebook("Work")
	n, err := store.CreateNote(nb.ID, "Draft", "v1")
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "update_note", map[string]any{
		"id":      n.ID,
		"content": "v2",
		"tags":    "a, b,,",
	})
	if r.IsError {
		t.Fatalf("update failed: %s", resultText(r))
	}
	got, _ := store.Note(n.ID)
	if got.Content != "v2" || got.Title != "Draft" || len(got.Tags) != 2 {
		t.Errorf("note = %+v", got)
	}

	r = callTool(t, srv, "update_note", map[string]any{"id": n.ID, "content": "v3", "checksum": "stale"})
	if !r.IsError {
		t.Error("expected stale checksum to be rejected")
	}
}

func TestListNotes(t *testing.T) {
	srv, store := testServer(t)
	nb := store.CreateNotebook("Work")
	_, _ = store.CreateNote(nb.ID, "a", "")
	_, _ = store.CreateNote(nb.ID, "b", "")

	text := resultText(callTool(t, srv, "list_notes", map[string]any{"notebook_id": nb.ID}))
	if lines := strings.Split(text, "\n"); len(lines) != 2 {
		t.Errorf("list = %q", text)
	}

	r := callTool(t, srv, "list_notes", map[string]any{"notebook_id": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown notebook")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, store := testServer(t)
	nb := store.CreateNotebook("Work")
	_, _ = store.CreateNote(nb.ID, "Roadmap", "launch milestones")

	text := resultText(callTool(t, srv, "search_notes", map[string]any{"query": "milestones"}))
	if !strings.Contains(text, "Roadmap") {
		t.Errorf("search = %s", text)
	}
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestUploadDocumentAndCreateNote(t *testing.T) {
	srv, store := testServer(t)
	nb := store.CreateNotebook("Research")

	r := callTool(t, srv, "upload_document", map[string]any{
		"data":     dataURI("application/pdf", []byte("%PDF-1.7 body")),
		"filename": "report.pdf",
	})
	if r.IsError {
		t.Fatalf("upload failed: %s", resultText(r))
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ProcessingStatus != models.StatusCompleted {
		t.Errorf("status = %s", doc.ProcessingStatus)
	}

	if text := resultText(callTool(t, srv, "list_documents", nil)); !strings.Contains(text, "report.pdf") {
		t.Errorf("list_documents = %s", text)
	}

	id := createdID(t, callTool(t, srv, "create_note_from_document", map[string]any{
		"document_id": doc.ID,
		"notebook_id": nb.ID,
	}))
	n, err := store.Note(id)
	if err != nil {
		t.Fatal(err)
	}
	if n.SourceDocumentID != doc.ID {
		t.Errorf("source = %q", n.SourceDocumentID)
	}
}

func TestUploadDocumentDerivesName(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "upload_document", map[string]any{
		"data": dataURI("application/vnd.openxmlformats-officedocument.presentationml.presentation", []byte("PK\x03\x04deck")),
	})
	if r.IsError {
		t.Fatalf("upload failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `.pptx"`) {
		t.Errorf("expected generated .pptx name: %s", resultText(r))
	}
}

func TestUploadDocumentRejects(t *testing.T) {
	srv, _ := testServer(t)
	cases := map[string]map[string]any{
		"not a data uri":  {"data": "https://example.com/a.pdf"},
		"not base64":      {"data": "data:application/pdf,%PDF"},
		"unknown content": {"data": dataURI("application/pdf", []byte("hello"))},
		"mime mismatch":   {"data": dataURI("application/vnd.ms-powerpoint", []byte("%PDF-1.7"))},
		"ext mismatch":    {"data": dataURI("application/pdf", []byte("%PDF-1.7")), "filename": "deck.pptx"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "upload_document", args); !r.IsError {
				t.Errorf("expected error, got %s", resultText(r))
			}
		})
	}
}

func TestAskAssistant(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "ask_assistant", map[string]any{"prompt": "please summarize"}))
	if !strings.Contains(text, "summary") {
		t.Errorf("reply = %q", text)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("../../etc/pass wd.pdf"); got != "pass_wd.pdf" {
		t.Errorf("got %q", got)
	}
}

func TestGuideResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readGuide(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != GuideURI || !strings.Contains(tc.Text, "upload_document") {
		t.Errorf("guide = %+v", contents)
	}
}

func TestUploadDocumentSurvivesCancelledCall(t *testing.T) {
	store := workspace.Open(testutil.TestAdapter(t), ingest.NewStub(20*time.Millisecond),
		workspace.WithLogger(testutil.Logger()))
	srv := New(store, nil, upload.NewPolicy(nil, 0), "test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := mcp.CallToolRequest{}
	req.Params.Name = "upload_document"
	req.Params.Arguments = map[string]any{
		"data":     dataURI("application/pdf", []byte("%PDF-1.7 body")),
		"filename": "report.pdf",
	}
	r, err := srv.uploadDocument(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if r.IsError {
		t.Fatalf("upload failed after client cancel: %s", resultText(r))
	}
	docs := store.Documents()
	if len(docs) != 1 || docs[0].ProcessingStatus != models.StatusCompleted {
		t.Errorf("documents = %+v", docs)
	}
}
