// Package mcpserver exposes the Folio workspace as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/chat"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/upload"
	"github.com/starford/folio/internal/workspace"
)

// Server wraps the MCP server with Folio tools.
type Server struct {
	mcp    *server.MCPServer
	store  *workspace.Store
	chat   *chat.Service
	policy upload.Policy
}

// New creates a new MCP server with all Folio tools registered.
func New(store *workspace.Store, chatSvc *chat.Service, policy upload.Policy, version string) *Server {
	s := &Server{store: store, chat: chatSvc, policy: policy}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notebooks",
		mcp.WithDescription("List notebooks with their ordered note ids."),
	), s.listNotebooks)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, optionally only those of one notebook."),
		mcp.WithString("notebook_id", mcp.Description("Optional notebook id")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note, including the checksum to pass to update_note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note in a notebook. Read the folio://guide resource first."),
		mcp.WithString("notebook_id", mcp.Required(), mcp.Description("Notebook id from list_notebooks")),
		mcp.WithString("title", mcp.Description("Note title; empty becomes \"Untitled Note\"")),
		mcp.WithString("content", mcp.Description("Note body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the title, content or tags of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New title (omit to keep)")),
		mcp.WithString("content", mcp.Description("New content (omit to keep)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags (omit to keep)")),
		mcp.WithString("checksum", mcp.Description("Checksum from read_note; rejects stale edits")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles and content, notebook titles and document names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum note hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List uploaded documents and their processing status."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Upload a PDF or PowerPoint file given as a base64 data URI and extract its text."),
		mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
		mcp.WithString("filename", mcp.Description("File name; derived from the content when omitted")),
	), s.uploadDocument)

	s.mcp.AddTool(mcp.NewTool("create_note_from_document",
		mcp.WithDescription("Create a note from a completed document's extracted text."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("notebook_id", mcp.Required(), mcp.Description("Target notebook id")),
	), s.createNoteFromDocument)

	s.mcp.AddTool(mcp.NewTool("ask_assistant",
		mcp.WithDescription("Ask the document assistant a question."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Question")),
		mcp.WithString("document_id", mcp.Description("Optional document used as context")),
	), s.askAssistant)

	s.mcp.AddResource(
		mcp.NewResource(GuideURI, "Workspace Guide",
			mcp.WithResourceDescription("How notebooks, notes and documents relate."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuide,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type noteView struct {
	ID               string   `json:"id"`
	NotebookID       string   `json:"notebookId,omitempty"`
	Title            string   `json:"title"`
	Content          string   `json:"content,omitempty"`
	Tags             []string `json:"tags"`
	SourceDocumentID string   `json:"sourceDocumentId,omitempty"`
	UpdatedAt        string   `json:"updatedAt"`
	Checksum         string   `json:"checksum"`
}

func (s *Server) listNotebooks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Notebooks())
}

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nbID := req.GetString("notebook_id", "")
	notes := s.store.Notes()
	if nbID != "" {
		var err error
		if notes, err = s.store.NotesIn(nbID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.ID+"\t"+n.Title)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.Note(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	nb, _ := s.store.NotebookOf(id)
	return jsonResult(noteView{
		ID:               n.ID,
		NotebookID:       nb,
		Title:            n.Title,
		Content:          n.Content,
		Tags:             n.Tags,
		SourceDocumentID: n.SourceDocumentID,
		UpdatedAt:        n.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		Checksum:         checksum.Note(n),
	})
}

func (s *Server) createNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nbID, err := req.RequireString("notebook_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.CreateNote(nbID, req.GetString("title", ""), req.GetString("content", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID)), nil
}

func (s *Server) updateNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.Note(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	args := req.GetArguments()
	if v, ok := args["title"].(string); ok {
		n.Title = v
	}
	if v, ok := args["content"].(string); ok {
		n.Content = v
	}
	if v, ok := args["tags"].(string); ok {
		n.Tags = splitTags(v)
	}

	n, err = s.store.UpdateNoteIfMatch(n, req.GetString("checksum", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (checksum %s)", n.ID, checksum.Note(n))), nil
}

func splitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.store.Search(query, req.GetInt("limit", 20)))
}

func (s *Server) listDocuments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Documents())
}

func (s *Server) createNoteFromDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nbID, err := req.RequireString("notebook_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.CreateNoteFromDocument(docID, nbID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID)), nil
}

func (s *Server) askAssistant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reply, err := s.chat.Ask(ctx, prompt, req.GetString("document_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(reply.Content), nil
}

func (s *Server) readGuide(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GuideURI,
			MIMEType: "text/markdown",
			Text:     Guide,
		},
	}, nil
}
