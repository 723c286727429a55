package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/upload"
	"github.com/starford/folio/internal/workspace"
)

var (
	mimeToExt = map[string]string{
		"application/pdf":               ".pdf",
		"application/vnd.ms-powerpoint": ".ppt",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

func (s *Server) uploadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, declaredExt, err := decodeDataURI(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sniffed, ok := upload.Sniff(data)
	if !ok {
		return mcp.NewToolResultError("content is not a PDF or PowerPoint file"), nil
	}
	if declaredExt != "" && declaredExt != sniffed {
		return mcp.NewToolResultError(fmt.Sprintf("content does not match declared type %s (detected %s)", declaredExt, sniffed)), nil
	}

	filename := req.GetString("filename", "")
	if filename == "" {
		filename = uuid.NewString() + sniffed
	}
	filename = sanitizeFilename(filename)
	if ext := strings.ToLower(filepath.Ext(filename)); ext != sniffed {
		return mcp.NewToolResultError(fmt.Sprintf("content does not match extension %s (detected %s)", ext, sniffed)), nil
	}

	if err := s.policy.Check(filename, int64(len(data))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Extraction outlives the tool call, as it does for HTTP uploads.
	doc, err := s.store.UploadDocument(context.WithoutCancel(ctx), workspace.Upload{Name: filename, Data: data})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document %s failed: %s", doc.ID, doc.Error)), nil
	}
	return jsonResult(doc)
}

// decodeDataURI parses a data:<mediatype>;base64,<data> URI and returns
// the payload with the extension implied by the media type, if known.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("expected a data URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return data, mimeToExt[mime], nil
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = uuid.NewString()
	}
	return name
}
