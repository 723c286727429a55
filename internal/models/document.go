package models

import (
	"path/filepath"
	"strings"
	"time"
)

// DocumentType is the kind of uploaded file.
type DocumentType string

const (
	DocumentPDF  DocumentType = "pdf"
	DocumentPPT  DocumentType = "ppt"
	DocumentPPTX DocumentType = "pptx"
)

// ProcessingStatus tracks text extraction for a document.
//
//	pending -> processing -> completed
//	pending -> processing -> error
//
// completed and error are terminal.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusError      ProcessingStatus = "error"
)

// Terminal reports whether no further transition is possible.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Document is an uploaded file tracked through text extraction.
type Document struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             DocumentType     `json:"type"`
	Size             int64            `json:"size"`
	Content          string           `json:"content"`
	CreatedAt        time.Time        `json:"createdAt"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	Error            string           `json:"error,omitempty"`

	// Data holds the raw upload for the lifetime of the process only.
	Data []byte `json:"-"`
}

// DocumentTypeFor derives the type from the file extension.
// ppt and pptx both map to ppt; anything unrecognised is treated as pdf.
func DocumentTypeFor(name string) DocumentType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "ppt", "pptx":
		return DocumentPPT
	default:
		return DocumentPDF
	}
}
