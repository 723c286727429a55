package mcpserver

// GuideURI is the resource describing the workspace model.
const GuideURI = "folio://guide"

// Guide explains the workspace to LLM clients.
const Guide = `# Folio Workspace Guide

Folio stores notebooks, notes, uploaded documents and an assistant transcript.

## Model

- A **notebook** has an id, a title and an ordered list of note ids.
- A **note** has an id, a title, content, tags and timestamps. Every note
  belongs to exactly one notebook. Notes created from a document carry
  ` + "`sourceDocumentId`" + `.
- A **document** is an uploaded PDF or PowerPoint file. Its
  ` + "`processingStatus`" + ` moves from ` + "`pending`" + ` to ` + "`processing`" + ` and ends in
  ` + "`completed`" + ` (extracted text in ` + "`content`" + `) or ` + "`error`" + `.

## Rules

1. Create notes with ` + "`create_note`" + ` and a notebook id from ` + "`list_notebooks`" + `.
2. An empty title becomes "Untitled Note".
3. ` + "`update_note`" + ` accepts an optional ` + "`checksum`" + ` from ` + "`read_note`" + `; a stale
   checksum is rejected so concurrent edits are not lost.
4. Deleting a notebook deletes its notes.
5. Only ` + "`completed`" + ` documents can become notes
   (` + "`create_note_from_document`" + `).

## Uploading documents

Pass the file to ` + "`upload_document`" + ` as a base64 data URI, e.g.
` + "`data:application/pdf;base64,JVBERi0...`" + `. The content must start with the
PDF, legacy PowerPoint (OLE) or PPTX (zip) signature.
`
