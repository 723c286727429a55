//go:build sqlite_fts5

package index

import (
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	n := models.Note{ID: "fts", Title: "FTS Note", Content: "Folio provides powerful full-text search.", UpdatedAt: time.Now()}
	if err := db.IndexNote(n, "nb"); err != nil {
		t.Fatalf("IndexNote: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].NoteID != "fts" || results[0].NotebookID != "nb" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.IndexNote(models.Note{ID: "gone", Content: "vanishing content"}, "")
	_ = db.DeleteNote("gone")

	results, _ := db.Search("vanishing", 10)
	if len(results) != 0 {
		t.Errorf("deleted note still in FTS index: %+v", results)
	}
}

func TestFTS5_PrefixAndPunctuation(t *testing.T) {
	db := testDB(t)
	_ = db.IndexNote(models.Note{ID: "p", Title: "Quarterly plan", Content: "milestones: Q3 (draft)"}, "nb")

	results, err := db.Search("mile", 10)
	if err != nil || len(results) != 1 {
		t.Fatalf("prefix search = %+v, %v", results, err)
	}
	if _, err := db.Search(`(draft"`, 10); err != nil {
		t.Errorf("punctuation query errored: %v", err)
	}
}

func TestMatchExpr(t *testing.T) {
	if got := matchExpr(`q3 "plan`); got != `"q3"* """plan"*` {
		t.Errorf("matchExpr = %s", got)
	}
	if matchExpr("   ") != "" {
		t.Error("blank query should produce an empty expression")
	}
}
