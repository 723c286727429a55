package workspace

import (
	"log/slog"
	"strings"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
)

// SearchResults groups matches per collection.
type SearchResults struct {
	Notebooks []models.Notebook    `json:"notebooks"`
	Documents []models.Document    `json:"documents"`
	Notes     []index.SearchResult `json:"notes"`
}

// Search matches query case-insensitively against notebook titles,
// document names and note titles/content. Notes go through the search
// index when one is configured.
func (s *Store) Search(query string, limit int) SearchResults {
	q := strings.ToLower(strings.TrimSpace(query))
	res := SearchResults{
		Notebooks: []models.Notebook{},
		Documents: []models.Document{},
		Notes:     []index.SearchResult{},
	}

	s.mu.Lock()
	for _, nb := range s.notebooks {
		if strings.Contains(strings.ToLower(nb.Title), q) {
			res.Notebooks = append(res.Notebooks, nb.Clone())
		}
	}
	for _, d := range s.documents {
		if strings.Contains(strings.ToLower(d.Name), q) {
			res.Documents = append(res.Documents, d)
		}
	}
	var scan []index.SearchResult
	for _, n := range s.notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			scan = append(scan, index.SearchResult{NoteID: n.ID, NotebookID: s.owner(n.ID), Title: n.Title, Snippet: snippet(n.Content)})
		}
	}
	s.mu.Unlock()

	if s.index != nil && q != "" {
		hits, err := s.index.Search(query, limit)
		if err == nil {
			if hits != nil {
				res.Notes = hits
			}
			return res
		}
		s.logger.Warn("workspace: index search failed, scanning", slog.String("error", err.Error()))
	}
	if limit > 0 && len(scan) > limit {
		scan = scan[:limit]
	}
	if scan != nil {
		res.Notes = scan
	}
	return res
}

func snippet(content string) string {
	r := []rune(content)
	if len(r) > 200 {
		return string(r[:200])
	}
	return content
}
