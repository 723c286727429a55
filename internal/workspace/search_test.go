package workspace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/workspace"
)

func TestSearchScan(t *testing.T) {
	s, _ := testutil.TestStore(t)
	nb := s.CreateNotebook("Quarterly Review")
	_, err := s.CreateNote(nb.ID, "Budget", "quarterly numbers")
	require.NoError(t, err)
	_, err = s.CreateNote(nb.ID, "Other", "unrelated")
	require.NoError(t, err)
	_, err = s.UploadDocument(context.Background(), workspace.Upload{Name: "quarterly.pdf"})
	require.NoError(t, err)

	res := s.Search("QUARTERLY", 10)
	require.Len(t, res.Notebooks, 1)
	require.Len(t, res.Documents, 1)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, "Budget", res.Notes[0].Title)
	assert.Equal(t, nb.ID, res.Notes[0].NotebookID)
}

func TestSearchThroughIndex(t *testing.T) {
	db := testutil.TestDB(t)
	s, _ := testutil.TestStore(t, workspace.WithIndex(db))
	nb := s.CreateNotebook("Work")
	n, err := s.CreateNote(nb.ID, "Roadmap", "milestones for the launch")
	require.NoError(t, err)

	res := s.Search("milestones", 10)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, n.ID, res.Notes[0].NoteID)

	require.NoError(t, s.DeleteNote(n.ID))
	res = s.Search("milestones", 10)
	assert.Empty(t, res.Notes)
}

func TestSearchNoMatches(t *testing.T) {
	s, _ := testutil.TestStore(t)
	res := s.Search("nothing-here", 10)
	assert.Empty(t, res.Notebooks)
	assert.Empty(t, res.Documents)
	assert.NotNil(t, res.Notes)
}
