package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) Gateway {
	t.Helper()
	db, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return NewGateway(db)
}

// Ingesting the same paper twice yields one row and one edge set.
func TestGateway_IdempotentIngest(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	id1, err := gw.IngestPaperTx(ctx, NewPaper{URL: "u1", Title: "T", Description: "D", Body: "B"}, []string{"A"}, []string{"X"})
	require.NoError(t, err)

	id2, err := gw.IngestPaperTx(ctx, NewPaper{URL: "u1", Title: "T", Description: "D", Body: "B"}, []string{"A"}, []string{"X"})
	require.NoError(t, err)

	require.Equal(t, id1, id2)

	count, err := gw.CountPapers(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	authors, err := gw.GetPaperAuthors(ctx, id1)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	require.Equal(t, "A", authors[0].Name)

	paper, err := gw.GetPaper(ctx, id1)
	require.NoError(t, err)
	require.Len(t, paper.Subjects, 1)
	require.Equal(t, "X", paper.Subjects[0].Name)
}

func TestGateway_PaperExists(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	exists, err := gw.PaperExists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = gw.IngestPaperTx(ctx, NewPaper{URL: "present"}, nil, nil)
	require.NoError(t, err)

	exists, err = gw.PaperExists(ctx, "present")
	require.NoError(t, err)
	require.True(t, exists)
}

// A failure partway through ingestion rolls back every row and edge
// the transaction touched.
func TestGateway_IngestRollsBackOnFailure(t *testing.T) {
	db, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	gw := NewGateway(db)
	ctx := context.Background()

	// Break the final step: with the join table gone, the subject link
	// insert fails after the paper, author, and subject rows are in.
	require.NoError(t, db.Exec(`DROP TABLE paper_subject`).Error)

	_, err = gw.IngestPaperTx(ctx, NewPaper{URL: "u-fail", Title: "T"}, []string{"A"}, []string{"X"})
	require.Error(t, err)

	count, err := gw.CountPapers(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	var authors int64
	require.NoError(t, db.Model(&Author{}).Count(&authors).Error)
	require.Zero(t, authors)

	var subjects int64
	require.NoError(t, db.Model(&Subject{}).Count(&subjects).Error)
	require.Zero(t, subjects)

	var links int64
	require.NoError(t, db.Table("paper_author").Count(&links).Error)
	require.Zero(t, links)
}

func TestGateway_EmptyBodyStillRecorded(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	id, err := gw.InsertPaper(ctx, "empty-body", "T", "D", "")
	require.NoError(t, err)
	require.NotZero(t, id)

	paper, err := gw.GetPaper(ctx, id)
	require.NoError(t, err)
	require.Empty(t, paper.Body)
}
