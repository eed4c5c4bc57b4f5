package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libsync/libsync/pkg/models"
)

func TestUpdateSequences(t *testing.T) {
	tc := newTestContext(t)
	tc.completeDeps(t, models.JobTypeUpdateSequences, "40")

	tc.stage(t, `INSERT INTO libseqname VALUES (1, 'Трёхтомник;')`)

	require.NoError(t, tc.svc.UpdateSequences(tc.ctx, "40"))

	sequences := []*models.Sequence{}
	err := tc.db.NewSelect().Model(&sequences).Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, sequences, 1)
	assert.Equal(t, "Трехтомник", sequences[0].Name)

	tc.stage(t, `UPDATE libseqname SET SeqName = 'Renamed' WHERE SeqId = 1`)
	require.NoError(t, tc.svc.UpdateSequences(tc.ctx, "40"))

	sequences = []*models.Sequence{}
	err = tc.db.NewSelect().Model(&sequences).Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, sequences, 1)
	assert.Equal(t, "Renamed", sequences[0].Name)
}

func TestUpdateBookSequences(t *testing.T) {
	tc := newTestContext(t)
	tc.completeDeps(t, models.JobTypeUpdateBooks, "41")
	tc.completeDeps(t, models.JobTypeUpdateSequences, "41")
	tc.completeDeps(t, models.JobTypeUpdateBookSequences, "41")

	tc.stage(t, `INSERT INTO libbook VALUES (1, 'One', 'en', 'fb2', '2023-01-01 00:00:00', '0', 10)`)
	tc.stage(t, `INSERT INTO libseqname VALUES (5, 'Series')`)
	tc.stage(t, `INSERT INTO libseq VALUES (1, 5, 2), (99, 5, 1), (1, 77, 3)`)

	require.NoError(t, tc.svc.UpdateBooks(tc.ctx, "41"))
	require.NoError(t, tc.svc.UpdateSequences(tc.ctx, "41"))
	require.NoError(t, tc.svc.UpdateBookSequences(tc.ctx, "41"))

	links := []*models.BookSequence{}
	err := tc.db.NewSelect().Model(&links).Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 2, links[0].Position)

	tc.stage(t, `UPDATE libseq SET SeqNumb = 7 WHERE BookId = 1`)
	require.NoError(t, tc.svc.UpdateBookSequences(tc.ctx, "41"))

	links = []*models.BookSequence{}
	err = tc.db.NewSelect().Model(&links).Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 7, links[0].Position)
}
