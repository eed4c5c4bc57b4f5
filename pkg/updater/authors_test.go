package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/models"
)

func TestUpdateAuthorsDefersUntilImportDone(t *testing.T) {
	tc := newTestContext(t)

	err := tc.svc.UpdateAuthors(tc.ctx, "10")
	var deferral *jobs.Deferral
	require.ErrorAs(t, err, &deferral)
	assert.Equal(t, 1, deferral.Incomplete)
}

func TestUpdateAuthors(t *testing.T) {
	tc := newTestContext(t)
	tc.completeDeps(t, models.JobTypeUpdateAuthors, "10")

	tc.stage(t, `INSERT INTO libavtorname VALUES (1, 'Артём;', 'Иванов', ''), (2, 'Anna', 'Smith', 'J')`)

	require.NoError(t, tc.svc.UpdateAuthors(tc.ctx, "10"))

	authors := []*models.Author{}
	err := tc.db.NewSelect().Model(&authors).Order("a.remote_id ASC").Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, authors, 2)

	// Names are cleaned: ё to е, semicolons stripped.
	assert.Equal(t, "Артем", authors[0].FirstName)
	assert.Equal(t, "Иванов", authors[0].LastName)
	assert.Equal(t, 1, authors[0].RemoteID)
	assert.Equal(t, "Anna", authors[1].FirstName)

	// A second run with changed staging data overwrites in place.
	tc.stage(t, `UPDATE libavtorname SET LastName = 'Петров' WHERE AvtorId = 1`)
	require.NoError(t, tc.svc.UpdateAuthors(tc.ctx, "10"))

	authors = []*models.Author{}
	err = tc.db.NewSelect().Model(&authors).Order("a.remote_id ASC").Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Петров", authors[0].LastName)
}

func TestUpdateAuthorAnnotations(t *testing.T) {
	tc := newTestContext(t)
	tc.completeDeps(t, models.JobTypeUpdateAuthors, "11")
	tc.completeDeps(t, models.JobTypeUpdateAuthorAnnotations, "11")

	tc.stage(t, `INSERT INTO libavtorname VALUES (1, 'Anna', 'Smith', '')`)
	require.NoError(t, tc.svc.UpdateAuthors(tc.ctx, "11"))

	tc.stage(t, `INSERT INTO libaannotations VALUES
		(1, 'About Anna', '<p>Writer.</p>&nbsp;[b]Poet.[/b]'),
		(99, 'Unknown', 'No such author')`)

	require.NoError(t, tc.svc.UpdateAuthorAnnotations(tc.ctx, "11"))

	annotations := []*models.AuthorAnnotation{}
	err := tc.db.NewSelect().Model(&annotations).Scan(tc.ctx)
	require.NoError(t, err)
	// The row for the unknown author resolves to nothing and is dropped.
	require.Len(t, annotations, 1)
	assert.Equal(t, "About Anna", annotations[0].Title)
	assert.Equal(t, "Writer.Poet.", annotations[0].Text)
	assert.Nil(t, annotations[0].File)

	// Rerun overwrites the body.
	tc.stage(t, `UPDATE libaannotations SET Body = 'Updated.' WHERE AvtorId = 1`)
	require.NoError(t, tc.svc.UpdateAuthorAnnotations(tc.ctx, "11"))

	annotations = []*models.AuthorAnnotation{}
	err = tc.db.NewSelect().Model(&annotations).Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, "Updated.", annotations[0].Text)
}

func TestUpdateAuthorAnnotationPics(t *testing.T) {
	tc := newTestContext(t)
	tc.completeDeps(t, models.JobTypeUpdateAuthors, "12")
	tc.completeDeps(t, models.JobTypeUpdateAuthorAnnotations, "12")
	tc.completeDeps(t, models.JobTypeUpdateAuthorAnnotationPics, "12")

	tc.stage(t, `INSERT INTO libavtorname VALUES (1, 'Anna', 'Smith', '')`)
	tc.stage(t, `INSERT INTO libaannotations VALUES (1, 'About Anna', 'Writer.')`)
	tc.stage(t, `INSERT INTO libapics VALUES (1, 'anna.jpg')`)

	require.NoError(t, tc.svc.UpdateAuthors(tc.ctx, "12"))
	require.NoError(t, tc.svc.UpdateAuthorAnnotations(tc.ctx, "12"))
	require.NoError(t, tc.svc.UpdateAuthorAnnotationPics(tc.ctx, "12"))

	annotations := []*models.AuthorAnnotation{}
	err := tc.db.NewSelect().Model(&annotations).Scan(tc.ctx)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	require.NotNil(t, annotations[0].File)
	assert.Equal(t, "http://remote.example/ia/anna.jpg", *annotations[0].File)
}
