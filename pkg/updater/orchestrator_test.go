package updater

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/models"
)

func TestEnqueueFullUpdate(t *testing.T) {
	tc := newTestContext(t)

	prefix, err := tc.svc.EnqueueFullUpdate(tc.ctx)
	require.NoError(t, err)
	assert.Equal(t, RunPrefix(time.Now()), prefix)

	allJobs, err := tc.jobService.ListJobs(tc.ctx, jobs.ListJobsOptions{})
	require.NoError(t, err)
	require.Len(t, allJobs, len(ImportFiles)+len(UpdateUnits))

	byID := map[string]*models.Job{}
	for _, job := range allJobs {
		assert.Equal(t, models.JobStatusPending, job.Status)
		byID[job.ID] = job
	}

	importJob, ok := byID[prefix+"_"+JobIDImportBooks]
	require.True(t, ok)
	assert.Equal(t, models.JobTypeImportDump, importJob.Type)
	assert.Equal(t, &models.JobImportData{Filename: "lib.libbook.sql"}, importJob.DataParsed)

	updateJob, ok := byID[prefix+"_"+models.JobTypeUpdateAuthors]
	require.True(t, ok)
	assert.Equal(t, models.JobTypeUpdateAuthors, updateJob.Type)
	assert.Equal(t, &models.JobUpdateData{Prefix: prefix}, updateJob.DataParsed)

	webhookJob, ok := byID[prefix+"_"+models.JobTypeWebhookNotify]
	require.True(t, ok)
	assert.Equal(t, models.JobTypeWebhookNotify, webhookJob.Type)

	// Triggering again inside the same run window adds nothing.
	_, err = tc.svc.EnqueueFullUpdate(tc.ctx)
	require.NoError(t, err)

	allJobs, err = tc.jobService.ListJobs(tc.ctx, jobs.ListJobsOptions{})
	require.NoError(t, err)
	assert.Len(t, allJobs, len(ImportFiles)+len(UpdateUnits))
}

func TestWebhookDependenciesCoverTheWholeGraph(t *testing.T) {
	t.Parallel()

	deps := WebhookDependencies()
	assert.Len(t, deps, len(ImportFiles)+len(UpdateUnits)-1)
	assert.NotContains(t, deps, models.JobTypeWebhookNotify)
	assert.Contains(t, deps, JobIDImportBooks)
	assert.Contains(t, deps, models.JobTypeUpdateBookGenres)
}

// The walkthrough from a fresh run: imports complete one by one and the
// units defer with a delay proportional to what is still missing.
func TestDependencyGatingAcrossARun(t *testing.T) {
	tc := newTestContext(t)
	prefix := "60"

	// Nothing has run: update_book_authors waits on an import and two
	// units, so its deferral counts three incomplete dependencies.
	err := tc.svc.UpdateBookAuthors(tc.ctx, prefix)
	var deferral *jobs.Deferral
	require.ErrorAs(t, err, &deferral)
	assert.Equal(t, 3, deferral.Incomplete)
	assert.Equal(t, 3*jobs.BaseDeferDelay, deferral.Delay)

	// The author-name import finishes; update_authors can run.
	tc.completeJobs(t, prefix, JobIDImportAuthorNames)
	require.NoError(t, tc.svc.UpdateAuthors(tc.ctx, prefix))

	// Book import and both entity units done: only the link import is
	// still missing.
	tc.completeJobs(t, prefix, JobIDImportBooks,
		models.JobTypeUpdateAuthors, models.JobTypeUpdateBooks)

	err = tc.svc.UpdateBookAuthors(tc.ctx, prefix)
	require.ErrorAs(t, err, &deferral)
	assert.Equal(t, 1, deferral.Incomplete)
	assert.Equal(t, jobs.BaseDeferDelay, deferral.Delay)

	tc.completeJobs(t, prefix, JobIDImportAuthorLinks)
	require.NoError(t, tc.svc.UpdateBookAuthors(tc.ctx, prefix))
}
