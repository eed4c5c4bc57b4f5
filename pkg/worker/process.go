package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/libsync/libsync/pkg/dumps"
	"github.com/libsync/libsync/pkg/models"
)

// ProcessRunFullUpdateJob seeds a refresh run. The heavy lifting
// happens in the jobs it enqueues.
func (w *Worker) ProcessRunFullUpdateJob(ctx context.Context, _ *models.Job) error {
	log := logger.FromContext(ctx)

	prefix, err := w.updateService.EnqueueFullUpdate(ctx)
	if err != nil {
		return err
	}

	log.Info("finished run job", logger.Data{"prefix": prefix})
	return nil
}

// ProcessImportDumpJob loads one remote dump file into the staging
// database. Loader output is persisted to the job's logs on failure so
// a broken dump can be diagnosed over the API.
func (w *Worker) ProcessImportDumpJob(ctx context.Context, job *models.Job) error {
	data, ok := job.DataParsed.(*models.JobImportData)
	if !ok {
		return errors.New("unexpected data type for import job")
	}

	err := w.importer.Import(ctx, data.Filename)

	var importErr *dumps.ImportError
	if errors.As(err, &importErr) {
		jobLog := w.jobLogService.NewJobLogger(ctx, job.ID, logger.FromContext(ctx))
		jobLog.Error("dump import failed", err, logger.Data{
			"filename": importErr.Filename,
			"output":   importErr.Output,
		})
	}

	return err
}

// updateFunc adapts an upsert unit to a process function, pulling the
// run prefix out of the job payload.
func (w *Worker) updateFunc(fn func(ctx context.Context, prefix string) error) func(ctx context.Context, job *models.Job) error {
	return func(ctx context.Context, job *models.Job) error {
		data, ok := job.DataParsed.(*models.JobUpdateData)
		if !ok {
			return errors.New("unexpected data type for update job")
		}
		return fn(ctx, data.Prefix)
	}
}
