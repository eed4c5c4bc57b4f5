package updater

import (
	"context"
	"time"

	"github.com/robinjoseph08/golib/logger"

	"github.com/libsync/libsync/pkg/models"
)

// EnqueueFullUpdate seeds one refresh: every import job plus every
// upsert unit, all namespaced by the run prefix. Triggering again
// inside the same run window enqueues the same ids, which the queue
// absorbs as no-ops. Returns the prefix of the run.
func (svc *Service) EnqueueFullUpdate(ctx context.Context) (string, error) {
	prefix := RunPrefix(time.Now())
	log := logger.FromContext(ctx)

	for jobID, filename := range ImportFiles {
		job := &models.Job{
			ID:         prefix + "_" + jobID,
			Type:       models.JobTypeImportDump,
			DataParsed: &models.JobImportData{Filename: filename},
		}
		if err := svc.jobService.Enqueue(ctx, job); err != nil {
			return "", err
		}
	}

	for _, unit := range UpdateUnits {
		job := &models.Job{
			ID:         prefix + "_" + unit,
			Type:       unit,
			DataParsed: &models.JobUpdateData{Prefix: prefix},
		}
		if err := svc.jobService.Enqueue(ctx, job); err != nil {
			return "", err
		}
	}

	log.Info("full update enqueued", logger.Data{"prefix": prefix})
	return prefix, nil
}
