// Package worker drains the job queue: it claims due jobs, dispatches
// them by type and writes the outcome back. Deferrals are re-queued
// with a delay and do not consume attempts.
package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/dumps"
	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/joblogs"
	"github.com/libsync/libsync/pkg/models"
	"github.com/libsync/libsync/pkg/updater"
)

var processID = randStringBytes(8)

// retryDelay is how long a failed (but not exhausted) job waits before
// it becomes due again.
const retryDelay = 10 * time.Second

type Worker struct {
	config *config.Config
	log    logger.Logger

	processFuncs map[string]func(ctx context.Context, job *models.Job) error

	jobService    *jobs.Service
	jobLogService *joblogs.Service
	updateService *updater.Service
	importer      *dumps.Importer

	queue          chan *models.Job
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db, staging *bun.DB) *Worker {
	w := &Worker{
		config: cfg,
		log:    logger.New(),

		jobService:    jobs.NewService(db),
		jobLogService: joblogs.NewService(db),
		updateService: updater.NewService(cfg, db, staging),
		importer:      dumps.NewImporter(cfg),

		queue:          make(chan *models.Job, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}

	w.processFuncs = map[string]func(ctx context.Context, job *models.Job) error{
		models.JobTypeRunFullUpdate: w.ProcessRunFullUpdateJob,
		models.JobTypeImportDump:    w.ProcessImportDumpJob,

		models.JobTypeUpdateAuthors:              w.updateFunc(w.updateService.UpdateAuthors),
		models.JobTypeUpdateBooks:                w.updateFunc(w.updateService.UpdateBooks),
		models.JobTypeUpdateBookAuthors:          w.updateFunc(w.updateService.UpdateBookAuthors),
		models.JobTypeUpdateTranslations:         w.updateFunc(w.updateService.UpdateTranslations),
		models.JobTypeUpdateSequences:            w.updateFunc(w.updateService.UpdateSequences),
		models.JobTypeUpdateBookSequences:        w.updateFunc(w.updateService.UpdateBookSequences),
		models.JobTypeUpdateBookAnnotations:      w.updateFunc(w.updateService.UpdateBookAnnotations),
		models.JobTypeUpdateBookAnnotationPics:   w.updateFunc(w.updateService.UpdateBookAnnotationPics),
		models.JobTypeUpdateAuthorAnnotations:    w.updateFunc(w.updateService.UpdateAuthorAnnotations),
		models.JobTypeUpdateAuthorAnnotationPics: w.updateFunc(w.updateService.UpdateAuthorAnnotationPics),
		models.JobTypeUpdateGenres:               w.updateFunc(w.updateService.UpdateGenres),
		models.JobTypeUpdateBookGenres:           w.updateFunc(w.updateService.UpdateBookGenres),
		models.JobTypeWebhookNotify:              w.updateFunc(w.updateService.NotifyWebhooks),
	}

	return w
}

func (w *Worker) Start() {
	go w.fetchJobs()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processJobs()
	}
}

func (w *Worker) fetchJobs() {
	timer := time.NewTimer(w.config.WorkerPollInterval)

	for {
		select {
		case <-w.shutdown:
			// We're shutting down, so stop adding more jobs to the queue.
			w.doneFetching <- struct{}{}
			return
		case <-timer.C:
			w.enqueueDueJobs(context.Background())
			timer.Reset(w.config.WorkerPollInterval)
		}
	}
}

// enqueueDueJobs lists due jobs and claims each one before handing it
// off, so the next poll tick can't list the same job a second time.
func (w *Worker) enqueueDueJobs(ctx context.Context) {
	j, err := w.jobService.ListDueJobs(ctx, jobs.ListDueJobsOptions{
		Limit: pointerutil.Int(w.config.WorkerProcesses),
	})
	if err != nil {
		w.log.Err(err).Error("list due jobs error")
		return
	}

	for _, job := range j {
		job.Status = models.JobStatusInProgress
		job.ProcessID = &processID

		err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
			Columns: []string{"status", "process_id"},
		})
		if err != nil {
			w.log.Err(err).Error("claim job error")
			continue
		}

		w.queue <- job
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			w.processJob(job)
		}
	}
}

func (w *Worker) processJob(job *models.Job) {
	// Prep the context to be passed down to the process function.
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "type": job.Type, "process_id": processID})
	ctx := log.WithContext(context.Background())

	if err := job.UnmarshalData(); err != nil {
		log.Err(err).Error("unmarshal job data error")
		w.finishJob(ctx, job, err)
		return
	}

	// Find and invoke the appropriate process function.
	fn, ok := w.processFuncs[job.Type]
	if !ok {
		log.Error("can't find process function for type")
		w.failJob(ctx, job)
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	err = fn(processCtx, job)
	cancel()

	w.finishJob(ctx, job, err)
}

// finishJob writes the outcome of one processing pass: completed on
// success, deferred with a delay when dependencies were incomplete,
// otherwise retried until the attempt budget runs out.
func (w *Worker) finishJob(ctx context.Context, job *models.Job, processErr error) {
	log := logger.FromContext(ctx)

	if processErr == nil {
		job.Status = models.JobStatusCompleted
		job.ProcessID = nil

		err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
			Columns: []string{"status", "process_id"},
		})
		if err != nil {
			log.Err(err).Error("update job error")
		}
		return
	}

	var deferral *jobs.Deferral
	if errors.As(processErr, &deferral) {
		runAt := time.Now().Add(deferral.Delay)
		job.Status = models.JobStatusDeferred
		job.RunAt = &runAt
		job.ProcessID = nil

		log.Info("job deferred", logger.Data{
			"incomplete": deferral.Incomplete,
			"run_at":     runAt,
		})

		err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
			Columns: []string{"status", "run_at", "process_id"},
		})
		if err != nil {
			log.Err(err).Error("update job error")
		}
		return
	}

	log.Err(processErr).Error("process error")
	w.jobLogService.NewJobLogger(ctx, job.ID, log).Error("job attempt failed", processErr, nil)

	// A broken dump is not transient: retrying replays the same bytes.
	var importErr *dumps.ImportError
	if errors.As(processErr, &importErr) {
		job.Attempts++
		job.Status = models.JobStatusFailed
		job.ProcessID = nil

		err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
			Columns: []string{"status", "attempts", "process_id"},
		})
		if err != nil {
			log.Err(err).Error("update job error")
		}
		return
	}

	w.failJob(ctx, job)
}

// failJob burns an attempt and either re-queues the job or marks it
// failed for good.
func (w *Worker) failJob(ctx context.Context, job *models.Job) {
	log := logger.FromContext(ctx)

	job.Attempts++
	job.ProcessID = nil

	if job.Attempts >= w.config.WorkerMaxAttempts {
		job.Status = models.JobStatusFailed
		log.Error("job failed permanently", logger.Data{"attempts": job.Attempts})
	} else {
		runAt := time.Now().Add(retryDelay)
		job.Status = models.JobStatusPending
		job.RunAt = &runAt
	}

	err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "attempts", "run_at", "process_id"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.doneFetching
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
