package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"

	"github.com/libsync/libsync/pkg/models"
)

// Scheduler enqueues one run_full_update job per day at the configured
// hour (UTC).
type Scheduler struct {
	worker *Worker

	shutdown chan struct{}
	done     chan struct{}
}

func NewScheduler(w *Worker) *Scheduler {
	return &Scheduler{
		worker:   w,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) run() {
	timer := time.NewTimer(untilNextRun(time.Now().UTC(), s.worker.config.UpdateHour))

	for {
		select {
		case <-s.shutdown:
			timer.Stop()
			s.done <- struct{}{}
			return
		case <-timer.C:
			s.enqueueRun()
			timer.Reset(untilNextRun(time.Now().UTC(), s.worker.config.UpdateHour))
		}
	}
}

func (s *Scheduler) enqueueRun() {
	log := s.worker.log
	ctx := log.WithContext(context.Background())

	job := &models.Job{
		ID:   uuid.New().String(),
		Type: models.JobTypeRunFullUpdate,
	}

	if err := s.worker.jobService.Enqueue(ctx, job); err != nil {
		log.Err(err).Error("enqueue scheduled run error")
		return
	}

	log.Info("scheduled run enqueued", logger.Data{"job_id": job.ID})
}

func (s *Scheduler) Shutdown() {
	close(s.shutdown)
	<-s.done
}

// untilNextRun computes the wait until the next occurrence of hour on
// the clock of now, rolling over to tomorrow when the hour has passed.
func untilNextRun(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
