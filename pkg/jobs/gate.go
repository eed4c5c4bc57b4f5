package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/libsync/libsync/pkg/models"
)

// BaseDeferDelay is multiplied by the number of incomplete dependencies
// to produce a deferral delay, so a job blocked by many pending
// ancestors polls less often than one waiting on a single import.
const BaseDeferDelay = 60 * time.Second

// Deferral is the retriable "failure" a unit returns when its
// dependencies are not complete yet. The worker re-queues the job
// instead of counting an attempt.
type Deferral struct {
	Incomplete int
	Delay      time.Duration
}

func (d *Deferral) Error() string {
	return fmt.Sprintf("%d dependencies incomplete, deferring for %s", d.Incomplete, d.Delay)
}

// Defer builds a Deferral with the delay scaled by the incomplete
// dependency count.
func Defer(incomplete int) *Deferral {
	return &Deferral{
		Incomplete: incomplete,
		Delay:      BaseDeferDelay * time.Duration(incomplete),
	}
}

// DependenciesMet checks the status of every given job id, namespaced
// with the run prefix when one is set. A dependency counts as
// incomplete while its status is not_found, deferred, pending or
// in_progress; completed and failed both unblock the caller.
func (svc *Service) DependenciesMet(ctx context.Context, jobIDs []string, prefix string) (bool, int, error) {
	incomplete := 0

	for _, jobID := range jobIDs {
		if prefix != "" {
			jobID = prefix + "_" + jobID
		}

		status, err := svc.Status(ctx, jobID)
		if err != nil {
			return false, 0, err
		}

		switch status {
		case models.JobStatusNotFound,
			models.JobStatusDeferred,
			models.JobStatusPending,
			models.JobStatusInProgress:
			incomplete++
		}
	}

	return incomplete == 0, incomplete, nil
}
