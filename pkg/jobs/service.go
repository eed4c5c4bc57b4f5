package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/errcodes"
	"github.com/libsync/libsync/pkg/models"
)

type RetrieveJobOptions struct {
	ID *string
}

type ListJobsOptions struct {
	Limit    *int
	Offset   *int
	Statuses []string
	Type     *string

	includeTotal bool
}

type ListDueJobsOptions struct {
	Limit              *int
	ProcessIDToExclude *string
}

type UpdateJobOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Enqueue inserts a job. Enqueueing an id that already exists is a
// no-op, which is what makes re-triggering a refresh inside the same
// run window safe.
func (svc *Service) Enqueue(ctx context.Context, job *models.Job) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = job.CreatedAt
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}

	if job.Data == "" && job.DataParsed != nil {
		// Marshal the data into a JSON string to save into the database.
		data, err := json.Marshal(job.DataParsed)
		if err != nil {
			return errors.WithStack(err)
		}
		job.Data = string(data)
	}
	if job.Data == "" {
		job.Data = "{}"
	}

	_, err := svc.db.
		NewInsert().
		Model(job).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Status reports the status of a job id, JobStatusNotFound when no such
// row exists.
func (svc *Service) Status(ctx context.Context, id string) (string, error) {
	job := &models.Job{}

	err := svc.db.
		NewSelect().
		Model(job).
		Column("j.status").
		Where("j.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JobStatusNotFound, nil
		}
		return "", errors.WithStack(err)
	}

	return job.Status, nil
}

func (svc *Service) RetrieveJob(ctx context.Context, opts RetrieveJobOptions) (*models.Job, error) {
	job := &models.Job{}

	q := svc.db.
		NewSelect().
		Model(job)

	if opts.ID != nil {
		q = q.Where("j.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Job")
		}
		return nil, errors.WithStack(err)
	}

	if job.Data != "" {
		// Unmarshal the data into a struct to be returned.
		err := job.UnmarshalData()
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return job, nil
}

func (svc *Service) ListJobs(ctx context.Context, opts ListJobsOptions) ([]*models.Job, error) {
	j, _, err := svc.listJobsWithTotal(ctx, opts)
	return j, errors.WithStack(err)
}

func (svc *Service) ListJobsWithTotal(ctx context.Context, opts ListJobsOptions) ([]*models.Job, int, error) {
	opts.includeTotal = true
	return svc.listJobsWithTotal(ctx, opts)
}

func (svc *Service) listJobsWithTotal(ctx context.Context, opts ListJobsOptions) ([]*models.Job, int, error) {
	jobs := []*models.Job{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&jobs).
		Order("j.created_at ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Statuses != nil {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			for _, s := range opts.Statuses {
				sq = sq.WhereOr("j.status = ?", s)
			}
			return sq
		})
	}
	if opts.Type != nil {
		q = q.Where("j.type = ?", *opts.Type)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, job := range jobs {
		err := job.UnmarshalData()
		if err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}

	return jobs, total, nil
}

// ListDueJobs returns jobs ready to be picked up by a worker: pending
// or deferred, with no run_at still in the future.
func (svc *Service) ListDueJobs(ctx context.Context, opts ListDueJobsOptions) ([]*models.Job, error) {
	jobs := []*models.Job{}

	q := svc.db.
		NewSelect().
		Model(&jobs).
		Order("j.created_at ASC").
		WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("j.status = ?", models.JobStatusPending).
				WhereOr("j.status = ?", models.JobStatusDeferred)
		}).
		WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("j.run_at IS NULL").
				WhereOr("j.run_at <= ?", time.Now())
		})

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.ProcessIDToExclude != nil {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("j.process_id IS NULL").
				WhereOr("j.process_id != ?", *opts.ProcessIDToExclude)
		})
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, job := range jobs {
		err := job.UnmarshalData()
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return jobs, nil
}

func (svc *Service) UpdateJob(ctx context.Context, job *models.Job, opts UpdateJobOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	// Update updated_at.
	now := time.Now()
	job.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(job).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Job")
		}
		return errors.WithStack(err)
	}

	return nil
}
