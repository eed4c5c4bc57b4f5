// Package updater implements the refresh pipeline: dependency-gated,
// chunked, idempotent merges of staged remote rows into the normalized
// store, keyed by (source, remote_id).
package updater

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/models"
)

// Batch sizes for streaming staged rows. Wide text rows go through in
// smaller chunks than narrow id-pair rows.
const (
	bookBatchSize     = 1024
	relationBatchSize = 4096
)

// runWindow is the bucket the run prefix is derived from. Two triggers
// inside the same window share a prefix and therefore the same jobs.
const runWindow = 5 * time.Minute

// RunPrefix computes the namespace shared by every job of one refresh.
func RunPrefix(now time.Time) string {
	return strconv.FormatInt(now.Unix()/int64(runWindow/time.Second), 10)
}

type Service struct {
	cfg        *config.Config
	db         *bun.DB
	staging    *bun.DB
	jobService *jobs.Service
}

// NewService wires the updater against the normalized store, the
// staging store and the job queue (which lives in the normalized
// store's database).
func NewService(cfg *config.Config, db, staging *bun.DB) *Service {
	return &Service{
		cfg:        cfg,
		db:         db,
		staging:    staging,
		jobService: jobs.NewService(db),
	}
}

// checkDependencies gates a unit on its declared predecessors for this
// run. Incomplete predecessors surface as a Deferral, never as a hard
// failure.
func (svc *Service) checkDependencies(ctx context.Context, deps []string, prefix string) error {
	met, incomplete, err := svc.jobService.DependenciesMet(ctx, deps, prefix)
	if err != nil {
		return err
	}
	if !met {
		return jobs.Defer(incomplete)
	}
	return nil
}

// source resolves the configured sources row, creating it on first use.
func (svc *Service) source(ctx context.Context) (int, error) {
	src := &models.Source{}

	err := svc.db.
		NewSelect().
		Model(src).
		Where("src.name = ?", svc.cfg.SourceName).
		Scan(ctx)
	if err == nil {
		return src.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.WithStack(err)
	}

	_, err = svc.db.
		NewInsert().
		Model(&models.Source{Name: svc.cfg.SourceName}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	// Re-select rather than trusting the insert: a concurrent unit may
	// have won the conflict.
	src = &models.Source{}
	err = svc.db.
		NewSelect().
		Model(src).
		Where("src.name = ?", svc.cfg.SourceName).
		Scan(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return src.ID, nil
}
