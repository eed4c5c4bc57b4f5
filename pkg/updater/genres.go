package updater

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/models"
)

// UpdateGenres merges the staged genre catalog into genres, keyed by
// (source, remote_id). Genre codes and descriptions come through as-is.
func (svc *Service) UpdateGenres(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateGenres], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx,
		"SELECT GenreId, GenreCode, GenreDesc, GenreMeta FROM libgenrelist")
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	now := time.Now()
	total := 0
	batch := make([]*models.Genre, 0, relationBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := svc.db.
			NewInsert().
			Model(&batch).
			On("CONFLICT (source, remote_id) DO UPDATE").
			Set("code = EXCLUDED.code").
			Set("description = EXCLUDED.description").
			Set("meta = EXCLUDED.meta").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		var remoteID int
		var code, description, meta string
		if err := rows.Scan(&remoteID, &code, &description, &meta); err != nil {
			return errors.WithStack(err)
		}

		batch = append(batch, &models.Genre{
			CreatedAt:   now,
			UpdatedAt:   now,
			Source:      source,
			RemoteID:    remoteID,
			Code:        code,
			Description: description,
			Meta:        meta,
		})

		if len(batch) == relationBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := flush(); err != nil {
		return err
	}

	log.Info("genres updated", logger.Data{"count": total})
	return nil
}

// UpdateBookGenres links books to genres. Insert-only.
func (svc *Service) UpdateBookGenres(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateBookGenres], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, "SELECT BookId, GenreId FROM libgenre")
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	type link struct {
		bookID  int
		genreID int
	}

	total := 0
	batch := make([]link, 0, relationBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, l := range batch {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO book_genres (book, genre)
					SELECT b.id, g.id FROM books b, genres g
					WHERE b.source = ? AND b.remote_id = ? AND g.source = ? AND g.remote_id = ?
					ON CONFLICT (book, genre) DO NOTHING`,
					source, l.bookID, source, l.genreID)
				if err != nil {
					return errors.WithStack(err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		var l link
		if err := rows.Scan(&l.bookID, &l.genreID); err != nil {
			return errors.WithStack(err)
		}
		batch = append(batch, l)
		if len(batch) == relationBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := flush(); err != nil {
		return err
	}

	log.Info("book genres updated", logger.Data{"count": total})
	return nil
}
