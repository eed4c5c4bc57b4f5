package updater

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/models"
)

// UpdateBookAuthors links books to authors. Both ends are resolved by
// (source, remote_id); pairs where either end is unknown resolve to
// nothing and are dropped. Links are insert-only.
func (svc *Service) UpdateBookAuthors(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateBookAuthors], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, "SELECT BookId, AvtorId FROM libavtor")
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	type link struct {
		bookID   int
		authorID int
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
					INSERT INTO book_authors (book, author)
					SELECT b.id, a.id FROM books b, authors a
					WHERE b.source = ? AND b.remote_id = ? AND a.source = ? AND a.remote_id = ?
					ON CONFLICT (book, author) DO NOTHING`,
					source, l.bookID, source, l.authorID)
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
		if err := rows.Scan(&l.bookID, &l.authorID); err != nil {
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

	log.Info("book authors updated", logger.Data{"count": total})
	return nil
}

// UpdateTranslations links books to their translators with an ordinal
// position. A repeated pair keeps its row and takes the latest position.
func (svc *Service) UpdateTranslations(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateTranslations], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, `
		SELECT BookId, TranslatorId, Pos FROM libtranslator
		WHERE BookId IN (SELECT BookId FROM libbook)`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	type link struct {
		bookID   int
		authorID int
		position int
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
					INSERT INTO translations (book, author, position)
					SELECT b.id, a.id, ? FROM books b, authors a
					WHERE b.source = ? AND b.remote_id = ? AND a.source = ? AND a.remote_id = ?
					ON CONFLICT (book, author) DO UPDATE SET position = EXCLUDED.position`,
					l.position, source, l.bookID, source, l.authorID)
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
		if err := rows.Scan(&l.bookID, &l.authorID, &l.position); err != nil {
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

	log.Info("translations updated", logger.Data{"count": total})
	return nil
}
