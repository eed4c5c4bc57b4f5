package updater

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/models"
	"github.com/libsync/libsync/pkg/textutil"
)

// UpdateBooks merges staged book rows into books, keyed by
// (source, remote_id). Deleted books stay in the store with is_deleted
// set so downstream links keep resolving.
func (svc *Service) UpdateBooks(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateBooks], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx,
		"SELECT BookId, Title, Lang, FileType, Time, Deleted, Pages FROM libbook")
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	now := time.Now()
	total := 0
	batch := make([]*models.Book, 0, bookBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := svc.db.
			NewInsert().
			Model(&batch).
			On("CONFLICT (source, remote_id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("lang = EXCLUDED.lang").
			Set("file_type = EXCLUDED.file_type").
			Set("uploaded = EXCLUDED.uploaded").
			Set("is_deleted = EXCLUDED.is_deleted").
			Set("pages = EXCLUDED.pages").
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
		var remoteID, pages int
		var title, lang, fileType, deleted string
		var uploaded sql.NullTime
		if err := rows.Scan(&remoteID, &title, &lang, &fileType, &uploaded, &deleted, &pages); err != nil {
			return errors.WithStack(err)
		}

		batch = append(batch, &models.Book{
			CreatedAt: now,
			UpdatedAt: now,
			Source:    source,
			RemoteID:  remoteID,
			Title:     textutil.CleanPlainText(title),
			Lang:      textutil.NormalizeLanguage(lang),
			FileType:  fileType,
			Uploaded:  uploaded.Time,
			IsDeleted: deleted == "1",
			Pages:     pages,
		})

		if len(batch) == bookBatchSize {
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

	log.Info("books updated", logger.Data{"count": total})
	return nil
}

// UpdateBookAnnotations merges staged book blurbs, one row per book.
// Rows whose book is unknown in this source resolve to nothing and are
// dropped.
func (svc *Service) UpdateBookAnnotations(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateBookAnnotations], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, `
		SELECT BookId, Title, Body FROM libbannotations
		WHERE BookId IN (SELECT BookId FROM libbook)`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	type annotation struct {
		remoteID int
		title    string
		text     string
	}

	total := 0
	batch := make([]annotation, 0, bookBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, ann := range batch {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO book_annotations (book, title, text)
					SELECT b.id, ?, ? FROM books b WHERE b.source = ? AND b.remote_id = ?
					ON CONFLICT (book) DO UPDATE SET title = EXCLUDED.title, text = EXCLUDED.text`,
					ann.title, ann.text, source, ann.remoteID)
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
		var ann annotation
		if err := rows.Scan(&ann.remoteID, &ann.title, &ann.text); err != nil {
			return errors.WithStack(err)
		}
		ann.text = textutil.CleanAnnotationText(ann.text)

		batch = append(batch, ann)
		if len(batch) == bookBatchSize {
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

	log.Info("book annotations updated", logger.Data{"count": total})
	return nil
}

// UpdateBookAnnotationPics runs after the annotation rows exist and
// points each at its cover picture under {base_url}/i/.
func (svc *Service) UpdateBookAnnotationPics(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateBookAnnotationPics], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, `
		SELECT BookId, File FROM libbpics
		WHERE BookId IN (SELECT BookId FROM libbook)`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	type pic struct {
		remoteID int
		file     string
	}

	total := 0
	batch := make([]pic, 0, relationBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, p := range batch {
				_, err := tx.ExecContext(ctx, `
					UPDATE book_annotations SET file = ?
					WHERE book IN (SELECT id FROM books WHERE source = ? AND remote_id = ?)`,
					svc.cfg.RemoteBaseURL+"/i/"+p.file, source, p.remoteID)
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
		var p pic
		if err := rows.Scan(&p.remoteID, &p.file); err != nil {
			return errors.WithStack(err)
		}
		batch = append(batch, p)
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

	log.Info("book annotation pictures updated", logger.Data{"count": total})
	return nil
}
