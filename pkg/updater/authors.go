package updater

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/models"
	"github.com/libsync/libsync/pkg/textutil"
)

// UpdateAuthors merges staged author-name rows into authors, keyed by
// (source, remote_id).
func (svc *Service) UpdateAuthors(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateAuthors], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx,
		"SELECT AvtorId, FirstName, LastName, MiddleName FROM libavtorname")
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	now := time.Now()
	total := 0
	batch := make([]*models.Author, 0, relationBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := svc.db.
			NewInsert().
			Model(&batch).
			On("CONFLICT (source, remote_id) DO UPDATE").
			Set("first_name = EXCLUDED.first_name").
			Set("last_name = EXCLUDED.last_name").
			Set("middle_name = EXCLUDED.middle_name").
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
		var firstName, lastName, middleName string
		if err := rows.Scan(&remoteID, &firstName, &lastName, &middleName); err != nil {
			return errors.WithStack(err)
		}

		batch = append(batch, &models.Author{
			CreatedAt:  now,
			UpdatedAt:  now,
			Source:     source,
			RemoteID:   remoteID,
			FirstName:  textutil.CleanPlainText(firstName),
			LastName:   textutil.CleanPlainText(lastName),
			MiddleName: textutil.CleanPlainText(middleName),
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

	log.Info("authors updated", logger.Data{"count": total})
	return nil
}

// UpdateAuthorAnnotations merges staged author blurbs, one row per
// author. Rows whose author is unknown in this source resolve to
// nothing and are dropped.
func (svc *Service) UpdateAuthorAnnotations(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateAuthorAnnotations], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx,
		"SELECT AvtorId, Title, Body FROM libaannotations")
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
					INSERT INTO author_annotations (author, title, text)
					SELECT a.id, ?, ? FROM authors a WHERE a.source = ? AND a.remote_id = ?
					ON CONFLICT (author) DO UPDATE SET title = EXCLUDED.title, text = EXCLUDED.text`,
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

	log.Info("author annotations updated", logger.Data{"count": total})
	return nil
}

// UpdateAuthorAnnotationPics runs after the annotation rows exist and
// points each at its picture under {base_url}/ia/.
func (svc *Service) UpdateAuthorAnnotationPics(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateAuthorAnnotationPics], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, "SELECT AvtorId, File FROM libapics")
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
					UPDATE author_annotations SET file = ?
					WHERE author IN (SELECT id FROM authors WHERE source = ? AND remote_id = ?)`,
					svc.cfg.RemoteBaseURL+"/ia/"+p.file, source, p.remoteID)
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

	log.Info("author annotation pictures updated", logger.Data{"count": total})
	return nil
}
