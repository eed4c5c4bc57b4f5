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

// UpdateSequences merges staged series names into sequences, keyed by
// (source, remote_id).
func (svc *Service) UpdateSequences(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateSequences], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, "SELECT SeqId, SeqName FROM libseqname")
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	now := time.Now()
	total := 0
	batch := make([]*models.Sequence, 0, relationBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := svc.db.
			NewInsert().
			Model(&batch).
			On("CONFLICT (source, remote_id) DO UPDATE").
			Set("name = EXCLUDED.name").
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
		var name string
		if err := rows.Scan(&remoteID, &name); err != nil {
			return errors.WithStack(err)
		}

		batch = append(batch, &models.Sequence{
			CreatedAt: now,
			UpdatedAt: now,
			Source:    source,
			RemoteID:  remoteID,
			Name:      textutil.CleanPlainText(name),
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

	log.Info("sequences updated", logger.Data{"count": total})
	return nil
}

// UpdateBookSequences places books inside sequences at ordinal
// positions. A repeated pair keeps its row and takes the latest
// position.
func (svc *Service) UpdateBookSequences(ctx context.Context, prefix string) error {
	if err := svc.checkDependencies(ctx, Dependencies[models.JobTypeUpdateBookSequences], prefix); err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	source, err := svc.source(ctx)
	if err != nil {
		return err
	}

	rows, err := svc.staging.QueryContext(ctx, `
		SELECT BookId, SeqId, SeqNumb FROM libseq
		WHERE BookId IN (SELECT BookId FROM libbook)
		AND SeqId IN (SELECT SeqId FROM libseqname)`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	type link struct {
		bookID     int
		sequenceID int
		position   int
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
					INSERT INTO book_sequences (book, sequence, position)
					SELECT b.id, s.id, ? FROM books b, sequences s
					WHERE b.source = ? AND b.remote_id = ? AND s.source = ? AND s.remote_id = ?
					ON CONFLICT (book, sequence) DO UPDATE SET position = EXCLUDED.position`,
					l.position, source, l.bookID, source, l.sequenceID)
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
		if err := rows.Scan(&l.bookID, &l.sequenceID, &l.position); err != nil {
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

	log.Info("book sequences updated", logger.Data{"count": total})
	return nil
}
