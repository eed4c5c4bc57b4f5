package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// serialPK returns the auto-incrementing integer primary key column for
// the connected dialect. Production runs on Postgres, tests on SQLite.
func serialPK(db *bun.DB) string {
	if db.Dialect().Name() == dialect.PG {
		return "id SERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		pk := serialPK(db)

		stmts := []string{
			`CREATE TABLE sources (
				` + pk + `,
				name TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE authors (
				` + pk + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				source INTEGER NOT NULL REFERENCES sources (id),
				remote_id INTEGER NOT NULL,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				middle_name TEXT NOT NULL DEFAULT '',
				UNIQUE (source, remote_id)
			)`,
			`CREATE TABLE books (
				` + pk + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				source INTEGER NOT NULL REFERENCES sources (id),
				remote_id INTEGER NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				lang TEXT NOT NULL DEFAULT '',
				file_type TEXT NOT NULL DEFAULT '',
				uploaded TIMESTAMPTZ,
				is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
				pages INTEGER,
				UNIQUE (source, remote_id)
			)`,
			`CREATE TABLE book_authors (
				` + pk + `,
				book INTEGER NOT NULL REFERENCES books (id),
				author INTEGER NOT NULL REFERENCES authors (id),
				UNIQUE (book, author)
			)`,
			`CREATE TABLE translations (
				` + pk + `,
				book INTEGER NOT NULL REFERENCES books (id),
				author INTEGER NOT NULL REFERENCES authors (id),
				position INTEGER NOT NULL DEFAULT 0,
				UNIQUE (book, author)
			)`,
			`CREATE TABLE sequences (
				` + pk + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				source INTEGER NOT NULL REFERENCES sources (id),
				remote_id INTEGER NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				UNIQUE (source, remote_id)
			)`,
			`CREATE TABLE book_sequences (
				` + pk + `,
				book INTEGER NOT NULL REFERENCES books (id),
				sequence INTEGER NOT NULL REFERENCES sequences (id),
				position INTEGER NOT NULL DEFAULT 0,
				UNIQUE (book, sequence)
			)`,
			`CREATE TABLE genres (
				` + pk + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				source INTEGER NOT NULL REFERENCES sources (id),
				remote_id INTEGER NOT NULL,
				code TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				meta TEXT NOT NULL DEFAULT '',
				UNIQUE (source, remote_id)
			)`,
			`CREATE TABLE book_genres (
				` + pk + `,
				book INTEGER NOT NULL REFERENCES books (id),
				genre INTEGER NOT NULL REFERENCES genres (id),
				UNIQUE (book, genre)
			)`,
			`CREATE TABLE book_annotations (
				` + pk + `,
				book INTEGER NOT NULL UNIQUE REFERENCES books (id),
				title TEXT NOT NULL DEFAULT '',
				text TEXT NOT NULL DEFAULT '',
				file TEXT
			)`,
			`CREATE TABLE author_annotations (
				` + pk + `,
				author INTEGER NOT NULL UNIQUE REFERENCES authors (id),
				title TEXT NOT NULL DEFAULT '',
				text TEXT NOT NULL DEFAULT '',
				file TEXT
			)`,
			`CREATE TABLE jobs (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				type TEXT NOT NULL,
				status TEXT NOT NULL,
				data TEXT NOT NULL DEFAULT '{}',
				attempts INTEGER NOT NULL DEFAULT 0,
				run_at TIMESTAMPTZ,
				process_id TEXT
			)`,
			`CREATE INDEX ix_jobs_status_run_at ON jobs (status, run_at)`,
			`CREATE TABLE job_logs (
				` + pk + `,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				job_id TEXT NOT NULL REFERENCES jobs (id),
				level TEXT NOT NULL,
				message TEXT NOT NULL,
				data TEXT,
				stack_trace TEXT
			)`,
			`CREATE INDEX ix_job_logs_job_id ON job_logs (job_id)`,
		}

		for _, stmt := range stmts {
			_, err := db.Exec(stmt)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{
			"job_logs",
			"jobs",
			"author_annotations",
			"book_annotations",
			"book_genres",
			"genres",
			"book_sequences",
			"sequences",
			"translations",
			"book_authors",
			"books",
			"authors",
			"sources",
		}
		for _, table := range tables {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
