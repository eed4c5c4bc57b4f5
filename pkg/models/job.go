package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusDeferred   = "deferred"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"

	// JobStatusNotFound is the virtual status reported for a job id with
	// no row. It never appears in the database.
	JobStatusNotFound = "not_found"
)

const (
	JobTypeRunFullUpdate = "run_full_update"
	JobTypeImportDump    = "import_dump"

	JobTypeUpdateAuthors              = "update_authors"
	JobTypeUpdateBooks                = "update_books"
	JobTypeUpdateBookAuthors          = "update_book_authors"
	JobTypeUpdateTranslations         = "update_translations"
	JobTypeUpdateSequences            = "update_sequences"
	JobTypeUpdateBookSequences        = "update_book_sequences"
	JobTypeUpdateBookAnnotations      = "update_book_annotations"
	JobTypeUpdateBookAnnotationPics   = "update_book_annotation_pics"
	JobTypeUpdateAuthorAnnotations    = "update_author_annotations"
	JobTypeUpdateAuthorAnnotationPics = "update_author_annotation_pics"
	JobTypeUpdateGenres               = "update_genres"
	JobTypeUpdateBookGenres           = "update_book_genres"
	JobTypeWebhookNotify              = "webhook_notify"
)

// Job is one unit of queued work. IDs are strings so that a run prefix
// can namespace every job belonging to a single refresh, e.g.
// "5561234_update_authors".
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         string      `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Attempts   int         `json:"attempts"`
	RunAt      *time.Time  `json:"run_at,omitempty"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypeImportDump:
		job.DataParsed = &JobImportData{}
	case JobTypeRunFullUpdate:
		job.DataParsed = &JobRunData{}
	default:
		job.DataParsed = &JobUpdateData{}
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// JobImportData is the payload of an import_dump job.
type JobImportData struct {
	Filename string `json:"filename"`
}

// JobUpdateData is the payload of every upsert unit and the webhook
// job: the run prefix shared by all jobs of one refresh.
type JobUpdateData struct {
	Prefix string `json:"prefix"`
}

type JobRunData struct{}
