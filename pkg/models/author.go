package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Source     int       `bun:",nullzero" json:"source"`
	RemoteID   int       `bun:",nullzero" json:"remote_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	MiddleName string    `json:"middle_name"`
}

// AuthorAnnotation is the free-text blurb for an author, at most one row
// per author. File holds an absolute picture URL once the picture pass
// has run.
type AuthorAnnotation struct {
	bun.BaseModel `bun:"table:author_annotations,alias:aa"`

	ID     int     `bun:",pk,nullzero" json:"id"`
	Author int     `bun:",nullzero" json:"author"`
	Title  string  `json:"title"`
	Text   string  `json:"text"`
	File   *string `json:"file,omitempty"`
}
