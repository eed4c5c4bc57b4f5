package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    int       `bun:",nullzero" json:"source"`
	RemoteID  int       `bun:",nullzero" json:"remote_id"`
	Title     string    `json:"title"`
	Lang      string    `json:"lang"`
	FileType  string    `json:"file_type"`
	Uploaded  time.Time `json:"uploaded"`
	IsDeleted bool      `json:"is_deleted"`
	Pages     int       `json:"pages"`
}

// BookAuthor links a book to one of its authors. Insert-only; there is
// no payload to refresh.
type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	ID     int `bun:",pk,nullzero" json:"id"`
	Book   int `bun:",nullzero" json:"book"`
	Author int `bun:",nullzero" json:"author"`
}

// Translation links a book to a translator with an ordinal position.
type Translation struct {
	bun.BaseModel `bun:"table:translations,alias:t"`

	ID       int `bun:",pk,nullzero" json:"id"`
	Book     int `bun:",nullzero" json:"book"`
	Author   int `bun:",nullzero" json:"author"`
	Position int `json:"position"`
}

// BookAnnotation is the free-text blurb for a book, at most one row per
// book.
type BookAnnotation struct {
	bun.BaseModel `bun:"table:book_annotations,alias:ban"`

	ID    int     `bun:",pk,nullzero" json:"id"`
	Book  int     `bun:",nullzero" json:"book"`
	Title string  `json:"title"`
	Text  string  `json:"text"`
	File  *string `json:"file,omitempty"`
}
