package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Source      int       `bun:",nullzero" json:"source"`
	RemoteID    int       `bun:",nullzero" json:"remote_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Meta        string    `json:"meta"`
}

// BookGenre links a book to a genre. Insert-only.
type BookGenre struct {
	bun.BaseModel `bun:"table:book_genres,alias:bg"`

	ID    int `bun:",pk,nullzero" json:"id"`
	Book  int `bun:",nullzero" json:"book"`
	Genre int `bun:",nullzero" json:"genre"`
}
