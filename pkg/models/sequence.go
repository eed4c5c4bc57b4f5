package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Sequence struct {
	bun.BaseModel `bun:"table:sequences,alias:seq"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    int       `bun:",nullzero" json:"source"`
	RemoteID  int       `bun:",nullzero" json:"remote_id"`
	Name      string    `json:"name"`
}

// BookSequence places a book inside a sequence at an ordinal position.
type BookSequence struct {
	bun.BaseModel `bun:"table:book_sequences,alias:bs"`

	ID       int `bun:",pk,nullzero" json:"id"`
	Book     int `bun:",nullzero" json:"book"`
	Sequence int `bun:",nullzero" json:"sequence"`
	Position int `json:"position"`
}
