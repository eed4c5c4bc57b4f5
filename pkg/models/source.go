package models

import (
	"github.com/uptrace/bun"
)

// Source is the remote system an entity was imported from. Rows are
// created lazily on first use and never deleted.
type Source struct {
	bun.BaseModel `bun:"table:sources,alias:src"`

	ID   int    `bun:",pk,nullzero" json:"id"`
	Name string `bun:",nullzero" json:"name"`
}
