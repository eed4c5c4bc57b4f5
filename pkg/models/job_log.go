package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	JobLogLevelInfo  = "info"
	JobLogLevelWarn  = "warn"
	JobLogLevelError = "error"
)

type JobLog struct {
	bun.BaseModel `bun:"table:job_logs,alias:jl"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	JobID      string    `bun:",nullzero" json:"job_id"`
	Level      string    `bun:",nullzero" json:"level"`
	Message    string    `bun:",nullzero" json:"message"`
	Data       *string   `json:"data,omitempty"`
	StackTrace *string   `json:"stack_trace,omitempty"`
}
