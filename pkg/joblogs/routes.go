package joblogs

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/jobs"
)

// RegisterRoutes registers job log routes on the jobs group.
func RegisterRoutes(jobsGroup *echo.Group, db *bun.DB) {
	jobLogService := NewService(db)
	jobService := jobs.NewService(db)

	h := &handler{
		jobLogService: jobLogService,
		jobService:    jobService,
	}

	jobsGroup.GET("/:id/logs", h.listLogs)
}
