package updater

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/jobs"
)

// RegisterRoutesWithGroup registers the trigger route on a
// pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		jobService: jobs.NewService(db),
	}

	g.POST("/:updater", h.trigger)
}
