package updater

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/libsync/libsync/pkg/errcodes"
	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/models"
)

type handler struct {
	jobService *jobs.Service
}

// trigger enqueues a run job and acknowledges immediately. The refresh
// happens in the worker; progress is observable over the jobs API.
func (h *handler) trigger(c echo.Context) error {
	ctx := c.Request().Context()

	name := c.Param("updater")
	if _, ok := updaterNames[name]; !ok {
		return errcodes.NotFound("Updater")
	}

	job := &models.Job{
		ID:   uuid.New().String(),
		Type: models.JobTypeRunFullUpdate,
	}
	if err := h.jobService.Enqueue(ctx, job); err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Triggered bool   `json:"triggered"`
		JobID     string `json:"job_id"`
	}{true, job.ID}

	return errors.WithStack(c.JSON(http.StatusAccepted, resp))
}
