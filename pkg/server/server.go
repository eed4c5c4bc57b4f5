// Package server wires the HTTP surface: health, the refresh trigger
// and the jobs read API.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"

	"github.com/libsync/libsync/pkg/auth"
	"github.com/libsync/libsync/pkg/binder"
	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/errcodes"
	"github.com/libsync/libsync/pkg/joblogs"
	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/updater"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authMiddleware := auth.NewMiddleware(cfg)

	// Trigger routes
	updateGroup := e.Group("/update")
	updateGroup.Use(authMiddleware.Authenticate)
	updater.RegisterRoutesWithGroup(updateGroup, db)

	// Jobs routes
	jobsGroup := e.Group("/jobs")
	jobsGroup.Use(authMiddleware.Authenticate)
	jobs.RegisterRoutesWithGroup(jobsGroup, db)
	joblogs.RegisterRoutes(jobsGroup, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(echo.Context) error {
	return errcodes.NotFound("Route")
}
