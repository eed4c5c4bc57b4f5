package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/database"
	"github.com/libsync/libsync/pkg/migrations"
	"github.com/libsync/libsync/pkg/server"
	"github.com/libsync/libsync/pkg/version"
	"github.com/libsync/libsync/pkg/worker"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting libsync", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	staging, err := database.NewStaging(cfg)
	if err != nil {
		log.Err(err).Fatal("staging database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	wrkr := worker.New(cfg, db, staging)
	scheduler := worker.NewScheduler(wrkr)

	srv, err := server.New(cfg, db)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	scheduler.Start()
	log.Info("scheduler started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	scheduler.Shutdown()
	log.Info("scheduler shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	if err := staging.Close(); err != nil {
		log.Err(err).Error("staging database close error")
	}
	if err := db.Close(); err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("databases closed")
}
