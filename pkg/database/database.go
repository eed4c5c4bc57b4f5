package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/libsync/libsync/pkg/config"
)

type key int

const ctxKey key = 0

func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

type logQueryHook struct {
	log logger.Logger
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	enabled, ok := ctx.Value(ctxKey).(bool)
	if !ok || !enabled {
		return
	}

	qh.log.Debug(event.Query)
}

// New connects to the normalized store (Postgres).
func New(cfg *config.Config) (*bun.DB, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.PostgresHost, cfg.PostgresPort)),
		pgdriver.WithUser(cfg.PostgresUser),
		pgdriver.WithPassword(cfg.PostgresPassword),
		pgdriver.WithDatabase(cfg.PostgresDatabase),
		pgdriver.WithInsecure(true),
		pgdriver.WithTimeout(5*time.Second),
	)
	sqldb := sql.OpenDB(connector)

	db := bun.NewDB(sqldb, pgdialect.New())

	return setup(cfg, db)
}

// NewStaging connects to the staging store (MySQL), the database the
// bulk loader writes the raw dump tables into.
func NewStaging(cfg *config.Config) (*bun.DB, error) {
	mycfg := mysql.NewConfig()
	mycfg.Net = "tcp"
	mycfg.Addr = fmt.Sprintf("%s:%d", cfg.MySQLHost, cfg.MySQLPort)
	mycfg.User = cfg.MySQLUser
	mycfg.Passwd = cfg.MySQLPassword
	mycfg.DBName = cfg.MySQLDatabase
	mycfg.ParseTime = true

	connector, err := mysql.NewConnector(mycfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sqldb := sql.OpenDB(connector)

	db := bun.NewDB(sqldb, mysqldialect.New())

	return setup(cfg, db)
}

func setup(cfg *config.Config, db *bun.DB) (*bun.DB, error) {
	// print out all queries in debug mode
	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{logger.NewWithLevel("debug")})
	}

	// Retry up to a few times to ensure that the database can connect.
	var err error
	for i := 0; i < cfg.DatabaseConnectRetryCount; i++ {
		_, err = db.Exec("SELECT 1")
		if err != nil {
			time.Sleep(cfg.DatabaseConnectRetryDelay)
			continue
		}
		// We've successfully connected.
		break
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return db, nil
}
