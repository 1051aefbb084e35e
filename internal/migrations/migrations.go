package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed *.sql
var Migrations embed.FS

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.log.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.log.Infof(format, v...) }

// RunMigrations applies the embedded schema migrations that are not applied yet.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(gooseLogger{log: logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("migrations: read version: %w", err)
	}
	logger.Infow("Database schema is up to date", "version", version)
	return nil
}
