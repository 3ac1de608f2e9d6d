package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

const (
	MigratorAuto  = "auto"
	MigratorGoose = "goose"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date with the selected migrator.
func Migrate(ctx context.Context, db *gorm.DB, driver, migrator string) error {
	switch migrator {
	case MigratorGoose:
		if driver != DriverPostgres {
			return fmt.Errorf("goose migrations require the %s driver, got %q", DriverPostgres, driver)
		}
		return GooseUp(ctx, db)
	case MigratorAuto, "":
		return AutoMigrate(db)
	default:
		return fmt.Errorf("unsupported migrator %q", migrator)
	}
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.PersonalAccessToken{},
	)
}

// GooseUp applies the embedded SQL migrations.
func GooseUp(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, sqlDB, "migrations")
}
