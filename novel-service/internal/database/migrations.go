// Package database хранит схему novel-service и применяет её при старте.
package database

import (
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell-server/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations приводит схему базы к актуальной версии.
func RunMigrations(pool *pgxpool.Pool) error {
	return migration.NewMigrator(pool, migrationsFS, "migrations").Up()
}
