package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

const lockTimeout = 30 * time.Second

// Migrator применяет SQL-миграции схемы поверх существующего пула pgx.
// Источник миграций — любой fs.FS (обычно go:embed каталога *.sql).
type Migrator struct {
	pool *pgxpool.Pool
	fsys fs.FS
	path string
}

// NewMigrator создает новый экземпляр Migrator.
// path — каталог внутри fsys с файлами NNNNNN_name.{up,down}.sql.
func NewMigrator(pool *pgxpool.Pool, fsys fs.FS, path string) *Migrator {
	return &Migrator{
		pool: pool,
		fsys: fsys,
		path: path,
	}
}

// Up применяет все неприменённые миграции. Отсутствие новых миграций
// ошибкой не считается.
func (m *Migrator) Up() error {
	migrator, err := m.create()
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info().Msg("database migrations applied")
	return nil
}

// Down откатывает все миграции.
func (m *Migrator) Down() error {
	migrator, err := m.create()
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	log.Info().Msg("database migrations rolled back")
	return nil
}

// Version возвращает текущую версию схемы и флаг dirty.
// До первой миграции возвращает (0, false, nil).
func (m *Migrator) Version() (uint, bool, error) {
	migrator, err := m.create()
	if err != nil {
		return 0, false, err
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

func (m *Migrator) create() (*migrate.Migrate, error) {
	// golang-migrate работает через database/sql, поэтому оборачиваем пул.
	db := stdlib.OpenDBFromPool(m.pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.fsys, m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	migrator.LockTimeout = lockTimeout

	return migrator, nil
}
