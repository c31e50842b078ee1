package postgres

import (
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Migrate накатывает встроенные миграции через тот же пул
func (s *Storage) Migrate() error {
	logger.Info("Repository: Применение миграций")

	return s.withMigrator(func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("Repository: Не удалось применить миграции", err)
			return fmt.Errorf("применение миграций: %w", err)
		}

		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("версия схемы: %w", err)
		}
		logger.Info("Repository: Схема актуальна", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	})
}

// Down откатывает все миграции
func (s *Storage) Down() error {
	logger.Info("Repository: Откат миграций")

	return s.withMigrator(func(m *migrate.Migrate) error {
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("Repository: Не удалось откатить миграции", err)
			return fmt.Errorf("откат миграций: %w", err)
		}
		return nil
	})
}

func (s *Storage) withMigrator(run func(*migrate.Migrate) error) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	return run(m)
}
