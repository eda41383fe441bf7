package postgres

import (
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Migrate applies all pending schema migrations from cfg.MigrationPath.
// Running against an up-to-date schema is a no-op.
func Migrate(cfg config.DatabaseConfig, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	// golang-migrate selects its pgx/v5 driver by URL scheme.
	dsn := strings.Replace(cfg.DSN(), "postgres://", "pgx5://", 1)

	m, err := migrate.New("file://"+cfg.MigrationPath, dsn)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "open migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "apply migrations")
	}
	version, dirty, _ := m.Version()
	logger.Info("migrations applied",
		logging.Any("version", version),
		logging.Bool("dirty", dirty))
	return nil
}
