package db

import (
	"context"
	"database/sql"
	"embed"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationFiles embed.FS

type migrationLogger struct {
	*log.Entry
}

func (l migrationLogger) Verbose() bool {
	return l.Logger.IsLevelEnabled(log.DebugLevel)
}

func migrationDriver(driver string, conn *sql.DB) (database.Driver, error) {
	switch driver {
	case "mysql":
		return migratemysql.WithInstance(conn, &migratemysql.Config{})
	case "postgres":
		return migratepostgres.WithInstance(conn, &migratepostgres.Config{})
	case "sqlite3":
		return migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	}
	return nil, errors.Errorf("no migrations for driver %s", driver)
}

// Migrate applies the pending schema migrations of the connected driver.
// The migrate instance is not closed, closing it would close the pool.
func (db *DB) Migrate(ctx context.Context) error {
	driver := db.DriverName()
	logger := log.WithField("driver", driver)

	source, err := iofs.New(migrationFiles, path.Join("migrations", driver))
	if err != nil {
		return errors.Wrapf(err, "%s: failed to read migrations", driver)
	}
	defer source.Close()

	target, err := migrationDriver(driver, db.pinger.DB)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to prepare migrations", driver)
	}
	m.Log = migrationLogger{logger}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrapf(err, "%s: failed to migrate payment schema", driver)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrapf(err, "%s: failed to read schema version", driver)
	}

	logger.WithFields(log.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("payment schema ready")

	return nil
}
