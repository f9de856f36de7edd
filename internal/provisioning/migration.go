// Package provisioning aplica el esquema propio del servicio. Las tablas de
// gestiones, campañas y contactos son externas y no se tocan acá.
package provisioning

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
}

// Reemplazable en tests.
var migratorFactory = newMigrator

func newMigrator(db *sql.DB) (migrator, error) {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return nil, eris.Wrap(err, "error creando driver de migraciones")
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "error leyendo migraciones embebidas")
	}

	m, err := migrate.NewWithInstance("iofs", source, "mysql", driver)
	if err != nil {
		return nil, eris.Wrap(err, "error creando migrador")
	}
	return m, nil
}

// RunMigrations aplica las migraciones pendientes. Las ya aplicadas se saltean.
func RunMigrations(db *sql.DB) error {
	log := zap.L().Named("provisioner")

	m, err := migratorFactory(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "error ejecutando migraciones")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return eris.Wrap(err, "error obteniendo versión del esquema")
	}

	if dirty {
		log.Warn("esquema en estado dirty", zap.Uint("version", version))
	} else {
		log.Info("migraciones al día", zap.Uint("version", version))
	}
	return nil
}

// Down revierte todas las migraciones. Borra los snapshots guardados.
func Down(db *sql.DB) error {
	m, err := migratorFactory(db)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "error revirtiendo migraciones")
	}
	return nil
}

// Version devuelve la versión actual del esquema y si quedó dirty.
func Version(db *sql.DB) (uint, bool, error) {
	m, err := migratorFactory(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "error obteniendo versión del esquema")
	}
	return version, dirty, nil
}
