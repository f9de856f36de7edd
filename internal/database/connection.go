package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"

	"gestiondash/internal/config"
)

// Querier es lo que necesitan los componentes de consulta. Lo cumplen
// *sql.DB, *sql.Conn y *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Connection maneja el pool de conexiones a la base de datos
type Connection struct {
	DB *sql.DB
}

// NewConnection crea una nueva conexión a la base de datos
func NewConnection(cfg config.DatabaseConfig) (*Connection, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, eris.Wrap(err, "error abriendo conexión")
	}

	// Configurar pool de conexiones
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	// Verificar conectividad
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "error conectando a la base de datos")
	}

	return &Connection{DB: db}, nil
}

// Close cierra la conexión a la base de datos
func (c *Connection) Close() error {
	return c.DB.Close()
}

// WithConn toma una conexión del pool para toda la operación y la devuelve
// al terminar, también si fn falla o entra en pánico.
func WithConn(ctx context.Context, db *sql.DB, fn func(q Querier) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return eris.Wrap(err, "error obteniendo conexión")
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}
