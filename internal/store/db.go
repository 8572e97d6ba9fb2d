package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/migrations"
)

// Dialect selects the SQL driver, placeholder style and migration dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// DB wraps a connection pool together with a query builder matching its
// dialect.
type DB struct {
	*sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

// DialectFor picks PostgreSQL for postgres:// URLs and SQLite otherwise.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the database named by dsn and pings it.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dialect := DialectFor(dsn)

	driver := "sqlite3"
	if dialect == DialectPostgres {
		driver = "pgx"
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error occurred during database connection: %w", err)
	}

	if dialect == DialectSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting database (ping): %w", err)
	}

	logger.L().Info().Str("driver", driver).Msg("connected to database")
	return NewDB(conn, dialect), nil
}

// NewDB wraps an existing connection.
func NewDB(conn *sql.DB, dialect Dialect) *DB {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		format = sq.Dollar
	}
	return &DB{
		DB:      conn,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, string(db.dialect))
}
