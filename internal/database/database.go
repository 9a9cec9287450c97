// Package database provides connection management for postgres and sqlite.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const sqlitePrefix = "sqlite:"

// DB wraps a GORM instance and, for postgres, the pgx connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	GORM   *gorm.DB
	Driver string
}

// New opens the database named by databaseURL. URLs starting with
// "sqlite:" open an embedded sqlite database; anything else is postgres.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	if dsn, ok := strings.CutPrefix(databaseURL, sqlitePrefix); ok {
		return openSQLite(dsn)
	}
	return openPostgres(ctx, databaseURL)
}

func openPostgres(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.Open(databaseURL), gormConfig())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &DB{Pool: pool, GORM: gormDB, Driver: DriverPostgres}, nil
}

func openSQLite(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = "file::memory:"
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// an in-memory database lives only as long as its single connection
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return &DB{GORM: gormDB, Driver: DriverSQLite}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
}

// Close releases the pool and the underlying sql handle.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if sqlDB, err := db.GORM.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Ping checks if the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	sqlDB, err := db.GORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
