// Package storagesql defines the storage interfaces the rest of this
// module programs against. The relational engine behind them is an
// external collaborator (a Postgres-compatible server reached over
// jackc/pgx), not something this package implements — callers receive a
// DB built by Connect and pass it to the interfaces below, which
// internal/importer, internal/nql, and internal/resolution consume.
package storagesql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/nacsos-data/nacsos-core/internal/config"
)

// Connect opens a pooled connection to the configured database using the
// pgx driver through database/sql (via jackc/pgx/v5/stdlib), wrapped by
// sqlx for named-parameter query support, the same driver/wrapper pairing
// used against Postgres in the pack's integration suites.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", postgresConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("storagesql: connect: %w", err)
	}
	return db, nil
}

// postgresConnString renders cfg into the libpq key=value form pgx's
// stdlib driver accepts, independent of config.DatabaseConfig.DSN's URL
// form (used for display/logging, not for driver consumption).
func postgresConnString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable search_path=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, schemaOrDefault(cfg.Schema),
	)
}

// QuoteSchema safely quotes a schema name for use in a SET search_path
// or CREATE SCHEMA statement built by this package's callers, using
// lib/pq's identifier quoting rather than hand-rolled escaping.
func QuoteSchema(schema string) string {
	return pq.QuoteIdentifier(schemaOrDefault(schema))
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}

// Migrate applies any pending goose migrations found in dir against db,
// using the postgres dialect. Migrations themselves live outside this
// module (see Migrations for the expected file list); this only drives
// goose's runner against them.
func Migrate(db *sqlx.DB, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("storagesql: set dialect: %w", err)
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("storagesql: migrate: %w", err)
	}
	return nil
}
