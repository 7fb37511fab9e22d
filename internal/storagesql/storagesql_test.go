package storagesql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nacsos-data/nacsos-core/internal/config"
)

func TestPostgresConnStringDefaultsSchema(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d"}
	got := postgresConnString(cfg)
	require.Contains(t, got, "search_path=public")
	require.Contains(t, got, "host=db")
	require.Contains(t, got, "dbname=d")
}

func TestQuoteSchema(t *testing.T) {
	require.Equal(t, `"public"`, QuoteSchema(""))
	require.Equal(t, `"weird name"`, QuoteSchema("weird name"))
}

func TestMigrationsOrdered(t *testing.T) {
	require.NotEmpty(t, Migrations)
	require.Equal(t, "0001_items.sql", Migrations[0])
}
