package testutil

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"ai-arena/internal/config"
	"ai-arena/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenTestStore opens the Postgres session store inside a throwaway schema that is
// dropped when the test ends. It skips when TEST_POSTGRES_DSN is not set.
func OpenTestStore(t *testing.T) store.SessionStore {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip postgres store: %v", err)
	}
	ctx := context.Background()
	schema := fmt.Sprintf("arena_test_%d", time.Now().UnixNano())
	if err := execSchemaDDL(ctx, cfg.TestPostgresDSN, "CREATE SCHEMA %s", schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_ = execSchemaDDL(context.Background(), cfg.TestPostgresDSN, "DROP SCHEMA %s CASCADE", schema)
	})

	st, err := store.Open(ctx, store.Options{
		Driver:      store.DriverPostgres,
		PostgresDSN: withSearchPath(cfg.TestPostgresDSN, schema),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func execSchemaDDL(ctx context.Context, dsn, format, schema string) error {
	if !schemaNamePattern.MatchString(schema) {
		return fmt.Errorf("schema %q does not match required pattern", schema)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	_, err = pool.Exec(ctx, fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()))
	return err
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
