//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setBackendEnv points both the cache and the history store at the same server.
func setBackendEnv(t *testing.T, backend, connStr string) {
	t.Helper()
	t.Setenv("PERFHIST_CACHE_BACKEND", backend)
	t.Setenv("PERFHIST_CACHE_DB_CONNECT", connStr)
	t.Setenv("PERFHIST_HISTORY_BACKEND", backend)
	t.Setenv("PERFHIST_HISTORY_DB_CONNECT", connStr)
}

// exerciseBackend runs the storage commands against whatever backend the env selects.
func exerciseBackend(t *testing.T) {
	dataDir := writeFixture(t, 14)

	_, err := runCommand(t, "cache", "clear")
	require.NoError(t, err)
	_, err = runCommand(t, "history", "clear")
	require.NoError(t, err)

	_, err = runCommand(t, "history", "migrate")
	require.NoError(t, err)

	// Load twice so the second pass reads from the cache
	_, err = runCommand(t, "summary", dataDir)
	require.NoError(t, err)
	_, err = runCommand(t, "info", dataDir, "--output", "csv")
	require.NoError(t, err)

	out, err := runCommand(t, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 14")

	out, err = runCommand(t, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Loads: 2")

	exportBase := filepath.Join(t.TempDir(), "perfhist")
	_, err = runCommand(t, "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".loads.parquet", ".run_timings.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

// TestPerfhistWithMySQL tests the perfhist CLI with a MySQL backend.
func TestPerfhistWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "perfhist",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	setBackendEnv(t, "mysql", fmt.Sprintf("root:secret123@tcp(%s:%s)/perfhist", host, port.Port()))
	exerciseBackend(t)
}

// TestPerfhistWithPostgres tests the perfhist CLI with a PostgreSQL backend.
func TestPerfhistWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	setBackendEnv(t, "postgresql", fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port()))
	exerciseBackend(t)
}
