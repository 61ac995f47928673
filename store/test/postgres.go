package test

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testUser     = "testuser"
	testPassword = "testpassword"
)

// GetPostgresDSN returns a DSN for PostgreSQL testing.
// POSTGRES_TEST_DSN wins when set; otherwise a fresh container is started for the test.
func GetPostgresDSN(t *testing.T) string {
	if dsn := postgresDSNFromEnv(); dsn != "" {
		return dsn
	}

	pgContainer, err := postgres.Run(t.Context(),
		"postgres:16-alpine",
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("remindme_test"),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(t.Context(), "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return connStr
}
