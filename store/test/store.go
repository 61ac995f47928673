package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/remindme/internal/profile"
	"github.com/hrygo/remindme/store"
	"github.com/hrygo/remindme/store/db"
)

// getDriverFromEnv picks the driver under test.
// REMINDME_TEST_POSTGRES=1 or POSTGRES_TEST_DSN runs the suite against PostgreSQL.
func getDriverFromEnv() string {
	if os.Getenv("REMINDME_TEST_POSTGRES") == "1" || postgresDSNFromEnv() != "" {
		return "postgres"
	}
	return "sqlite"
}

func postgresDSNFromEnv() string {
	return os.Getenv("POSTGRES_TEST_DSN")
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		Mode:     "dev",
		Driver:   getDriverFromEnv(),
		Timezone: "Asia/Jerusalem",
	}
	switch p.Driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		p.Data = t.TempDir()
		p.DSN = filepath.Join(p.Data, "remindme_test.db")
	}
	return p
}

// NewTestingStore opens a migrated store backed by the driver under test.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	ts := store.New(driver, p)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}
