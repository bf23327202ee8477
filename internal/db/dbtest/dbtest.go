// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_order/internal/config"
	"github.com/Skotchmaster/coffee_order/internal/db"
)

const memoryDSN = "file::memory:?_pragma=foreign_keys(1)"

// Open returns a migrated in-memory sqlite database closed on test cleanup.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, config.DriverSQLite, memoryDSN)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	return gdb
}
