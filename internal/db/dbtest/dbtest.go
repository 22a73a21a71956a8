// Package dbtest opens a throwaway sqlite database with the production schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/skilllink/internal/db"
	"github.com/Windi-Fikriyansyah/skilllink/internal/logging"
)

func Open(t *testing.T) *gorm.DB {
	t.Helper()

	// shared cache keeps every pooled connection on the same in-memory database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), db.Options(logging.Nop()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}
