// Package storagetest provides migrated in-memory databases for tests.
package storagetest

import (
	"fmt"
	"testing"

	"github.com/ichigozero/todokit/storage"
	"github.com/stretchr/testify/require"
	"github.com/twinj/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a fresh, migrated sqlite database private to t. It is closed
// when the test ends.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := storage.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewV4().String()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}
