package repo

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/db"
)

var dbSeq atomic.Int64

// openTestDB: отдельная in-memory sqlite на каждый тест.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	d, err := db.Open(db.Options{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(d))
	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return d
}
