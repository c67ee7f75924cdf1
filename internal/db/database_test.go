package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("empty DSN", func(t *testing.T) {
		database, err := NewDatabase("")
		assert.Error(t, err)
		assert.Nil(t, database)
	})

	t.Run("valid file database", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "test.db")
		database, err := NewDatabase(dsn)
		require.NoError(t, err)
		require.NotNil(t, database)
		assert.NotNil(t, database.GetDB())

		// Schema must be in place
		var count int
		err = database.GetDB().QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN
			 ('users', 'messages', 'recipients', 'dead_letters')`,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		assert.NoError(t, database.Close())
	})

	t.Run("close twice", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "test.db")
		database, err := NewDatabase(dsn)
		require.NoError(t, err)

		assert.NoError(t, database.Close())
		assert.Error(t, database.Close())
	})

	t.Run("nil database close", func(t *testing.T) {
		var database *Database
		assert.Error(t, database.Close())
		assert.Nil(t, database.GetDB())
	})
}
