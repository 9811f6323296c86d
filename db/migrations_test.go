package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	storage, conn := newTestDB(t)

	var migration struct {
		Version int  `db:"version"`
		Dirty   bool `db:"dirty"`
	}
	require.NoError(t, conn.Get(&migration, "SELECT version, dirty FROM schema_migrations"))
	assert.Equal(t, 1, migration.Version)
	assert.False(t, migration.Dirty)

	t.Run("applied migrations are not run again", func(t *testing.T) {
		_, err := conn.Exec(`INSERT INTO payment (id, policy_id, amount, payment_date, payment_method, status, created, updated)
			VALUES ('a', 'p', 1, CURRENT_TIMESTAMP, 'cash', 'pending', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
		require.NoError(t, err)

		require.NoError(t, storage.Migrate(context.Background()))
		assert.Equal(t, 1, countRows(t, conn))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, storage.Migrate(ctx))
	})
}
