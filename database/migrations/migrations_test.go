package migrations_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/shashiranjanraj/orderdesk/database/migrations"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/migration"
)

var tables = []string{"users", "customers", "products", "orders", "order_products", "failed_jobs"}

func TestMigrateAndRollback(t *testing.T) {
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)

	var out bytes.Buffer
	r := migration.New(db, &out)

	n, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(tables), n)
	for _, name := range tables {
		assert.True(t, db.Migrator().HasTable(name), name)
	}

	n, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "Nothing to migrate.")

	out.Reset()
	require.NoError(t, r.Status())
	assert.Contains(t, out.String(), "20261016000004_create_orders_table")
	assert.NotContains(t, out.String(), "Pending")

	n, err = r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(tables), n)
	for _, name := range tables {
		assert.False(t, db.Migrator().HasTable(name), name)
	}

	pending, err := r.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, len(tables))
}
