package jobs_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/app/jobs"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/internal/testdb"
	"github.com/shashiranjanraj/orderdesk/pkg/storage"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

func seedOrders(t *testing.T) {
	t.Helper()
	testdb.Open(t)
	ctx := context.Background()
	catalog := services.NewCatalogService()
	orders := services.NewOrderService()

	c, err := catalog.CreateCustomer(ctx, services.CustomerInput{FullName: "Ada, Countess of Lovelace"})
	require.NoError(t, err)
	p, err := catalog.CreateProduct(ctx, services.ProductInput{CustomerID: c.ID, Name: "Engine", Price: decimal.RequireFromString("1500")})
	require.NoError(t, err)

	for _, status := range []string{"pending", "finished"} {
		_, err := orders.Create(ctx, services.OrderInput{
			CustomerID: c.ID,
			Status:     status,
			Lines:      []services.LineInput{{ProductID: p.ID, Quantity: 2}},
		})
		require.NoError(t, err)
	}
}

func TestWriteOrdersCSV(t *testing.T) {
	seedOrders(t)

	var buf bytes.Buffer
	n, err := jobs.WriteOrdersCSV(context.Background(), &buf, services.NewOrderService(), table.Params{Filters: []string{"finished"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "unique_code", "customer", "status", "total_price", "created_at", "updated_at"}, rows[0])
	assert.Equal(t, "Ada, Countess of Lovelace", rows[1][2])
	assert.Equal(t, "finished", rows[1][3])
	assert.Equal(t, "3000.00", rows[1][4])
}

func TestExportJobWritesToDisk(t *testing.T) {
	seedOrders(t)
	disk := storage.NewLocalDisk(t.TempDir(), "/storage")
	storage.Register("local", disk)
	storage.SetDefault("local")

	job := jobs.NewExportOrdersJob(table.Params{})
	assert.True(t, strings.HasPrefix(job.Path, jobs.ExportDir+"/orders-"))
	require.NoError(t, job.Handle(context.Background()))

	rc, err := disk.Get(context.Background(), job.Path)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(body), "\n"))
}

func TestPruneExports(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewLocalDisk(t.TempDir(), "")

	for _, name := range []string{"orders-old.csv", "orders-new.csv"} {
		require.NoError(t, disk.Put(ctx, jobs.ExportDir+"/"+name, strings.NewReader("id\n")))
	}
	old := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(disk.Root(), jobs.ExportDir, "orders-old.csv"), old, old))

	n, err := jobs.PruneExports(ctx, disk, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	files, err := disk.Files(ctx, jobs.ExportDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, jobs.ExportDir+"/orders-new.csv", files[0].Path)
}
