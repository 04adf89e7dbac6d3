// Package jobs holds the queued background jobs.
package jobs

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/logger"
	"github.com/shashiranjanraj/orderdesk/pkg/money"
	"github.com/shashiranjanraj/orderdesk/pkg/queue"
	"github.com/shashiranjanraj/orderdesk/pkg/storage"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

// ExportOrders is the queue name of ExportOrdersJob.
const ExportOrders = "export_orders"

// ExportDir is where exports are written on the storage disk.
const ExportDir = "exports"

var exportHeader = []string{"id", "unique_code", "customer", "status", "total_price", "created_at", "updated_at"}

// ExportOrdersJob writes the orders matching a table query to a CSV file
// on the default storage disk.
type ExportOrdersJob struct {
	Params table.Params `json:"params"`
	Path   string       `json:"path"`
}

// NewExportOrdersJob names the export file after the current time.
func NewExportOrdersJob(p table.Params) *ExportOrdersJob {
	return &ExportOrdersJob{
		Params: p,
		Path:   fmt.Sprintf("%s/orders-%s.csv", ExportDir, time.Now().UTC().Format("20060102-150405.000")),
	}
}

func (j *ExportOrdersJob) Handle(ctx context.Context) error {
	var buf bytes.Buffer
	n, err := WriteOrdersCSV(ctx, &buf, services.NewOrderService(), j.Params)
	if err != nil {
		return err
	}
	if err := storage.Default().Put(ctx, j.Path, &buf); err != nil {
		return fmt.Errorf("jobs: export orders: %w", err)
	}
	logger.WithCtx(ctx).Info("orders exported", "path", j.Path, "rows", n)
	return nil
}

// WriteOrdersCSV writes a header and one row per matching order. Returns
// the number of rows written.
func WriteOrdersCSV(ctx context.Context, out io.Writer, orders *services.OrderService, p table.Params) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write(exportHeader); err != nil {
		return 0, err
	}

	n := 0
	err := orders.Each(ctx, p, func(batch []models.Order) error {
		for _, o := range batch {
			customer := ""
			if o.Customer != nil {
				customer = o.Customer.FullName
			}
			row := []string{
				strconv.FormatUint(uint64(o.ID), 10),
				o.UniqueCode,
				customer,
				string(o.Status),
				money.String(o.TotalPrice),
				o.CreatedAt.UTC().Format(time.RFC3339),
				o.UpdatedAt.UTC().Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("jobs: export orders: %w", err)
	}
	w.Flush()
	return n, w.Error()
}

// Register adds the jobs to the default queue.
func Register() {
	queue.Register(ExportOrders, func() queue.Job { return &ExportOrdersJob{} })
}

// PruneExports deletes export files older than maxAge and reports how many
// were removed.
func PruneExports(ctx context.Context, disk storage.Disk, maxAge time.Duration) (int, error) {
	files, err := disk.Files(ctx, ExportDir)
	if err != nil {
		return 0, fmt.Errorf("jobs: prune exports: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	n := 0
	for _, f := range files {
		if f.LastModified.After(cutoff) {
			continue
		}
		if err := disk.Delete(ctx, f.Path); err != nil {
			return n, fmt.Errorf("jobs: prune exports: %w", err)
		}
		n++
	}
	if n > 0 {
		logger.WithCtx(ctx).Info("old exports pruned", "count", n)
	}
	return n, nil
}
