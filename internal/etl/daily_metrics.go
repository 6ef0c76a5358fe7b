package etl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
)

// ImportMetricsRow matches the Glue import_metrics table columns. dt and
// shop_id live in the partition path, not in the file.
type ImportMetricsRow struct {
	ShopID        string `parquet:"name=shop_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MetricDate    string `parquet:"name=metric_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"` // YYYY-MM-DD
	Uploads       int64  `parquet:"name=uploads, type=INT64"`
	Submissions   int64  `parquet:"name=submissions, type=INT64"`
	OrdersCreated int64  `parquet:"name=orders_created, type=INT64"`
	RowsFailed    int64  `parquet:"name=rows_failed, type=INT64"`
}

// ImportMetricsETL aggregates per-shop import activity into one Parquet row
// per (shop, day), partitioned for Athena.
type ImportMetricsETL struct {
	Shops   *shopify.ShopStore
	Imports *db.ImportStore
	Objects *storage.ObjectStore

	Prefix   string // default "import_metrics/"
	Timezone string // default "UTC"
	DaysBack int    // days including today, default 1
}

// Handle is triggered by an EventBridge schedule. It walks every registered
// shop and each day in the backfill window, writing
// <prefix>dt=YYYY-MM-DD/shop_id=<shop>/part-<rand>.parquet.
func (h *ImportMetricsETL) Handle(ctx context.Context, _ events.CloudWatchEvent) (map[string]any, error) {
	prefix := ensureTrailingSlash(h.Prefix)
	if prefix == "" {
		prefix = "import_metrics/"
	}

	tzName := strings.TrimSpace(h.Timezone)
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", tzName, err)
	}

	daysBack := h.DaysBack
	if daysBack <= 0 || daysBack > 90 {
		daysBack = 1
	}

	shops, err := h.Shops.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(shops) == 0 {
		return map[string]any{"ok": true, "written": 0, "reason": "no shops registered"}, nil
	}

	now := time.Now().In(loc)
	written := 0

	for i := 0; i < daysBack; i++ {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")

		for _, shop := range shops {
			row, err := h.aggregateDay(ctx, shop.Shop, day)
			if err != nil {
				return nil, fmt.Errorf("aggregate shop=%s dt=%s: %w", shop.Shop, day, err)
			}

			key := fmt.Sprintf("%sdt=%s/shop_id=%s/part-%s.parquet", prefix, day, shop.Shop, randHex(8))
			if err := h.writeParquetRow(ctx, key, row); err != nil {
				return nil, fmt.Errorf("write parquet shop=%s dt=%s: %w", shop.Shop, day, err)
			}
			written++
		}
	}

	return map[string]any{
		"ok":        true,
		"shops":     len(shops),
		"days_back": daysBack,
		"written":   written,
		"prefix":    prefix,
	}, nil
}

func (h *ImportMetricsETL) aggregateDay(ctx context.Context, shop, day string) (ImportMetricsRow, error) {
	uploads, err := h.Imports.UploadsForDay(ctx, shop, day)
	if err != nil {
		return ImportMetricsRow{}, err
	}

	subs, err := h.Imports.SubmissionsForDay(ctx, shop, day)
	if err != nil {
		return ImportMetricsRow{}, err
	}

	row := ImportMetricsRow{
		ShopID:     shop,
		MetricDate: day,
		Uploads:    int64(uploads),
	}
	for _, s := range subs {
		row.Submissions++
		row.OrdersCreated += int64(s.OrderCount)
		row.RowsFailed += int64(s.FailureCount)
	}
	return row, nil
}

// writeParquetRow writes one row to a temp file and uploads it; the parquet
// writer needs a seekable target, so it cannot stream to S3 directly.
func (h *ImportMetricsETL) writeParquetRow(ctx context.Context, key string, row ImportMetricsRow) error {
	localPath := filepath.Join(os.TempDir(), "import_metrics_"+randHex(8)+".parquet")

	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(ImportMetricsRow), 1)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0

	if err := pw.Write(row); err != nil {
		_ = pw.WriteStop()
		_ = fw.Close()
		return fmt.Errorf("parquet write row: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read parquet tmp: %w", err)
	}
	defer func() { _ = os.Remove(localPath) }()

	return h.Objects.Put(ctx, key, data, "application/octet-stream")
}

func ensureTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
