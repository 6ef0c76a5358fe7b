package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/etl"
	"github.com/ordersheet/backend/internal/logger"
)

// MetricsSummary aggregates the current (or requested) month's submissions
// straight from DynamoDB via the month GSI.
func (a *API) MetricsSummary(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}

	month := c.DefaultQuery("month", time.Now().UTC().Format("2006-01"))
	if len(month) != 7 || month[4] != '-' {
		errJSON(c, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	items, err := a.Imports.SubmissionsForMonth(c.Request.Context(), shop, month)
	if err != nil {
		logger.Log.Error("month summary failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to load summary")
		return
	}

	summary := gin.H{
		"shop":        shop,
		"month":       month,
		"submissions": len(items),
	}
	var ordersCreated, rowsFailed, completed, failed int
	for _, s := range items {
		ordersCreated += s.OrderCount
		rowsFailed += s.FailureCount
		switch s.Status {
		case db.StatusCompleted:
			completed++
		case db.StatusFailed:
			failed++
		}
	}
	summary["orders_created"] = ordersCreated
	summary["rows_failed"] = rowsFailed
	summary["completed"] = completed
	summary["failed"] = failed

	c.JSON(http.StatusOK, summary)
}

// MetricsHistory serves the daily import-metrics series from the analytics
// lake: Glue supplies the column list, Athena runs the scan over the
// partitioned Parquet data the ETL wrote.
func (a *API) MetricsHistory(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}

	if a.Cfg.GlueDatabase == "" || a.Cfg.ImportMetricsTable == "" || a.Cfg.AthenaOutputS3 == "" {
		errJSON(c, http.StatusNotImplemented, "metrics history not configured")
		return
	}

	days := queryInt(c, "days", 30)
	if days > 365 {
		days = 365
	}
	from := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	ctx := c.Request.Context()

	schema, err := etl.LoadTableSchema(ctx, a.Glue, a.Cfg.GlueDatabase, a.Cfg.ImportMetricsTable)
	if err != nil {
		logger.Log.Error("glue schema load failed", zap.Error(err))
		errJSON(c, http.StatusBadGateway, "failed to load metrics schema")
		return
	}

	// shop passed IsValidShopDomain, so it cannot contain quotes
	sql := fmt.Sprintf(
		"SELECT dt, %s FROM %s WHERE shop_id = '%s' AND dt >= date '%s' ORDER BY dt",
		schema.SelectList(), schema.Table, shop, from,
	)

	res, err := etl.RunAthenaQuery(ctx, a.Athena, sql, etl.AthenaRunOptions{
		Database:       a.Cfg.AthenaDatabase,
		Workgroup:      a.Cfg.AthenaWorkgroup,
		OutputLocation: a.Cfg.AthenaOutputS3,
		MaxResultRows:  days + 1,
	})
	if err != nil {
		logger.Log.Error("athena history query failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusBadGateway, "metrics history query failed")
		return
	}

	body := etl.ShapeResult(res.Columns, res.Rows)
	body["shop"] = shop
	body["from"] = from
	body["scanned_bytes"] = res.ScannedBytes
	body["execution_ms"] = res.ExecutionMs

	c.JSON(http.StatusOK, body)
}
