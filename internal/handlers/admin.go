package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/etl"
	"github.com/ordersheet/backend/internal/logger"
)

// RepairPartitions runs MSCK REPAIR TABLE over the import_metrics table so
// Athena sees partition directories written since the last repair.
func (a *API) RepairPartitions(c *gin.Context) {
	if a.Cfg.AthenaDatabase == "" || a.Cfg.ImportMetricsTable == "" || a.Cfg.AthenaOutputS3 == "" {
		errJSON(c, http.StatusNotImplemented, "partition repair not configured")
		return
	}

	res, err := etl.RepairPartitions(c.Request.Context(), a.Athena, etl.AthenaRunOptions{
		Database:       a.Cfg.AthenaDatabase,
		Workgroup:      a.Cfg.AthenaWorkgroup,
		OutputLocation: a.Cfg.AthenaOutputS3,
	}, a.Cfg.ImportMetricsTable)
	if err != nil {
		logger.Log.Error("partition repair failed", zap.Error(err))
		status := http.StatusBadGateway
		if res != nil && res.State == "TIMEOUT" {
			status = http.StatusGatewayTimeout
		}
		errJSON(c, status, "partition repair failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, res)
}
