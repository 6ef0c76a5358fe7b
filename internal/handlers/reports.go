package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/report"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
)

// ShippingReport serves the shipping CSV for recent orders and archives a
// copy to S3.
func (a *API) ShippingReport(c *gin.Context) {
	a.serveReport(c, "shipping", report.ShippingCSV)
}

// TrackingReport serves the tracking-numbers CSV, one row per tracking
// record.
func (a *API) TrackingReport(c *gin.Context) {
	a.serveReport(c, "tracking", report.TrackingCSV)
}

func (a *API) serveReport(c *gin.Context, name string, render func([]shopify.OrderReport) ([]byte, error)) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	token, item, err := a.Shops.AccessToken(ctx, shop)
	if err != nil {
		errJSON(c, http.StatusNotFound, "shop not registered")
		return
	}

	search := c.Query("query")
	maxPages := queryInt(c, "pages", shopify.DefaultReportPageCeiling)
	pageSize := queryInt(c, "page_size", 50)

	client := a.shopClient(shop, item.APIVersion, token)
	orders, err := shopify.FetchOrderReports(ctx, client, search, maxPages, pageSize)
	if err != nil {
		logger.Log.Error("report fetch failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusBadGateway, "report fetch failed")
		return
	}

	data, err := render(orders)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to render report")
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().UTC().Format("20060102-150405"))
	if err := a.Objects.Put(ctx, storage.ReportKey(shop, filename), data, "text/csv"); err != nil {
		logger.Log.Warn("report archive failed", zap.String("shop", shop), zap.Error(err))
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv", data)
}
