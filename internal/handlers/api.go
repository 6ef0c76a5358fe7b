// Package handlers is the HTTP surface: a gin router over the import
// pipeline, the shop registry and the reporting queries.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/ordersheet/backend/internal/aws"
	"github.com/ordersheet/backend/internal/config"
	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/etl"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/mapping"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
	"github.com/ordersheet/backend/internal/submission"
)

// API bundles the route handlers' collaborators.
type API struct {
	Cfg config.Config
	V   *validatorv10.Validate

	Shops   *shopify.ShopStore
	Imports *db.ImportStore
	Cache   *db.SuggestCache
	Objects *storage.ObjectStore

	Runner    *submission.Runner
	Publisher *aws.Publisher
	SNS       aws.SNSAPI

	Athena  etl.AthenaClient
	Glue    etl.GlueClient
	Bedrock mapping.BedrockClient

	// NewShopClient is swapped in tests for an httptest-backed client.
	NewShopClient func(shopDomain, apiVersion, accessToken string) *shopify.Client
}

func (a *API) shopClient(shopDomain, apiVersion, accessToken string) *shopify.Client {
	if a.NewShopClient != nil {
		return a.NewShopClient(shopDomain, apiVersion, accessToken)
	}
	return shopify.NewClient(shopDomain, apiVersion, accessToken)
}

// RegisterRoutes mounts every route on the engine.
func (a *API) RegisterRoutes(r *gin.Engine) {
	r.Use(logger.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": "ordersheet-backend"})
	})

	api := r.Group("/api")
	{
		api.POST("/shops", a.RegisterShop)
		api.GET("/shops", a.ListShops)
		api.GET("/shops/:shop", a.GetShop)
		api.DELETE("/shops/:shop", a.DeleteShop)
		api.POST("/shops/:shop/alerts", a.EnableAlerts)

		api.POST("/uploads", a.CreateUpload)
		api.GET("/uploads/:id", a.GetUpload)

		api.POST("/submissions", a.CreateSubmission)
		api.GET("/submissions", a.ListSubmissions)
		api.GET("/submissions/:id", a.GetSubmission)
		api.GET("/submissions/:id/results", a.GetSubmissionResults)

		api.GET("/templates/:variant", a.DownloadTemplate)
		api.GET("/tags/suggest", a.SuggestTags)
		api.POST("/mapping/suggest", a.SuggestMapping)

		api.GET("/reports/shipping.csv", a.ShippingReport)
		api.GET("/reports/tracking.csv", a.TrackingReport)

		api.GET("/metrics/summary", a.MetricsSummary)
		api.GET("/metrics/history", a.MetricsHistory)

		api.POST("/admin/repair-partitions", a.RepairPartitions)
	}
}

// errJSON writes the uniform error envelope.
func errJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// shopParam resolves the shop domain from the query string and validates it.
func shopParam(c *gin.Context) (string, bool) {
	shop := c.Query("shop")
	if !shopify.IsValidShopDomain(shop) {
		errJSON(c, http.StatusBadRequest, "shop must be a *.myshopify.com domain")
		return "", false
	}
	return shop, true
}
