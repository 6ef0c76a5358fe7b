package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ordersheet/backend/internal/dispatch"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/validation"

	"go.uber.org/zap"
)

// RegisterShop stores a shop with its Admin API token sealed at rest.
func (a *API) RegisterShop(c *gin.Context) {
	var req validation.RegisterShopRequest
	if err := validation.BindAndValidate(c, &req, a.V); err != nil {
		return
	}

	apiVersion := req.APIVersion
	if apiVersion == "" {
		apiVersion = a.Cfg.ShopifyAPIVersion
	}

	item, err := a.Shops.Register(c.Request.Context(), req.Shop, req.AccessToken, apiVersion)
	if err != nil {
		logger.Log.Error("register shop failed", zap.String("shop", req.Shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to register shop")
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (a *API) ListShops(c *gin.Context) {
	items, err := a.Shops.List(c.Request.Context())
	if err != nil {
		logger.Log.Error("list shops failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to list shops")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shops": items, "count": len(items)})
}

func (a *API) GetShop(c *gin.Context) {
	shop := c.Param("shop")
	if !shopify.IsValidShopDomain(shop) {
		errJSON(c, http.StatusBadRequest, "shop must be a *.myshopify.com domain")
		return
	}

	item, err := a.Shops.Get(c.Request.Context(), shop)
	if errors.Is(err, shopify.ErrShopNotFound) {
		errJSON(c, http.StatusNotFound, "shop not registered")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load shop")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) DeleteShop(c *gin.Context) {
	shop := c.Param("shop")
	if !shopify.IsValidShopDomain(shop) {
		errJSON(c, http.StatusBadRequest, "shop must be a *.myshopify.com domain")
		return
	}

	if err := a.Shops.Delete(c.Request.Context(), shop); err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to delete shop")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EnableAlerts provisions the shop's SNS topic and subscribes the merchant's
// email. The subscription stays pending until the merchant confirms it.
func (a *API) EnableAlerts(c *gin.Context) {
	shop := c.Param("shop")
	if !shopify.IsValidShopDomain(shop) {
		errJSON(c, http.StatusBadRequest, "shop must be a *.myshopify.com domain")
		return
	}

	var req validation.AlertsRequest
	if err := validation.BindAndValidate(c, &req, a.V); err != nil {
		return
	}

	if _, err := a.Shops.Get(c.Request.Context(), shop); errors.Is(err, shopify.ErrShopNotFound) {
		errJSON(c, http.StatusNotFound, "shop not registered")
		return
	} else if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load shop")
		return
	}

	topicArn, err := dispatch.EnsureShopAlerts(c.Request.Context(), a.Shops, a.SNS, shop, req.Email)
	if err != nil {
		logger.Log.Error("alerts setup failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to set up alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "topic_arn": topicArn, "pending_confirmation": true})
}
