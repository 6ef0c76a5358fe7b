package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/shopify"
)

// SuggestTags returns the distinct tags of recent orders for autocomplete.
// Results are cached per (shop, pages, page_size); a cache failure degrades
// to a live sweep.
func (a *API) SuggestTags(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	maxPages := queryInt(c, "pages", shopify.DefaultTagPageCeiling)
	pageSize := queryInt(c, "page_size", 50)

	if tags, hit, err := a.Cache.GetTags(ctx, shop, maxPages, pageSize); err == nil && hit {
		c.JSON(http.StatusOK, gin.H{"tags": tags, "cached": true})
		return
	} else if err != nil {
		logger.Log.Warn("tag cache read failed", zap.String("shop", shop), zap.Error(err))
	}

	token, item, err := a.Shops.AccessToken(ctx, shop)
	if err != nil {
		errJSON(c, http.StatusNotFound, "shop not registered")
		return
	}

	client := a.shopClient(shop, item.APIVersion, token)
	tags, err := shopify.SuggestTags(ctx, client, maxPages, pageSize)
	if err != nil {
		logger.Log.Error("tag sweep failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusBadGateway, "tag suggestion failed")
		return
	}

	if err := a.Cache.PutTags(ctx, shop, maxPages, pageSize, tags); err != nil {
		logger.Log.Warn("tag cache write failed", zap.String("shop", shop), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags, "cached": false})
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
