package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/importer"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
	"github.com/ordersheet/backend/internal/submission"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// CreateUpload accepts a multipart CSV/XLSX file, validates it against the
// requested variant schema and stores both the raw file and a preview
// record. Nothing reaches the Admin API here; validation is dry by
// construction.
func (a *API) CreateUpload(c *gin.Context) {
	shop := c.PostForm("shop")
	if !shopify.IsValidShopDomain(shop) {
		errJSON(c, http.StatusBadRequest, "shop must be a *.myshopify.com domain")
		return
	}

	if _, err := a.Shops.Get(c.Request.Context(), shop); errors.Is(err, shopify.ErrShopNotFound) {
		errJSON(c, http.StatusNotFound, "shop not registered")
		return
	} else if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load shop")
		return
	}

	variant := c.DefaultPostForm("variant", importer.VariantOrders)
	schema, err := importer.SchemaFor(variant, a.schemaOptions())
	if err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		errJSON(c, http.StatusBadRequest, "file is required")
		return
	}
	if fh.Size > maxUploadBytes {
		errJSON(c, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		errJSON(c, http.StatusBadRequest, "failed to read file")
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		errJSON(c, http.StatusBadRequest, "failed to read file")
		return
	}

	filename := filepath.Base(fh.Filename)

	res, err := submission.ParseUpload(raw, filename, schema)
	if err != nil {
		errJSON(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := uuid.NewString()
	fileKey := storage.UploadKey(shop, id, filename)
	if err := a.Objects.Put(c.Request.Context(), fileKey, raw, contentTypeFor(filename)); err != nil {
		logger.Log.Error("store upload failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	item := db.UploadItem{
		ID:         id,
		Shop:       shop,
		Variant:    variant,
		Filename:   filename,
		FileKey:    fileKey,
		RowCount:   res.RowCount,
		ValidCount: len(res.Valid),
		ErrorCount: len(res.Errors),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.Imports.PutUpload(c.Request.Context(), item); err != nil {
		logger.Log.Error("put upload record failed", zap.String("shop", shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to record upload")
		return
	}

	drafts, conflicts := importer.Group(res)

	c.JSON(http.StatusCreated, gin.H{
		"upload":      item,
		"draft_count": len(drafts),
		"errors":      append(res.Errors, conflicts...),
	})
}

func (a *API) GetUpload(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}

	item, err := a.Imports.GetUpload(c.Request.Context(), shop, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		errJSON(c, http.StatusNotFound, "upload not found")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load upload")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) schemaOptions() importer.SchemaOptions {
	return importer.SchemaOptions{
		GiftTitle:      a.Cfg.GiftLineTitle,
		GiftPrice:      a.Cfg.GiftLinePrice,
		DefaultCountry: a.Cfg.DefaultCountryCode,
	}
}

func contentTypeFor(filename string) string {
	if filepath.Ext(filename) == ".xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
