package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/importer"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/mapping"
	"github.com/ordersheet/backend/internal/validation"
)

// SuggestMapping proposes a header-to-column mapping for an unfamiliar
// spreadsheet. Advisory only: the caller renames its columns and re-uploads,
// the pipeline itself never consults the model.
func (a *API) SuggestMapping(c *gin.Context) {
	if a.Cfg.BedrockModelID == "" {
		errJSON(c, http.StatusNotImplemented, "mapping suggestions not configured")
		return
	}

	var req validation.MappingSuggestRequest
	if err := validation.BindAndValidate(c, &req, a.V); err != nil {
		return
	}

	schema, err := importer.SchemaFor(req.Variant, a.schemaOptions())
	if err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	suggested, err := mapping.SuggestMapping(c.Request.Context(), a.Bedrock, a.Cfg.BedrockModelID, schema, req.Headers)
	if err != nil {
		logger.Log.Error("mapping suggestion failed", zap.Error(err))
		errJSON(c, http.StatusBadGateway, "mapping suggestion failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"mapping": suggested})
}
