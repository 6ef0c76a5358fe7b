package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/storage"
	"github.com/ordersheet/backend/internal/validation"
)

// SubmissionMessage is the SQS payload for queued runs.
type SubmissionMessage struct {
	Shop         string `json:"shop"`
	SubmissionID string `json:"submission_id"`
}

// CreateSubmission claims an upload and runs it, inline by default or queued
// when async is requested. A repeated claim returns the earlier submission
// instead of creating orders twice.
func (a *API) CreateSubmission(c *gin.Context) {
	var req validation.CreateSubmissionRequest
	if err := validation.BindAndValidate(c, &req, a.V); err != nil {
		return
	}

	ctx := c.Request.Context()

	upload, err := a.Imports.GetUpload(ctx, req.Shop, req.UploadID)
	if errors.Is(err, db.ErrNotFound) {
		errJSON(c, http.StatusNotFound, "upload not found")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load upload")
		return
	}

	claimKey := c.GetHeader("Idempotency-Key")
	if claimKey == "" {
		claimKey = "upload:" + upload.ID
	}

	submissionID := uuid.NewString()

	if err := a.Imports.Claim(ctx, req.Shop, claimKey, submissionID); err != nil {
		if errors.Is(err, db.ErrAlreadyClaimed) {
			existingID, lookErr := a.Imports.ClaimedSubmissionID(ctx, req.Shop, claimKey)
			if lookErr != nil {
				errJSON(c, http.StatusConflict, "submission already claimed")
				return
			}
			existing, getErr := a.Imports.GetSubmission(ctx, req.Shop, existingID)
			if getErr != nil {
				errJSON(c, http.StatusConflict, "submission already claimed")
				return
			}
			c.JSON(http.StatusOK, gin.H{"submission": existing, "duplicate": true})
			return
		}
		logger.Log.Error("claim failed", zap.String("shop", req.Shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to claim submission")
		return
	}

	item := db.SubmissionItem{
		ID:        submissionID,
		Shop:      req.Shop,
		UploadID:  upload.ID,
		Status:    db.StatusQueued,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.Imports.PutSubmission(ctx, item); err != nil {
		logger.Log.Error("put submission failed", zap.String("shop", req.Shop), zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "failed to record submission")
		return
	}

	if req.Async {
		body, _ := json.Marshal(SubmissionMessage{Shop: req.Shop, SubmissionID: submissionID})
		if err := a.Publisher.SendSubmissionMessage(ctx, string(body), map[string]string{
			"shop": req.Shop,
		}); err != nil {
			logger.Log.Error("enqueue submission failed", zap.String("shop", req.Shop), zap.Error(err))
			errJSON(c, http.StatusInternalServerError, "failed to enqueue submission")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"submission": item})
		return
	}

	sub, results, err := a.Runner.Run(ctx, req.Shop, submissionID)
	if err != nil {
		logger.Log.Error("submission run failed",
			zap.String("shop", req.Shop),
			zap.String("submission", submissionID),
			zap.Error(err))
		errJSON(c, http.StatusBadGateway, "submission run failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": sub, "results": results})
}

func (a *API) GetSubmission(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}

	item, err := a.Imports.GetSubmission(c.Request.Context(), shop, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		errJSON(c, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load submission")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) ListSubmissions(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	items, next, err := a.Imports.ListSubmissions(c.Request.Context(), shop, int32(limit), c.Query("next_token"))
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to list submissions")
		return
	}

	resp := gin.H{"submissions": items, "count": len(items)}
	if next != "" {
		resp["next_token"] = next
	}
	c.JSON(http.StatusOK, resp)
}

// GetSubmissionResults streams the archived per-row results JSON.
func (a *API) GetSubmissionResults(c *gin.Context) {
	shop, ok := shopParam(c)
	if !ok {
		return
	}

	item, err := a.Imports.GetSubmission(c.Request.Context(), shop, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		errJSON(c, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load submission")
		return
	}
	if item.ResultsKey == "" {
		errJSON(c, http.StatusNotFound, "results not available")
		return
	}

	data, err := a.Objects.Get(c.Request.Context(), item.ResultsKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		errJSON(c, http.StatusNotFound, "results not available")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "failed to load results")
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
