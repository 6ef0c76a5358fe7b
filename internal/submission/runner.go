// Package submission runs a claimed submission end to end: reload the raw
// file, re-run the pipeline, submit drafts sequentially, persist results.
// The synchronous handler and the SQS worker share this path.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/aws"
	"github.com/ordersheet/backend/internal/csvio"
	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/dispatch"
	"github.com/ordersheet/backend/internal/importer"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
)

// Runner wires the pipeline to its collaborators.
type Runner struct {
	Shops   *shopify.ShopStore
	Imports *db.ImportStore
	Objects *storage.ObjectStore
	SNS     aws.SNSAPI

	APIVersion string
	SchemaOpts importer.SchemaOptions

	// NewCreator lets tests substitute the remote boundary.
	NewCreator func(shopDomain, apiVersion, accessToken string) importer.OrderCreator

	Logger *zap.Logger
}

func (r *Runner) creator(shopDomain, apiVersion, accessToken string) importer.OrderCreator {
	if r.NewCreator != nil {
		return r.NewCreator(shopDomain, apiVersion, accessToken)
	}
	return &shopify.Submitter{Client: shopify.NewClient(shopDomain, apiVersion, accessToken)}
}

// Run executes one submission to completion and returns the updated record
// plus the per-row results. The pipeline itself never retries a draft; a
// returned error means the run could not start or finish bookkeeping, and the
// submission is marked failed where possible.
func (r *Runner) Run(ctx context.Context, shop, submissionID string) (*db.SubmissionItem, []importer.RowResult, error) {
	sub, err := r.Imports.GetSubmission(ctx, shop, submissionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load submission %s: %w", submissionID, err)
	}

	upload, err := r.Imports.GetUpload(ctx, shop, sub.UploadID)
	if err != nil {
		return nil, nil, r.fail(ctx, sub, fmt.Errorf("load upload %s: %w", sub.UploadID, err))
	}

	raw, err := r.Objects.Get(ctx, upload.FileKey)
	if err != nil {
		return nil, nil, r.fail(ctx, sub, fmt.Errorf("load raw file: %w", err))
	}

	schema, err := importer.SchemaFor(upload.Variant, r.SchemaOpts)
	if err != nil {
		return nil, nil, r.fail(ctx, sub, err)
	}

	res, err := parseUpload(raw, upload.Filename, schema)
	if err != nil {
		return nil, nil, r.fail(ctx, sub, err)
	}

	token, shopItem, err := r.Shops.AccessToken(ctx, shop)
	if err != nil {
		return nil, nil, r.fail(ctx, sub, err)
	}

	apiVersion := shopItem.APIVersion
	if apiVersion == "" {
		apiVersion = r.APIVersion
	}

	sub.Status = db.StatusRunning
	if err := r.Imports.PutSubmission(ctx, *sub); err != nil {
		return nil, nil, fmt.Errorf("mark submission running: %w", err)
	}

	drafts, conflicts := importer.Group(res)
	rejected := append(append([]importer.RowError{}, res.Errors...), conflicts...)

	creator := r.creator(shop, apiVersion, token)
	results := importer.Submit(ctx, creator, drafts, rejected)

	ordersCreated, rowsFailed := tally(results)

	resultsKey := storage.ResultsKey(shop, sub.ID)
	if err := r.archiveResults(ctx, resultsKey, results); err != nil {
		r.log().Warn("persist results failed", zap.String("submission", sub.ID), zap.Error(err))
		resultsKey = ""
	}

	now := time.Now().UTC().Format(time.RFC3339)
	sub.Status = db.StatusCompleted
	sub.DraftCount = len(drafts)
	sub.OrderCount = ordersCreated
	sub.FailureCount = rowsFailed
	sub.ResultsKey = resultsKey
	sub.CompletedAt = now
	if err := r.Imports.PutSubmission(ctx, *sub); err != nil {
		return nil, nil, fmt.Errorf("mark submission completed: %w", err)
	}

	if err := r.Shops.TouchLastImport(ctx, shop, now); err != nil {
		r.log().Warn("touch last import failed", zap.String("shop", shop), zap.Error(err))
	}

	if err := dispatch.PublishCompletion(ctx, r.SNS, shopItem.AlertsTopicArn, shop, sub.ID, ordersCreated, rowsFailed); err != nil {
		r.log().Warn("completion alert failed", zap.String("shop", shop), zap.Error(err))
	}

	return sub, results, nil
}

// archiveResults stores the row results as JSON. The run stays completed
// either way; a failure here just leaves the record without a results key.
func (r *Runner) archiveResults(ctx context.Context, key string, results []importer.RowResult) error {
	b, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return r.Objects.Put(ctx, key, b, "application/json")
}

func (r *Runner) fail(ctx context.Context, sub *db.SubmissionItem, cause error) error {
	sub.Status = db.StatusFailed
	sub.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err := r.Imports.PutSubmission(ctx, *sub); err != nil {
		r.log().Warn("mark submission failed", zap.String("submission", sub.ID), zap.Error(err))
	}
	return cause
}

func (r *Runner) log() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// parseUpload tokenizes the raw file by extension and validates it.
func parseUpload(raw []byte, filename string, schema importer.Schema) (*importer.ValidationResult, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		rows, err := csvio.ReadXLSX(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		return importer.ParseRows(rows, schema)
	}
	return importer.Parse(string(raw), schema)
}

// ParseUpload is the shared entry the upload handler uses for previews.
func ParseUpload(raw []byte, filename string, schema importer.Schema) (*importer.ValidationResult, error) {
	return parseUpload(raw, filename, schema)
}

func tally(results []importer.RowResult) (ordersCreated, rowsFailed int) {
	seen := map[string]bool{}
	for _, r := range results {
		if !r.OK {
			rowsFailed++
			continue
		}
		if r.OrderID != "" && !seen[r.OrderID] {
			seen[r.OrderID] = true
			ordersCreated++
		}
	}
	return ordersCreated, rowsFailed
}
