package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/ordersheet/backend/internal/aws"
	"github.com/ordersheet/backend/internal/config"
	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/handlers"
	"github.com/ordersheet/backend/internal/importer"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/security"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
	"github.com/ordersheet/backend/internal/submission"
)

type worker struct {
	runner     *submission.Runner
	cloudwatch aws.CloudWatchAPI
	namespace  string
}

// handle runs each queued submission and reports per-message failures so
// only those messages retry.
func (w *worker) handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	failures := make([]events.SQSBatchItemFailure, 0)

	for _, rec := range sqsEvent.Records {
		if err := w.processOne(ctx, rec.Body); err != nil {
			logger.Log.Error("submission message failed",
				zap.String("message_id", rec.MessageId),
				zap.Error(err))
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func (w *worker) processOne(ctx context.Context, body string) error {
	var msg handlers.SubmissionMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("unmarshal submission message: %w", err)
	}
	if msg.Shop == "" || msg.SubmissionID == "" {
		return fmt.Errorf("message missing shop or submission_id")
	}

	sub, _, err := w.runner.Run(ctx, msg.Shop, msg.SubmissionID)
	if err != nil {
		return err
	}

	if err := aws.PutImportMetrics(ctx, w.cloudwatch, w.namespace, msg.Shop, sub.OrderCount, sub.FailureCount); err != nil {
		logger.Log.Warn("put import metrics failed", zap.String("shop", msg.Shop), zap.Error(err))
	}

	logger.Log.Info("submission completed",
		zap.String("shop", msg.Shop),
		zap.String("submission", msg.SubmissionID),
		zap.Int("orders_created", sub.OrderCount),
		zap.Int("rows_failed", sub.FailureCount))
	return nil
}

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger.Initialize(cfg.AppEnv)

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatalf("init aws clients: %v", err)
	}

	key, err := security.LoadKey(ctx, clients.SSM, cfg.TokenEncKey, cfg.TokenEncKeySSMParam)
	if err != nil {
		log.Fatalf("load token encryption key: %v", err)
	}

	shops := &shopify.ShopStore{DDB: clients.DynamoDB, Table: cfg.ShopsTable, Key: key}
	imports := db.NewImportStore(clients.DynamoDB, cfg.ImportsTable)
	objects := &storage.ObjectStore{S3: clients.S3, Bucket: cfg.UploadsBucket}

	w := &worker{
		runner: &submission.Runner{
			Shops:      shops,
			Imports:    imports,
			Objects:    objects,
			SNS:        clients.SNS,
			APIVersion: cfg.ShopifyAPIVersion,
			SchemaOpts: importer.SchemaOptions{
				GiftTitle:      cfg.GiftLineTitle,
				GiftPrice:      cfg.GiftLinePrice,
				DefaultCountry: cfg.DefaultCountryCode,
			},
			Logger: logger.Log,
		},
		cloudwatch: clients.CloudWatch,
		namespace:  cfg.MetricsNamespace,
	}

	lambda.Start(w.handle)
}
