package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/ordersheet/backend/internal/aws"
	"github.com/ordersheet/backend/internal/config"
	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/etl"
	"github.com/ordersheet/backend/internal/logger"
	"github.com/ordersheet/backend/internal/security"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
)

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

	h := &etl.ImportMetricsETL{
		Shops:   &shopify.ShopStore{DDB: clients.DynamoDB, Table: cfg.ShopsTable, Key: key},
		Imports: db.NewImportStore(clients.DynamoDB, cfg.ImportsTable),
		Objects: &storage.ObjectStore{S3: clients.S3, Bucket: cfg.AnalyticsBucket},

		Prefix:   cfg.ImportMetricsPrefix,
		Timezone: cfg.ETLTimezone,
		DaysBack: cfg.ETLDaysBack,
	}

	lambda.Start(h.Handle)
}
