package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

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
	"github.com/ordersheet/backend/internal/validation"
)

func setupRouter(api *handlers.API) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	api.RegisterRoutes(r)
	return r
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
	cache := &db.SuggestCache{DDB: clients.DynamoDB, Table: cfg.SuggestCacheTable, TTLSeconds: cfg.SuggestCacheTTLSeconds}
	objects := &storage.ObjectStore{S3: clients.S3, Bucket: cfg.UploadsBucket}

	runner := &submission.Runner{
		Shops:      shops,
		Imports:    imports,
		Objects:    objects,
		SNS:        clients.SNS,
		APIVersion: cfg.ShopifyAPIVersion,
		SchemaOpts: schemaOptions(cfg),
		Logger:     logger.Log,
	}

	api := &handlers.API{
		Cfg:       cfg,
		V:         validation.New(),
		Shops:     shops,
		Imports:   imports,
		Cache:     cache,
		Objects:   objects,
		Runner:    runner,
		Publisher: aws.NewPublisher(clients.SQS, cfg.SubmissionsQueueURL),
		SNS:       clients.SNS,
		Athena:    clients.Athena,
		Glue:      clients.Glue,
		Bedrock:   clients.Bedrock,
	}

	r := setupRouter(api)

	if cfg.RunLocal {
		addr := ":" + cfg.Port
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("local server: %v", err)
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func schemaOptions(cfg config.Config) importer.SchemaOptions {
	return importer.SchemaOptions{
		GiftTitle:      cfg.GiftLineTitle,
		GiftPrice:      cfg.GiftLinePrice,
		DefaultCountry: cfg.DefaultCountryCode,
	}
}
