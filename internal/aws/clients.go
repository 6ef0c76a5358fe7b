package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// AWSClients bundles all service clients for convenience.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	SNS        SNSAPI
	S3         S3API
	CloudWatch CloudWatchAPI
	SSM        SSMAPI

	// Clients whose consumers declare their own narrow interfaces.
	Athena  *athena.Client
	Glue    *glue.Client
	Bedrock *bedrockruntime.Client
}

// NewAWSClients loads AWS config and returns concrete service clients that
// implement our interfaces.
func NewAWSClients(ctx context.Context) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &AWSClients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		SNS:        sns.NewFromConfig(cfg),
		S3:         s3.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
		SSM:        ssm.NewFromConfig(cfg),
		Athena:     athena.NewFromConfig(cfg),
		Glue:       glue.NewFromConfig(cfg),
		Bedrock:    bedrockruntime.NewFromConfig(cfg),
	}, nil
}
