package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ordersheet/backend/internal/aws"
	"github.com/ordersheet/backend/internal/security"
)

// ErrShopNotFound is returned when a shop domain has no registry record.
var ErrShopNotFound = errors.New("shop not found")

// ShopItem mirrors the DynamoDB shop registry record.
type ShopItem struct {
	PK             string `dynamodbav:"PK" json:"-"`
	Shop           string `dynamodbav:"Shop" json:"shop"`
	AccessTokenEnc string `dynamodbav:"AccessTokenEnc" json:"-"`
	APIVersion     string `dynamodbav:"APIVersion" json:"apiVersion"`
	AlertsTopicArn string `dynamodbav:"AlertsTopicArn,omitempty" json:"alertsTopicArn,omitempty"`
	CreatedAt      string `dynamodbav:"CreatedAt" json:"createdAt"`
	LastImportAt   string `dynamodbav:"LastImportAt,omitempty" json:"lastImportAt,omitempty"`
}

// ShopStore persists shop registrations with AES-GCM-sealed access tokens.
type ShopStore struct {
	DDB   aws.DynamoDBAPI
	Table string
	Key   []byte
}

func shopPK(shop string) string {
	return fmt.Sprintf("SHOP#%s", shop)
}

// Register encrypts the token and upserts the shop record.
func (s *ShopStore) Register(ctx context.Context, shop, accessToken, apiVersion string) (*ShopItem, error) {
	enc, err := security.EncryptAESGCM(s.Key, accessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt token: %w", err)
	}

	item := ShopItem{
		PK:             shopPK(shop),
		Shop:           shop,
		AccessTokenEnc: enc,
		APIVersion:     apiVersion,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("marshal shop item: %w", err)
	}

	if _, err := s.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(s.Table),
		Item:      av,
	}); err != nil {
		return nil, fmt.Errorf("put shop item: %w", err)
	}

	return &item, nil
}

// Get loads one shop record.
func (s *ShopStore) Get(ctx context.Context, shop string) (*ShopItem, error) {
	out, err := s.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shop)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get shop item: %w", err)
	}
	if out.Item == nil {
		return nil, ErrShopNotFound
	}

	var item ShopItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal shop item: %w", err)
	}
	return &item, nil
}

// AccessToken loads the shop record and decrypts its Admin API token.
func (s *ShopStore) AccessToken(ctx context.Context, shop string) (string, *ShopItem, error) {
	item, err := s.Get(ctx, shop)
	if err != nil {
		return "", nil, err
	}

	enc := strings.TrimSpace(item.AccessTokenEnc)
	if enc == "" {
		return "", nil, fmt.Errorf("no access token stored for %s", shop)
	}

	token, err := security.DecryptAESGCM(s.Key, enc)
	if err != nil {
		return "", nil, fmt.Errorf("decrypt token for %s: %w", shop, err)
	}
	return token, item, nil
}

// List scans the registry. Shop counts are small; a scan is fine here.
func (s *ShopStore) List(ctx context.Context) ([]ShopItem, error) {
	var items []ShopItem
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.DDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         sdkaws.String(s.Table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan shops: %w", err)
		}

		var page []ShopItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal shops: %w", err)
		}
		items = append(items, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

// Delete removes a shop registration.
func (s *ShopStore) Delete(ctx context.Context, shop string) error {
	_, err := s.DDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shop)},
		},
	})
	if err != nil {
		return fmt.Errorf("delete shop item: %w", err)
	}
	return nil
}

// SetAlertsTopic stores the provisioned SNS topic ARN on the shop record.
func (s *ShopStore) SetAlertsTopic(ctx context.Context, shop, topicArn string) error {
	_, err := s.DDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shop)},
		},
		UpdateExpression: sdkaws.String("SET AlertsTopicArn=:a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: topicArn},
		},
	})
	return err
}

// TouchLastImport advances the shop's LastImportAt after a successful
// submission.
func (s *ShopStore) TouchLastImport(ctx context.Context, shop, atISO string) error {
	_, err := s.DDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shopPK(shop)},
		},
		UpdateExpression: sdkaws.String("SET LastImportAt=:a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: atISO},
		},
	})
	return err
}
