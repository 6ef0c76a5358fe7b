package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ordersheet/backend/internal/aws"
)

// SuggestCache stores per-shop tag suggestion sweeps with a TTL so the
// autocomplete doesn't hammer the Admin API.
type SuggestCache struct {
	DDB        aws.DynamoDBAPI
	Table      string
	TTLSeconds int64
}

func (c *SuggestCache) ttl() int64 {
	if c.TTLSeconds <= 0 {
		return 600
	}
	return c.TTLSeconds
}

func cachePK(shop string) string {
	return "SHOP#" + shop
}

func cacheSK(shop string, maxPages, pageSize int) string {
	material := fmt.Sprintf("shop=%s|pages=%d|size=%d", shop, maxPages, pageSize)
	sum := sha256.Sum256([]byte(material))
	return "TAGS#" + hex.EncodeToString(sum[:])
}

// GetTags returns the cached tag list and whether it was present. Cache
// failures are reported but callers treat them as a miss.
func (c *SuggestCache) GetTags(ctx context.Context, shop string, maxPages, pageSize int) ([]string, bool, error) {
	out, err := c.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: sdkaws.String(c.Table),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: cachePK(shop)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: cacheSK(shop, maxPages, pageSize)},
		},
		ConsistentRead: sdkaws.Bool(false),
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache GetItem: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	payloadAttr, ok := out.Item["Payload"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return nil, false, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(payloadAttr.Value), &tags); err != nil {
		return nil, false, nil
	}
	return tags, true, nil
}

// PutTags stores a tag sweep result.
func (c *SuggestCache) PutTags(ctx context.Context, shop string, maxPages, pageSize int, tags []string) error {
	b, _ := json.Marshal(tags)

	now := time.Now().UTC().Unix()
	exp := now + c.ttl()

	_, err := c.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(c.Table),
		Item: map[string]ddbtypes.AttributeValue{
			"PK":        &ddbtypes.AttributeValueMemberS{Value: cachePK(shop)},
			"SK":        &ddbtypes.AttributeValueMemberS{Value: cacheSK(shop, maxPages, pageSize)},
			"Payload":   &ddbtypes.AttributeValueMemberS{Value: string(b)},
			"CreatedAt": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			"ExpiresAt": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", exp)},
		},
	})
	if err != nil {
		return fmt.Errorf("cache PutItem: %w", err)
	}
	return nil
}
