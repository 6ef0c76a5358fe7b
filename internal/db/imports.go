package db

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ordersheet/backend/internal/aws"
)

// Submission statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	// ErrAlreadyClaimed signals a duplicate submission claim.
	ErrAlreadyClaimed = errors.New("submission already claimed")
	// ErrNotFound signals a missing upload or submission record.
	ErrNotFound = errors.New("record not found")
)

// UploadItem is one stored upload preview record.
type UploadItem struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	ID         string `dynamodbav:"ID" json:"id"`
	Shop       string `dynamodbav:"Shop" json:"shop"`
	Variant    string `dynamodbav:"Variant" json:"variant"`
	Filename   string `dynamodbav:"Filename" json:"filename"`
	FileKey    string `dynamodbav:"FileKey" json:"-"`
	RowCount   int    `dynamodbav:"RowCount" json:"rowCount"`
	ValidCount int    `dynamodbav:"ValidCount" json:"validCount"`
	ErrorCount int    `dynamodbav:"ErrorCount" json:"errorCount"`
	CreatedAt  string `dynamodbav:"CreatedAt" json:"createdAt"`
}

// SubmissionItem is one stored submission record. GSI1 partitions by
// shop+month so the current-month summary is a single query.
type SubmissionItem struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	GSI1PK string `dynamodbav:"GSI1PK" json:"-"`
	GSI1SK string `dynamodbav:"GSI1SK" json:"-"`

	ID           string `dynamodbav:"ID" json:"id"`
	Shop         string `dynamodbav:"Shop" json:"shop"`
	UploadID     string `dynamodbav:"UploadID" json:"uploadId"`
	Status       string `dynamodbav:"Status" json:"status"`
	DraftCount   int    `dynamodbav:"DraftCount" json:"draftCount"`
	OrderCount   int    `dynamodbav:"OrderCount" json:"orderCount"`
	FailureCount int    `dynamodbav:"FailureCount" json:"failureCount"`
	ResultsKey   string `dynamodbav:"ResultsKey,omitempty" json:"-"`
	CreatedAt    string `dynamodbav:"CreatedAt" json:"createdAt"`
	CompletedAt  string `dynamodbav:"CompletedAt,omitempty" json:"completedAt,omitempty"`
}

// ImportStore persists uploads, submissions and submission claims in one
// table keyed PK=SHOP#<domain>.
type ImportStore struct {
	DDB      aws.DynamoDBAPI
	Table    string
	ClaimTTL time.Duration

	nowFunc func() time.Time
}

func NewImportStore(ddb aws.DynamoDBAPI, table string) *ImportStore {
	return &ImportStore{
		DDB:      ddb,
		Table:    table,
		ClaimTTL: 48 * time.Hour,
		nowFunc:  time.Now,
	}
}

func importPK(shop string) string {
	return fmt.Sprintf("SHOP#%s", shop)
}

// PutUpload stores an upload record.
func (s *ImportStore) PutUpload(ctx context.Context, item UploadItem) error {
	item.PK = importPK(item.Shop)
	item.SK = fmt.Sprintf("UPLOAD#%s", item.ID)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal upload: %w", err)
	}

	if _, err := s.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(s.Table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put upload: %w", err)
	}
	return nil
}

// GetUpload loads one upload record.
func (s *ImportStore) GetUpload(ctx context.Context, shop, id string) (*UploadItem, error) {
	out, err := s.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: importPK(shop)},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("UPLOAD#%s", id)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item UploadItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal upload: %w", err)
	}
	return &item, nil
}

// Claim makes submitting one upload (or one Idempotency-Key) single-shot via
// a conditional put. A duplicate claim returns ErrAlreadyClaimed.
func (s *ImportStore) Claim(ctx context.Context, shop, key, submissionID string) error {
	exp := s.nowFunc().UTC().Add(s.ClaimTTL).Unix()

	_, err := s.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(s.Table),
		Item: map[string]types.AttributeValue{
			"PK":           &types.AttributeValueMemberS{Value: importPK(shop)},
			"SK":           &types.AttributeValueMemberS{Value: fmt.Sprintf("CLAIM#%s", key)},
			"SubmissionID": &types.AttributeValueMemberS{Value: submissionID},
			"CreatedAt":    &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)},
			"ExpiresAt":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", exp)},
		},
		ConditionExpression: sdkaws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return ErrAlreadyClaimed
		}
		return fmt.Errorf("put claim: %w", err)
	}
	return nil
}

// ClaimedSubmissionID returns the submission id an earlier claim recorded.
func (s *ImportStore) ClaimedSubmissionID(ctx context.Context, shop, key string) (string, error) {
	out, err := s.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: importPK(shop)},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CLAIM#%s", key)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("get claim: %w", err)
	}
	if out.Item == nil {
		return "", ErrNotFound
	}
	if v, ok := out.Item["SubmissionID"].(*types.AttributeValueMemberS); ok {
		return v.Value, nil
	}
	return "", ErrNotFound
}

// PutSubmission upserts a submission record, maintaining the month GSI keys.
func (s *ImportStore) PutSubmission(ctx context.Context, item SubmissionItem) error {
	item.PK = importPK(item.Shop)
	item.SK = fmt.Sprintf("SUBMISSION#%s", item.ID)

	created, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		created = s.nowFunc().UTC()
		item.CreatedAt = created.Format(time.RFC3339)
	}
	item.GSI1PK = fmt.Sprintf("SHOP#%s#MONTH#%s", item.Shop, created.UTC().Format("2006-01"))
	item.GSI1SK = created.UTC().Format(time.RFC3339Nano)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	if _, err := s.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(s.Table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put submission: %w", err)
	}
	return nil
}

// GetSubmission loads one submission record.
func (s *ImportStore) GetSubmission(ctx context.Context, shop, id string) (*SubmissionItem, error) {
	out, err := s.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: sdkaws.String(s.Table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: importPK(shop)},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SUBMISSION#%s", id)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item SubmissionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return &item, nil
}

// ListSubmissions pages a shop's submissions newest-first. nextToken is an
// opaque base64url-encoded continuation.
func (s *ImportStore) ListSubmissions(ctx context.Context, shop string, limit int32, nextToken string) ([]SubmissionItem, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var eks map[string]types.AttributeValue
	if nextToken != "" {
		raw, err := base64.RawURLEncoding.DecodeString(nextToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid nextToken")
		}
		var m map[string]map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, "", fmt.Errorf("invalid nextToken payload")
		}
		eks = map[string]types.AttributeValue{}
		for k, v := range m {
			if v["S"] != "" {
				eks[k] = &types.AttributeValueMemberS{Value: v["S"]}
			}
		}
	}

	out, err := s.DDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              sdkaws.String(s.Table),
		KeyConditionExpression: sdkaws.String("PK = :pk AND begins_with(SK, :sub)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":  &types.AttributeValueMemberS{Value: importPK(shop)},
			":sub": &types.AttributeValueMemberS{Value: "SUBMISSION#"},
		},
		ScanIndexForward:  sdkaws.Bool(false),
		Limit:             sdkaws.Int32(limit),
		ExclusiveStartKey: eks,
	})
	if err != nil {
		return nil, "", fmt.Errorf("query submissions: %w", err)
	}

	var items []SubmissionItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, "", fmt.Errorf("unmarshal submissions: %w", err)
	}

	var token string
	if len(out.LastEvaluatedKey) > 0 {
		// encode as a tiny json map of {key: {S:"value"}} and base64url it
		m := map[string]map[string]string{}
		for k, av := range out.LastEvaluatedKey {
			if sv, ok := av.(*types.AttributeValueMemberS); ok {
				m[k] = map[string]string{"S": sv.Value}
			}
		}
		b, _ := json.Marshal(m)
		token = base64.RawURLEncoding.EncodeToString(b)
	}

	return items, token, nil
}

// SubmissionsForMonth queries the month GSI partition for the summary view.
func (s *ImportStore) SubmissionsForMonth(ctx context.Context, shop, month string) ([]SubmissionItem, error) {
	out, err := s.DDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              sdkaws.String(s.Table),
		IndexName:              sdkaws.String("GSI1"),
		KeyConditionExpression: sdkaws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SHOP#%s#MONTH#%s", shop, month)},
		},
		Limit: sdkaws.Int32(500),
	})
	if err != nil {
		return nil, fmt.Errorf("query month submissions: %w", err)
	}

	var items []SubmissionItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal month submissions: %w", err)
	}
	return items, nil
}

// SubmissionsForDay returns a shop's submissions created on one YYYY-MM-DD
// day. CreatedAt is RFC3339, so begins_with works.
func (s *ImportStore) SubmissionsForDay(ctx context.Context, shop, day string) ([]SubmissionItem, error) {
	var items []SubmissionItem
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.DDB.Query(ctx, &dynamodb.QueryInput{
			TableName:              sdkaws.String(s.Table),
			KeyConditionExpression: sdkaws.String("PK = :pk AND begins_with(SK, :sub)"),
			FilterExpression:       sdkaws.String("begins_with(CreatedAt, :day)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":  &types.AttributeValueMemberS{Value: importPK(shop)},
				":sub": &types.AttributeValueMemberS{Value: "SUBMISSION#"},
				":day": &types.AttributeValueMemberS{Value: day},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query day submissions: %w", err)
		}

		var page []SubmissionItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal day submissions: %w", err)
		}
		items = append(items, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

// UploadsForDay counts a shop's uploads created on one YYYY-MM-DD day.
func (s *ImportStore) UploadsForDay(ctx context.Context, shop, day string) (int, error) {
	count := 0
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.DDB.Query(ctx, &dynamodb.QueryInput{
			TableName:              sdkaws.String(s.Table),
			KeyConditionExpression: sdkaws.String("PK = :pk AND begins_with(SK, :up)"),
			FilterExpression:       sdkaws.String("begins_with(CreatedAt, :day)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":  &types.AttributeValueMemberS{Value: importPK(shop)},
				":up":  &types.AttributeValueMemberS{Value: "UPLOAD#"},
				":day": &types.AttributeValueMemberS{Value: day},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("query day uploads: %w", err)
		}
		count += len(out.Items)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return count, nil
}
