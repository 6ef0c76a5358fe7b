package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/ordersheet/backend/internal/db"
	"github.com/ordersheet/backend/internal/importer"
	"github.com/ordersheet/backend/internal/security"
	"github.com/ordersheet/backend/internal/shopify"
	"github.com/ordersheet/backend/internal/storage"
)

// --- in-memory fakes ---

type memDDB struct {
	mu    sync.Mutex
	items map[string]map[string]ddbtypes.AttributeValue
}

func newMemDDB() *memDDB {
	return &memDDB{items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func ddbKey(attrs map[string]ddbtypes.AttributeValue) string {
	k := ""
	if pk, ok := attrs["PK"].(*ddbtypes.AttributeValueMemberS); ok {
		k = pk.Value
	}
	if sk, ok := attrs["SK"].(*ddbtypes.AttributeValueMemberS); ok {
		k += "|" + sk.Value
	}
	return k
}

func (m *memDDB) PutItem(_ context.Context, p *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[ddbKey(p.Item)] = p.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memDDB) GetItem(_ context.Context, p *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[ddbKey(p.Key)]; ok {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *memDDB) UpdateItem(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *memDDB) DeleteItem(_ context.Context, _ *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *memDDB) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (m *memDDB) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

type memS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	putKeyPrefix string // when set, Puts under this prefix fail
}

func newMemS3() *memS3 { return &memS3{objects: map[string][]byte{}} }

func (m *memS3) PutObject(_ context.Context, p *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putKeyPrefix != "" && strings.HasPrefix(*p.Key, m.putKeyPrefix) {
		return nil, errors.New("AccessDenied")
	}
	data, err := io.ReadAll(p.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*p.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, p *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*p.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type memSNS struct {
	mu       sync.Mutex
	messages []string
}

func (m *memSNS) CreateTopic(_ context.Context, _ *sns.CreateTopicInput, _ ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	arn := "arn:aws:sns:us-east-1:0:test"
	return &sns.CreateTopicOutput{TopicArn: &arn}, nil
}

func (m *memSNS) Subscribe(_ context.Context, _ *sns.SubscribeInput, _ ...func(*sns.Options)) (*sns.SubscribeOutput, error) {
	return &sns.SubscribeOutput{}, nil
}

func (m *memSNS) Publish(_ context.Context, p *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *p.Message)
	return &sns.PublishOutput{}, nil
}

type scriptedCreator struct {
	failKeys map[string]bool
	calls    int
}

func (c *scriptedCreator) CreateOrder(_ context.Context, d importer.OrderDraft) (string, string, error) {
	c.calls++
	if c.failKeys[d.Key] {
		return "", "", errors.New("variant not found")
	}
	return "gid://shopify/Order/" + d.Key, "#" + d.Key, nil
}

// --- fixture ---

const testShop = "demo.myshopify.com"

func fixtureRunner(t *testing.T, csv string, creator importer.OrderCreator) (*Runner, *db.ImportStore, *memS3, *memSNS, string) {
	t.Helper()
	ctx := context.Background()

	ddb := newMemDDB()
	objects := newMemS3()
	snsc := &memSNS{}

	key := bytes.Repeat([]byte{0x42}, 32)
	shops := &shopify.ShopStore{DDB: ddb, Table: "shops", Key: key}

	enc, err := security.EncryptAESGCM(key, "shpat_test")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	shopItem := shopify.ShopItem{
		PK:             "SHOP#" + testShop,
		Shop:           testShop,
		AccessTokenEnc: enc,
		APIVersion:     "2024-10",
		AlertsTopicArn: "arn:aws:sns:us-east-1:0:test",
	}
	av, err := attributevalue.MarshalMap(shopItem)
	if err != nil {
		t.Fatalf("marshal shop: %v", err)
	}
	ddb.items[ddbKey(av)] = av

	imports := db.NewImportStore(ddb, "imports")
	store := &storage.ObjectStore{S3: objects, Bucket: "uploads"}

	fileKey := storage.UploadKey(testShop, "u-1", "orders.csv")
	objects.objects[fileKey] = []byte(csv)

	if err := imports.PutUpload(ctx, db.UploadItem{
		ID: "u-1", Shop: testShop, Variant: importer.VariantOrders,
		Filename: "orders.csv", FileKey: fileKey,
		CreatedAt: "2026-08-15T12:00:00Z",
	}); err != nil {
		t.Fatalf("PutUpload: %v", err)
	}
	if err := imports.PutSubmission(ctx, db.SubmissionItem{
		ID: "sub-1", Shop: testShop, UploadID: "u-1",
		Status: db.StatusQueued, CreatedAt: "2026-08-15T12:00:00Z",
	}); err != nil {
		t.Fatalf("PutSubmission: %v", err)
	}

	r := &Runner{
		Shops:      shops,
		Imports:    imports,
		Objects:    store,
		SNS:        snsc,
		APIVersion: "2024-10",
		NewCreator: func(_, _, token string) importer.OrderCreator {
			if token != "shpat_test" {
				t.Errorf("decrypted token = %q", token)
			}
			return creator
		},
	}
	return r, imports, objects, snsc, "sub-1"
}

// --- tests ---

func TestRunner_Run(t *testing.T) {
	csv := "order_key,email,variant_id,quantity\n" +
		"1001,jane@example.com,1,1\n" +
		"1001,jane@example.com,2,2\n" +
		"1002,bob@example.com,3,1\n" +
		",bad@example.com,4,1\n"

	creator := &scriptedCreator{failKeys: map[string]bool{"1002": true}}
	r, imports, objects, snsc, subID := fixtureRunner(t, csv, creator)

	sub, results, err := r.Run(context.Background(), testShop, subID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sub.Status != db.StatusCompleted {
		t.Fatalf("status = %q", sub.Status)
	}
	if sub.DraftCount != 2 {
		t.Fatalf("draft count = %d", sub.DraftCount)
	}
	// 1001 succeeded (one order), 1002 failed (one row), plus the invalid row
	if sub.OrderCount != 1 || sub.FailureCount != 2 {
		t.Fatalf("orders=%d failed=%d", sub.OrderCount, sub.FailureCount)
	}
	if creator.calls != 2 {
		t.Fatalf("creator calls = %d", creator.calls)
	}
	if len(results) != 4 {
		t.Fatalf("one result per data row expected, got %d", len(results))
	}

	// persisted record matches the returned one
	stored, err := imports.GetSubmission(context.Background(), testShop, subID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if stored.Status != db.StatusCompleted || stored.OrderCount != 1 {
		t.Fatalf("stored = %+v", stored)
	}

	// results archived to S3 as JSON
	raw, ok := objects.objects[stored.ResultsKey]
	if !ok {
		t.Fatalf("results not archived under %q", stored.ResultsKey)
	}
	var archived []importer.RowResult
	if err := json.Unmarshal(raw, &archived); err != nil {
		t.Fatalf("archived results: %v", err)
	}
	if len(archived) != 4 {
		t.Fatalf("archived rows = %d", len(archived))
	}

	// completion alert published to the shop topic
	if len(snsc.messages) != 1 {
		t.Fatalf("sns messages = %v", snsc.messages)
	}
}

func TestRunner_RunCompletesWhenArchiveFails(t *testing.T) {
	creator := &scriptedCreator{}
	r, imports, objects, _, subID := fixtureRunner(t, "order_key,email,variant_id,quantity\n1001,a@b.com,1,1\n", creator)

	objects.putKeyPrefix = "results/"

	sub, results, err := r.Run(context.Background(), testShop, subID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sub.Status != db.StatusCompleted || len(results) != 1 {
		t.Fatalf("status = %q, results = %d", sub.Status, len(results))
	}
	if sub.ResultsKey != "" {
		t.Fatalf("results key must be cleared when the archive write fails, got %q", sub.ResultsKey)
	}

	stored, err := imports.GetSubmission(context.Background(), testShop, subID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if stored.ResultsKey != "" {
		t.Fatalf("stored results key = %q", stored.ResultsKey)
	}
}

func TestRunner_RunMarksFailedOnMissingFile(t *testing.T) {
	creator := &scriptedCreator{}
	r, imports, objects, _, subID := fixtureRunner(t, "order_key,email,variant_id,quantity\n1001,a@b.com,1,1\n", creator)

	// remove the raw file so the run cannot start
	for k := range objects.objects {
		delete(objects.objects, k)
	}

	if _, _, err := r.Run(context.Background(), testShop, subID); err == nil {
		t.Fatal("expected error when the raw file is gone")
	}

	stored, err := imports.GetSubmission(context.Background(), testShop, subID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if stored.Status != db.StatusFailed {
		t.Fatalf("status = %q", stored.Status)
	}
	if creator.calls != 0 {
		t.Fatalf("no orders may be attempted, calls = %d", creator.calls)
	}
}
